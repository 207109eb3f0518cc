package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookmarket/book"
)

var cities = []string{"Pune", "Mumbai", "Delhi", "Bangalore", "Chennai"}

// Lister keeps adding listings for one owner. Validation errors are bugs;
// transport errors are expected under chaos and retried.
func Lister(ctx context.Context, svc *book.Service, owner book.Actor, stop <-chan struct{}) error {
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := svc.Create(ctx, owner, book.CreateParams{
			Title:    fmt.Sprintf("Stress Title %d-%d", rand.Int63(), i),
			Genre:    book.Genres[rand.Intn(len(book.Genres))],
			City:     cities[rand.Intn(len(cities))],
			ImageURL: "https://example.com/cover.png",
		})
		if errors.Is(err, book.ErrValidation) || errors.Is(err, book.ErrOwnerOnly) {
			return fmt.Errorf("lister create: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Editor patches and occasionally deletes the owner's own listings. A
// forbidden result on the owner's own book means the ownership check broke.
func Editor(ctx context.Context, svc *book.Service, owner book.Actor, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		mine, err := svc.ListByOwner(ctx, owner)
		if err != nil || len(mine) == 0 {
			time.Sleep(30 * time.Millisecond)
			continue
		}
		target := mine[rand.Intn(len(mine))]
		if rand.Intn(5) == 0 {
			err = svc.Delete(ctx, owner, target.ID)
		} else {
			city := cities[rand.Intn(len(cities))]
			_, err = svc.Update(ctx, owner, target.ID, book.UpdateParams{City: &city})
		}
		if errors.Is(err, book.ErrForbidden) {
			return fmt.Errorf("editor denied on own book %s: %w", target.ID, err)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Intruder hunts for books it does not own and tries to rewrite or delete
// them. Any success is a breach of the ownership policy.
func Intruder(ctx context.Context, svc *book.Service, pool *pgxpool.Pool, actor book.Actor, stop <-chan struct{}) error {
	hijacked := "HIJACKED"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var targetID string
		err := pool.QueryRow(ctx,
			`SELECT id FROM books WHERE author_id <> $1 ORDER BY random() LIMIT 1`, actor.ID).Scan(&targetID)
		if errors.Is(err, pgx.ErrNoRows) || targetID == "" {
			time.Sleep(30 * time.Millisecond)
			continue
		}
		if err == nil {
			if rand.Intn(2) == 0 {
				_, err = svc.Update(ctx, actor, targetID, book.UpdateParams{Title: &hijacked})
			} else {
				err = svc.Delete(ctx, actor, targetID)
			}
			if err == nil {
				return fmt.Errorf("intruder mutated foreign book %s", targetID)
			}
		}
		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}

// Browser reads the feed and single listings as a seeker. The viewer's own
// books must never show up in the feed.
func Browser(ctx context.Context, svc *book.Service, seeker book.Actor, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		listings, err := svc.Feed(ctx, seeker.ID)
		if err == nil {
			for _, l := range listings {
				if l.AuthorID == seeker.ID {
					return fmt.Errorf("feed leaked viewer's own book %s", l.ID)
				}
			}
			if len(listings) > 0 {
				pick := listings[rand.Intn(len(listings))]
				if _, err := svc.Get(ctx, pick.ID); err != nil && !errors.Is(err, book.ErrNotFound) {
					// deleted between feed and get is fine; anything else is transient
					time.Sleep(20 * time.Millisecond)
				}
			}
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}
