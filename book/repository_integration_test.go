package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestListingLifecycle_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies the repository + service behavior, including the row-locked
// ownership checks on update and delete.
func TestListingLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "users") || !tableExists(ctx, t, pool, "books") {
		t.Skip("database schema missing; apply migrations/001_init.sql first")
	}

	// Seed an owner and a second user to act as the non-owner.
	var ownerID, otherID string
	nonce := time.Now().UnixNano()
	ownerEmail := fmt.Sprintf("owner+%d@example.com", nonce)
	if err := pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, phone, role)
        VALUES ($1, $2, 'x', '9876543210', 'Owner') RETURNING id`,
		"Owner One", ownerEmail).Scan(&ownerID); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, phone, role)
        VALUES ($1, $2, 'x', '9876543211', 'Owner') RETURNING id`,
		"Owner Two", fmt.Sprintf("other+%d@example.com", nonce)).Scan(&otherID); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM books WHERE author_id IN ($1, $2)`, ownerID, otherID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id IN ($1, $2)`, ownerID, otherID)
	})

	svc := NewService(pool, NewRepository(pool))
	owner := Actor{ID: ownerID, Email: ownerEmail, Role: RoleOwner}
	other := Actor{ID: otherID, Email: "other@example.com", Role: RoleOwner}

	created, err := svc.Create(ctx, owner, CreateParams{
		Title:    "Wings of Fire",
		Genre:    "Biography",
		City:     "Pune",
		ImageURL: "https://example.com/wof.png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Contact != ownerEmail || created.AuthorID != ownerID {
		t.Fatalf("created listing not stamped with owner: contact=%q author=%q", created.Contact, created.AuthorID)
	}

	listing, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if listing.Author.Email != ownerEmail || listing.Author.Name != "Owner One" {
		t.Fatalf("author profile missing on read: %+v", listing.Author)
	}

	// The owner's feed must not include their own listing; the other user's must.
	ownFeed, err := svc.Feed(ctx, ownerID)
	if err != nil {
		t.Fatalf("own feed: %v", err)
	}
	for _, l := range ownFeed {
		if l.ID == created.ID {
			t.Fatalf("own listing %s leaked into own feed", created.ID)
		}
	}
	otherFeed, err := svc.Feed(ctx, otherID)
	if err != nil {
		t.Fatalf("other feed: %v", err)
	}
	found := false
	for _, l := range otherFeed {
		if l.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("listing %s missing from other user's feed", created.ID)
	}

	// Non-owner mutations are rejected; unknown and malformed ids read as absent.
	title := "Stolen"
	if _, err := svc.Update(ctx, other, created.ID, UpdateParams{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update: want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, other, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, owner, "not-a-uuid", UpdateParams{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id update: want ErrNotFound, got %v", err)
	}

	city := "Mumbai"
	updated, err := svc.Update(ctx, owner, created.ID, UpdateParams{City: &city})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != city || updated.Title != "Wings of Fire" {
		t.Fatalf("partial update went wrong: title=%q city=%q", updated.Title, updated.City)
	}

	if err := svc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: want ErrNotFound, got %v", err)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
