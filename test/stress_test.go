package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"bookmarket/auth"
	"bookmarket/book"
	"bookmarket/test/actors"
	"bookmarket/test/chaos"
	"bookmarket/test/infra"
	"bookmarket/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestListingOwnershipConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("BOOKMARKET_TEST_PG_DSN") != "":
		dsn = os.Getenv("BOOKMARKET_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	books := book.NewService(pool, book.NewRepository(pool))
	seedData := mustSeed(t, ctx, pool, books)

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// owners listing and editing their own books while intruders attack them
	for i := 0; i < *flConcurrency; i++ {
		owner := seedData.owners[i%len(seedData.owners)]
		intruder := seedData.owners[(i+1)%len(seedData.owners)]
		g.Go(func() error { return actors.Lister(ctx2, books, owner, stop) })
		g.Go(func() error { return actors.Editor(ctx2, books, owner, stop) })
		g.Go(func() error { return actors.Intruder(ctx2, books, pool, intruder, stop) })
	}
	g.Go(func() error { return actors.Browser(ctx2, books, seedData.seeker, stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	owners []book.Actor
	seeker book.Actor
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool, books *book.Service) seedIDs {
	t.Helper()
	users := auth.NewService(auth.NewRepository(pool), "stress-secret")

	register := func(role auth.Role, label string) book.Actor {
		email := fmt.Sprintf("%s-%d@example.com", label, rand.Int63())
		u, err := users.Register(ctx, auth.RegisterRequest{
			Name:     "Stress " + label,
			Email:    email,
			Password: "Str3ss!pass",
			Phone:    "9876543210",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("seed %s: %v", label, err)
		}
		return book.Actor{ID: u.ID, Email: u.Email, Role: string(u.Role)}
	}

	s := seedIDs{
		owners: []book.Actor{
			register(auth.RoleOwner, "owner-a"),
			register(auth.RoleOwner, "owner-b"),
		},
		seeker: register(auth.RoleSeeker, "seeker"),
	}

	// each owner starts with one listing so intruders have targets immediately
	for _, owner := range s.owners {
		if _, err := books.Create(ctx, owner, book.CreateParams{
			Title:    "Seed Title " + owner.ID,
			Genre:    book.Genres[rand.Intn(len(book.Genres))],
			City:     "Pune",
			ImageURL: "https://example.com/seed.png",
		}); err != nil {
			t.Fatalf("seed listing for %s: %v", owner.Email, err)
		}
	}
	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"books", `SELECT id, title, genre, city, contact, author_id, created_at FROM books ORDER BY created_at DESC LIMIT 50`},
		{"users", `SELECT id, email, role, created_at FROM users ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
