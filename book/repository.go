package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the listing does not exist.
var ErrNotFound = errors.New("book: not found")

// Repository handles data access for listings. Update and Delete run against a
// caller-provided transaction so the ownership check and the mutation commit
// atomically.
type Repository interface {
	Create(ctx context.Context, b Book) (Book, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Book, error)
	Update(ctx context.Context, tx pgx.Tx, id string, patch UpdateParams) (Book, error)
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	ListByAuthor(ctx context.Context, authorID string) ([]Book, error)
	ListFeed(ctx context.Context, excludeAuthorID string) ([]Listing, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed listing repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const bookColumns = "id, title, genre, city, contact, image_url, author_id, created_at, updated_at"

// Create inserts a new listing.
func (r *PGRepository) Create(ctx context.Context, b Book) (Book, error) {
	const insertSQL = `
		INSERT INTO books (id, title, genre, city, contact, image_url, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + bookColumns

	created, err := scanBook(r.pool.QueryRow(ctx, insertSQL,
		b.ID,
		b.Title,
		b.Genre,
		b.City,
		b.Contact,
		b.ImageURL,
		b.AuthorID,
	))
	if err != nil {
		return Book{}, fmt.Errorf("book: create: %w", err)
	}

	return created, nil
}

// GetByID retrieves a listing with its author profile attached.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Listing, error) {
	const selectSQL = `
		SELECT b.id, b.title, b.genre, b.city, b.contact, b.image_url, b.author_id, b.created_at, b.updated_at,
		       u.id, u.name, u.email, u.phone, u.role, u.created_at, u.updated_at
		FROM books b
		JOIN users u ON u.id = b.author_id
		WHERE b.id = $1
	`

	listing, err := scanListing(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if isMissingRow(err) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("book: get by id: %w", err)
	}

	return listing, nil
}

// GetForUpdate locks the listing row inside tx so the caller can check
// ownership and mutate without a window for concurrent writers.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Book, error) {
	const selectSQL = `
		SELECT ` + bookColumns + `
		FROM books
		WHERE id = $1
		FOR UPDATE
	`

	b, err := scanBook(tx.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if isMissingRow(err) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("book: get for update: %w", err)
	}

	return b, nil
}

// Update applies the non-nil patch fields; omitted fields keep prior values.
func (r *PGRepository) Update(ctx context.Context, tx pgx.Tx, id string, patch UpdateParams) (Book, error) {
	const updateSQL = `
		UPDATE books
		SET title = COALESCE($2, title),
		    genre = COALESCE($3, genre),
		    city = COALESCE($4, city),
		    image_url = COALESCE($5, image_url),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + bookColumns

	b, err := scanBook(tx.QueryRow(ctx, updateSQL, id, patch.Title, patch.Genre, patch.City, patch.ImageURL))
	if err != nil {
		if isMissingRow(err) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("book: update: %w", err)
	}

	return b, nil
}

// Delete removes the listing permanently.
func (r *PGRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("book: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByAuthor returns the author's own listings, newest first.
func (r *PGRepository) ListByAuthor(ctx context.Context, authorID string) ([]Book, error) {
	const selectSQL = `
		SELECT ` + bookColumns + `
		FROM books
		WHERE author_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, selectSQL, authorID)
	if err != nil {
		return nil, fmt.Errorf("book: list by author: %w", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("book: scan listing: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("book: iterate listings: %w", err)
	}

	return books, nil
}

// ListFeed returns every listing not authored by excludeAuthorID, newest
// first, with author profiles attached. The full working set is returned;
// clients filter and paginate in memory.
func (r *PGRepository) ListFeed(ctx context.Context, excludeAuthorID string) ([]Listing, error) {
	const selectSQL = `
		SELECT b.id, b.title, b.genre, b.city, b.contact, b.image_url, b.author_id, b.created_at, b.updated_at,
		       u.id, u.name, u.email, u.phone, u.role, u.created_at, u.updated_at
		FROM books b
		JOIN users u ON u.id = b.author_id
		WHERE b.author_id <> $1
		ORDER BY b.created_at DESC
	`

	rows, err := r.pool.Query(ctx, selectSQL, excludeAuthorID)
	if err != nil {
		return nil, fmt.Errorf("book: list feed: %w", err)
	}
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("book: scan feed row: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("book: iterate feed: %w", err)
	}

	return listings, nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	return b, row.Scan(
		&b.ID,
		&b.Title,
		&b.Genre,
		&b.City,
		&b.Contact,
		&b.ImageURL,
		&b.AuthorID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	return l, row.Scan(
		&l.ID,
		&l.Title,
		&l.Genre,
		&l.City,
		&l.Contact,
		&l.ImageURL,
		&l.AuthorID,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.Author.ID,
		&l.Author.Name,
		&l.Author.Email,
		&l.Author.Phone,
		&l.Author.Role,
		&l.Author.CreatedAt,
		&l.Author.UpdatedAt,
	)
}

// isMissingRow treats a malformed UUID the same as an absent row so lookups by
// arbitrary client-supplied ids surface as not-found rather than a store error.
func isMissingRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
