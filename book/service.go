package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrOwnerOnly signals that the caller's role does not permit managing listings.
	ErrOwnerOnly = errors.New("book: only owners can manage listings")
	// ErrForbidden signals that the listing belongs to another user.
	ErrForbidden = errors.New("book: listing belongs to another user")
	// ErrValidation signals missing or malformed input.
	ErrValidation = errors.New("invalid input")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service enforces the listing ownership policy on top of the repository.
type Service struct {
	pool        TxBeginner
	repo        Repository
	idGenerator func() string
}

// NewService builds a listing service.
func NewService(pool TxBeginner, repo Repository) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		idGenerator: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides listing ID generation, mainly for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// Create adds a new listing authored by the actor. Only owners may create;
// the record is stamped with the actor's id and contact email.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (Book, error) {
	if actor.Role != RoleOwner {
		return Book{}, ErrOwnerOnly
	}

	missing := []string{}
	if strings.TrimSpace(params.Title) == "" {
		missing = append(missing, "title")
	}
	if params.Genre == "" {
		missing = append(missing, "genre")
	}
	if strings.TrimSpace(params.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(params.ImageURL) == "" {
		missing = append(missing, "imageUrl")
	}
	if len(missing) > 0 {
		return Book{}, fmt.Errorf("book: %w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !IsValidGenre(params.Genre) {
		return Book{}, fmt.Errorf("book: %w: unknown genre %q", ErrValidation, params.Genre)
	}

	b := Book{
		ID:       s.idGenerator(),
		Title:    strings.TrimSpace(params.Title),
		Genre:    params.Genre,
		City:     strings.TrimSpace(params.City),
		Contact:  actor.Email,
		ImageURL: strings.TrimSpace(params.ImageURL),
		AuthorID: actor.ID,
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return Book{}, err
	}

	return created, nil
}

// Get fetches a single listing by id. Any authenticated caller may read any
// listing.
func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	if id == "" {
		return Listing{}, fmt.Errorf("book: %w: missing book id", ErrValidation)
	}
	return s.repo.GetByID(ctx, id)
}

// Feed returns every listing except the viewer's own.
func (s *Service) Feed(ctx context.Context, viewerID string) ([]Listing, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("book: %w: missing viewer id", ErrValidation)
	}
	return s.repo.ListFeed(ctx, viewerID)
}

// ListByOwner returns the actor's own listings, newest first. Only owners
// have a dashboard of listings.
func (s *Service) ListByOwner(ctx context.Context, actor Actor) ([]Book, error) {
	if actor.Role != RoleOwner {
		return nil, ErrOwnerOnly
	}
	return s.repo.ListByAuthor(ctx, actor.ID)
}

// Update applies a partial patch to a listing the actor owns. The row is
// locked for the duration of the transaction so the ownership check and the
// write cannot interleave with a concurrent mutation.
func (s *Service) Update(ctx context.Context, actor Actor, id string, patch UpdateParams) (Book, error) {
	if id == "" {
		return Book{}, fmt.Errorf("book: %w: missing book id", ErrValidation)
	}
	patch = normalizePatch(patch)
	if patch.Title == nil && patch.Genre == nil && patch.City == nil && patch.ImageURL == nil {
		return Book{}, fmt.Errorf("book: %w: at least one of genre, title, city or imageUrl is required", ErrValidation)
	}
	if patch.Genre != nil && !IsValidGenre(*patch.Genre) {
		return Book{}, fmt.Errorf("book: %w: unknown genre %q", ErrValidation, *patch.Genre)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Book{}, fmt.Errorf("book: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Book{}, err
	}
	if existing.AuthorID != actor.ID {
		return Book{}, ErrForbidden
	}

	updated, err := s.repo.Update(ctx, tx, id, patch)
	if err != nil {
		return Book{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Book{}, fmt.Errorf("book: commit update: %w", err)
	}

	return updated, nil
}

// normalizePatch trims patch values and drops the empty ones. Every field is
// required non-empty at creation, so a partial update can never blank one; an
// empty value reads as absent, same as omitting the field.
func normalizePatch(patch UpdateParams) UpdateParams {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil
		}
		return &v
	}
	patch.Title = trim(patch.Title)
	patch.City = trim(patch.City)
	patch.ImageURL = trim(patch.ImageURL)
	if patch.Genre != nil && strings.TrimSpace(string(*patch.Genre)) == "" {
		patch.Genre = nil
	}
	return patch
}

// Delete removes a listing the actor owns. Deletion is physical and
// irreversible.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if id == "" {
		return fmt.Errorf("book: %w: missing book id", ErrValidation)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("book: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != actor.ID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("book: commit delete: %w", err)
	}

	return nil
}
