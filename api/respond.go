package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bookmarket/auth"
	"bookmarket/book"
)

// respond writes the uniform response envelope. Extra payload keys are merged
// next to success and message.
func respond(c echo.Context, status int, message string, payload map[string]any) error {
	body := map[string]any{
		"success": status < http.StatusBadRequest,
		"message": message,
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// respondError maps domain errors onto the HTTP taxonomy. Unrecognized errors
// become a generic 500 so internals never leak to clients.
func (s *Server) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrValidation),
		errors.Is(err, book.ErrValidation),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrDuplicateEmail),
		errors.Is(err, auth.ErrInvalidCredentials):
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return respond(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, book.ErrOwnerOnly), errors.Is(err, book.ErrForbidden):
		return respond(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, book.ErrNotFound):
		return respond(c, http.StatusNotFound, "Book not found", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		return respond(c, http.StatusNotFound, "User not found", nil)
	default:
		s.log.Error("internal error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		return respond(c, http.StatusInternalServerError, "Internal Server Error", nil)
	}
}

// requestLogger emits one structured log line per request.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info("request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

// userJSON is the credential-free wire shape of a user.
type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phoneNumber"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserJSON(u *auth.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// bookJSON is the wire shape of a listing; author holds the bare author id.
type bookJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	City      string    `json:"city"`
	Contact   string    `json:"contact"`
	ImageURL  string    `json:"imageUrl"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toBookJSON(b book.Book) bookJSON {
	return bookJSON{
		ID:        b.ID,
		Title:     b.Title,
		Genre:     string(b.Genre),
		City:      b.City,
		Contact:   b.Contact,
		ImageURL:  b.ImageURL,
		Author:    b.AuthorID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// listingJSON is a listing with the author profile expanded.
type listingJSON struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Genre     string     `json:"genre"`
	City      string     `json:"city"`
	Contact   string     `json:"contact"`
	ImageURL  string     `json:"imageUrl"`
	Author    authorJSON `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type authorJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phoneNumber"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toListingJSON(l book.Listing) listingJSON {
	return listingJSON{
		ID:       l.ID,
		Title:    l.Title,
		Genre:    string(l.Genre),
		City:     l.City,
		Contact:  l.Contact,
		ImageURL: l.ImageURL,
		Author: authorJSON{
			ID:        l.Author.ID,
			Name:      l.Author.Name,
			Email:     l.Author.Email,
			Phone:     l.Author.Phone,
			Role:      l.Author.Role,
			CreatedAt: l.Author.CreatedAt,
			UpdatedAt: l.Author.UpdatedAt,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toListingsJSON(listings []book.Listing) []listingJSON {
	out := make([]listingJSON, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingJSON(l))
	}
	return out
}

func toBooksJSON(books []book.Book) []bookJSON {
	out := make([]bookJSON, 0, len(books))
	for _, b := range books {
		out = append(out, toBookJSON(b))
	}
	return out
}
