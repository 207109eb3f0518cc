package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookmarket/book"
)

type addBookRequest struct {
	Title    string     `json:"title"`
	Genre    book.Genre `json:"genre"`
	City     string     `json:"city"`
	ImageURL string     `json:"imageUrl"`
}

type updateBookRequest struct {
	Title    *string     `json:"title"`
	Genre    *book.Genre `json:"genre"`
	City     *string     `json:"city"`
	ImageURL *string     `json:"imageUrl"`
}

func actorFromContext(c echo.Context) book.Actor {
	user := userFromContext(c)
	return book.Actor{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

func (s *Server) handleAddBook(c echo.Context) error {
	var req addBookRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid request body", nil)
	}

	created, err := s.books.Create(c.Request().Context(), actorFromContext(c), book.CreateParams{
		Title:    req.Title,
		Genre:    req.Genre,
		City:     req.City,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusCreated, "New book added successfully", map[string]any{
		"book": toBookJSON(created),
	})
}

func (s *Server) handleGetBook(c echo.Context) error {
	listing, err := s.books.Get(c.Request().Context(), c.Param("bookId"))
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Book fetched successfully", map[string]any{
		"book": toListingJSON(listing),
	})
}

func (s *Server) handleDeleteBook(c echo.Context) error {
	if err := s.books.Delete(c.Request().Context(), actorFromContext(c), c.Param("bookId")); err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Book deleted successfully", nil)
}

func (s *Server) handleOwnerBooks(c echo.Context) error {
	books, err := s.books.ListByOwner(c.Request().Context(), actorFromContext(c))
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Successfully fetched books", map[string]any{
		"books": toBooksJSON(books),
	})
}

func (s *Server) handleBooksFeed(c echo.Context) error {
	listings, err := s.books.Feed(c.Request().Context(), userFromContext(c).ID)
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Books feed fetched successfully", map[string]any{
		"books": toListingsJSON(listings),
	})
}

func (s *Server) handleUpdateBook(c echo.Context) error {
	var req updateBookRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid request body", nil)
	}

	updated, err := s.books.Update(c.Request().Context(), actorFromContext(c), c.Param("bookId"), book.UpdateParams{
		Title:    req.Title,
		Genre:    req.Genre,
		City:     req.City,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Book updated successfully", map[string]any{
		"book": toBookJSON(updated),
	})
}
