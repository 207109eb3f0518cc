package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"bookmarket/auth"
	"bookmarket/book"
)

// Server wires the HTTP layer to the identity and listing services.
type Server struct {
	auth         *auth.Service
	books        *book.Service
	log          *zap.Logger
	cookieSecure bool
}

// NewServer builds the HTTP server facade.
func NewServer(authSvc *auth.Service, bookSvc *book.Service, logger *zap.Logger, cookieSecure bool) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		auth:         authSvc,
		books:        bookSvc,
		log:          logger,
		cookieSecure: cookieSecure,
	}
}

// Echo assembles the router with middleware and all routes mounted under /api/v1.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.requestLogger)

	v1 := e.Group("/api/v1")

	users := v1.Group("/user")
	users.POST("/register", s.handleRegister)
	users.POST("/login", s.handleLogin)
	users.GET("/logout", s.handleLogout, s.requireAuth)
	users.GET("/profile", s.handleGetProfile, s.requireAuth)
	users.PUT("/profile", s.handleUpdateProfile, s.requireAuth)

	books := v1.Group("/book", s.requireAuth)
	books.POST("/add-book", s.handleAddBook)
	books.GET("/get-book/:bookId", s.handleGetBook)
	books.DELETE("/delete-book/:bookId", s.handleDeleteBook)
	books.GET("/owner/get-books", s.handleOwnerBooks)
	books.GET("/get-books-feed", s.handleBooksFeed)
	books.PUT("/update-book-owner/:bookId", s.handleUpdateBook)

	return e
}
