package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookmarket/auth"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

const contextKeyUser = "user"

// requireAuth resolves the session cookie to a full user record and stores it
// in the request context. Requests without a valid token never reach handlers.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}

		user, err := s.auth.Identify(c.Request().Context(), token)
		if err != nil {
			// A token pointing at a vanished user is treated like any other
			// invalid credential here.
			return s.respondAuthFailure(c, err)
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

func (s *Server) respondAuthFailure(c echo.Context, err error) error {
	return respond(c, http.StatusUnauthorized, err.Error(), nil)
}

// userFromContext retrieves the authenticated user placed by requireAuth.
func userFromContext(c echo.Context) *auth.User {
	user, ok := c.Get(contextKeyUser).(*auth.User)
	if !ok {
		return nil
	}
	return user
}

// sessionCookie builds the credential cookie; ttlSeconds < 0 clears it.
func (s *Server) sessionCookie(value string, ttlSeconds int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   ttlSeconds,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.cookieSecure,
	}
}
