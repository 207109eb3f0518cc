package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookmarket/auth"
)

func (s *Server) handleRegister(c echo.Context) error {
	var req auth.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid request body", nil)
	}

	if _, err := s.auth.Register(c.Request().Context(), req); err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusCreated, "Account created successfully", nil)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid request body", nil)
	}

	result, err := s.auth.Login(c.Request().Context(), req)
	if err != nil {
		return s.respondError(c, err)
	}

	c.SetCookie(s.sessionCookie(result.Token, int(auth.TokenTTL.Seconds())))

	return respond(c, http.StatusOK, fmt.Sprintf("Welcome back, %s", result.User.Name), map[string]any{
		"user": toUserJSON(&result.User),
	})
}

// handleLogout clears the cookie client-side. The token itself stays valid
// until its natural expiry; there is no server-side revocation list.
func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(s.sessionCookie("", -1))
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	user := userFromContext(c)
	return respond(c, http.StatusOK, "User profile fetched", map[string]any{
		"user": toUserJSON(user),
	})
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	user := userFromContext(c)

	var req auth.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid request body", nil)
	}

	updated, err := s.auth.UpdateProfile(c.Request().Context(), user.ID, req)
	if err != nil {
		return s.respondError(c, err)
	}

	return respond(c, http.StatusOK, "Profile updated successfully", map[string]any{
		"user": toUserJSON(updated),
	})
}
