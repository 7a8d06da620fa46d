package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/middleware"
)

// Handler handles HTTP requests for authentication and the user directory.
// Handlers are thin: they bind the request, call the service, and render the
// response. No business logic lives here.
type Handler struct {
	service AuthService
	cookie  *SessionCookie
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, cookie *SessionCookie) *Handler {
	return &Handler{service: service, cookie: cookie}
}

// Register creates an account (POST /api/users/register). It does not log
// the new user in.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := middleware.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User Registered",
		"user":    user,
	})
}

// Login verifies credentials and sets the session cookie (POST /api/users/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := middleware.BindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	if err := h.cookie.Set(c, token); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Login success",
		"user":    user,
	})
}

// Logout destroys the session and clears the cookie (GET|POST /api/users/logout).
// It succeeds whether or not a session existed.
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		_ = h.service.Logout(c.Request().Context(), token)
	}
	h.cookie.Clear(c)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logout successfully",
	})
}

// ListUsers returns every user (GET /api/users).
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns one user (GET /api/users/:id).
func (h *Handler) GetUser(c echo.Context) error {
	user, err := h.service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Me returns the logged-in user (GET /api/users/me).
func (h *Handler) Me(c echo.Context) error {
	user, err := h.service.CurrentUser(c.Request().Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Profile returns the caller's own record (GET /api/users/profile/:id).
func (h *Handler) Profile(c echo.Context) error {
	user, err := h.service.GetProfile(c.Request().Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile is accepted for the caller's own id but changes nothing
// (PUT /api/users/:id).
func (h *Handler) UpdateProfile(c echo.Context) error {
	if _, err := h.service.GetProfile(c.Request().Context(), GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "profile updates are not supported",
	})
}
