package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/middleware"
)

// RegisterRoutes sets up the /users routes on the API group. The group must
// already run LoadSession; routes that need a session add RequireAuth.
//
// Login and register are rate-limited to slow down brute-force and
// credential stuffing: 10 attempts per IP per minute for login, 5 for
// register.
func RegisterRoutes(api *echo.Group, h *Handler) {
	users := api.Group("/users")

	users.POST("/register", h.Register, middleware.RateLimit(5, time.Minute))
	users.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	users.GET("/logout", h.Logout)
	users.POST("/logout", h.Logout)

	users.GET("", h.ListUsers)
	users.GET("/me", h.Me, RequireAuth())
	users.GET("/profile/:id", h.Profile, RequireAuth())
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateProfile, RequireAuth())
}
