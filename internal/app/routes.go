package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
	"github.com/keyxmakerx/bookdir/internal/plugins/books"
)

// RegisterRoutes sets up all application routes. It builds each plugin's
// service and handler from the App's stores and delegates to the plugin's
// route registration function.
//
// This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check for Docker health monitoring. 503 if any store is down.
	e.GET("/healthz", func(c echo.Context) error {
		status, healthy := a.Stores.Health.Check(c.Request().Context())
		code := http.StatusOK
		overall := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			overall = "unavailable"
		}
		return c.JSON(code, map[string]any{
			"status": overall,
			"checks": status,
		})
	})

	// --- Plugin wiring ---

	cookie := auth.NewSessionCookie(a.Config.Session.Secret, a.Config.Session.TTL)
	authService := auth.NewAuthService(a.Stores.Users, a.Stores.Sessions, auth.NewBcryptHasher())
	authHandler := auth.NewHandler(authService, cookie)

	bookService := books.NewBookService(a.Stores.Books, books.NewOwnerFinderAdapter(a.Stores.Users))
	bookHandler := books.NewHandler(bookService)

	// Every API route sees the caller's session if there is one; routes
	// that need it add auth.RequireAuth.
	api := e.Group("/api", auth.LoadSession(authService, cookie))

	auth.RegisterRoutes(api, authHandler)
	books.RegisterRoutes(api, bookHandler)
}
