package books

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// RegisterRoutes sets up the book routes on the API group. Reads are open;
// writes require a session, and ownership is checked in the service.
func RegisterRoutes(api *echo.Group, h *Handler) {
	books := api.Group("/books")
	books.GET("", h.List)
	books.GET("/:id", h.Get)
	books.POST("", h.Create, auth.RequireAuth())
	books.PUT("/:id", h.Update, auth.RequireAuth())
	books.DELETE("/:id", h.Delete, auth.RequireAuth())

	api.GET("/users/:id/books", h.ListByOwner)
}
