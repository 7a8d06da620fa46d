package books

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bookdir/internal/middleware"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// Handler handles HTTP requests for books.
type Handler struct {
	service BookService
}

// NewHandler creates a new book handler.
func NewHandler(service BookService) *Handler {
	return &Handler{service: service}
}

// Create adds a book (POST /api/books).
func (h *Handler) Create(c echo.Context) error {
	var req BookRequest
	if err := middleware.BindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), inputFromRequest(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Book created",
		"book":    book,
	})
}

// List returns all books with owners (GET /api/books).
func (h *Handler) List(c echo.Context) error {
	books, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// Get returns one book (GET /api/books/:id).
func (h *Handler) Get(c echo.Context) error {
	book, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Update replaces a book's fields (PUT /api/books/:id).
func (h *Handler) Update(c echo.Context) error {
	var req BookRequest
	if err := middleware.BindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), c.Param("id"), inputFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Delete removes a book (DELETE /api/books/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Book deleted",
	})
}

// ListByOwner returns a user's books (GET /api/users/:id/books).
func (h *Handler) ListByOwner(c echo.Context) error {
	books, err := h.service.ListByOwner(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func inputFromRequest(req BookRequest) BookInput {
	return BookInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Desc:   req.Desc,
	}
}
