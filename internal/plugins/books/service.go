package books

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/sanitize"
)

// BookService handles business logic for the book directory.
type BookService interface {
	Create(ctx context.Context, sessionUserID string, input BookInput) (*Book, error)
	List(ctx context.Context) ([]BookWithOwner, error)
	Get(ctx context.Context, id string) (*Book, error)
	Update(ctx context.Context, sessionUserID, id string, input BookInput) (*Book, error)
	Delete(ctx context.Context, sessionUserID, id string) error
	ListByOwner(ctx context.Context, userID string) ([]Book, error)
}

type bookService struct {
	repo   BookRepository
	owners OwnerFinder
	now    func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(repo BookRepository, owners OwnerFinder) BookService {
	return &bookService{
		repo:   repo,
		owners: owners,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a book owned by the session user.
func (s *bookService) Create(ctx context.Context, sessionUserID string, input BookInput) (*Book, error) {
	if sessionUserID == "" {
		return nil, apperror.NewUnauthorized("please log in before creating a book")
	}

	input, err := cleanInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.checkTitle(ctx, input.Title, ""); err != nil {
		return nil, err
	}

	now := s.now()
	book := &Book{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Author:    input.Author,
		ISBN:      input.ISBN,
		Desc:      input.Desc,
		CreatedBy: sessionUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, wrapRepoError("creating book", err)
	}

	slog.Info("book created",
		slog.String("book_id", book.ID),
		slog.String("user_id", sessionUserID),
	)

	return book, nil
}

// List returns every book with its owner expanded. Owners are loaded in a
// single batch; a book whose owner is gone gets a nil owner.
func (s *bookService) List(ctx context.Context) ([]BookWithOwner, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing books: %w", err))
	}

	ids := make([]string, 0, len(books))
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		if !seen[b.CreatedBy] {
			seen[b.CreatedBy] = true
			ids = append(ids, b.CreatedBy)
		}
	}

	owners := map[string]Owner{}
	if len(ids) > 0 {
		owners, err = s.owners.FindOwners(ctx, ids)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("loading book owners: %w", err))
		}
	}

	out := make([]BookWithOwner, 0, len(books))
	for _, b := range books {
		item := BookWithOwner{Book: b}
		if owner, ok := owners[b.CreatedBy]; ok {
			item.CreatedBy = &owner
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns a single book.
func (s *bookService) Get(ctx context.Context, id string) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError("finding book", err)
	}
	return book, nil
}

// Update replaces all four editable fields. Only the owner may update.
func (s *bookService) Update(ctx context.Context, sessionUserID, id string, input BookInput) (*Book, error) {
	book, err := s.ownedBook(ctx, sessionUserID, id, "update")
	if err != nil {
		return nil, err
	}

	input, err = cleanInput(input)
	if err != nil {
		return nil, err
	}

	if input.Title != book.Title {
		if err := s.checkTitle(ctx, input.Title, book.ID); err != nil {
			return nil, err
		}
	}

	book.Title = input.Title
	book.Author = input.Author
	book.ISBN = input.ISBN
	book.Desc = input.Desc
	book.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, wrapRepoError("updating book", err)
	}

	slog.Info("book updated",
		slog.String("book_id", book.ID),
		slog.String("user_id", sessionUserID),
	)

	return book, nil
}

// Delete removes a book. Only the owner may delete.
func (s *bookService) Delete(ctx context.Context, sessionUserID, id string) error {
	book, err := s.ownedBook(ctx, sessionUserID, id, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, book); err != nil {
		return wrapRepoError("deleting book", err)
	}

	slog.Info("book deleted",
		slog.String("book_id", book.ID),
		slog.String("user_id", sessionUserID),
	)

	return nil
}

// ListByOwner returns the books created by userID straight from the books
// store. Returns NotFound for an unknown user.
func (s *bookService) ListByOwner(ctx context.Context, userID string) ([]Book, error) {
	if _, err := s.owners.FindOwner(ctx, userID); err != nil {
		return nil, wrapRepoError("finding owner", err)
	}

	books, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing books by owner: %w", err))
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// ownedBook loads a book and checks the session user created it.
func (s *bookService) ownedBook(ctx context.Context, sessionUserID, id, action string) (*Book, error) {
	if sessionUserID == "" {
		return nil, apperror.NewUnauthorized("please log in first")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError("finding book", err)
	}

	if book.CreatedBy != sessionUserID {
		return nil, apperror.NewForbidden("only the book's creator can " + action + " it")
	}
	return book, nil
}

func (s *bookService) checkTitle(ctx context.Context, title, excludeID string) error {
	exists, err := s.repo.TitleExists(ctx, title, excludeID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("checking title: %w", err))
	}
	if exists {
		return apperror.NewConflict(fmt.Sprintf("a book titled %q already exists", title))
	}
	return nil
}

// cleanInput trims every field and rejects fields that are empty or carry
// markup.
func cleanInput(in BookInput) (BookInput, error) {
	var out BookInput
	fields := []struct {
		name string
		src  string
		dst  *string
	}{
		{"title", in.Title, &out.Title},
		{"author", in.Author, &out.Author},
		{"isbn", in.ISBN, &out.ISBN},
		{"desc", in.Desc, &out.Desc},
	}
	for _, f := range fields {
		clean, err := sanitize.Text(f.src)
		if err != nil {
			return out, apperror.NewValidation(f.name + " must not contain markup")
		}
		if clean == "" {
			return out, apperror.NewValidation(f.name + " is required")
		}
		*f.dst = clean
	}
	return out, nil
}

// wrapRepoError passes AppErrors through and wraps everything else as 500.
func wrapRepoError(op string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}
