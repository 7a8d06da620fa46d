package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// BookRepository defines the data access contract for books. Writes also
// keep the owner's snapshot list in step, atomically with the book itself.
type BookRepository interface {
	// Create inserts the book and appends its snapshot to the owner.
	// Returns NotFound if the owner does not exist.
	Create(ctx context.Context, book *Book) error
	FindByID(ctx context.Context, id string) (*Book, error)

	// TitleExists reports whether another book (not excludeID) has title.
	TitleExists(ctx context.Context, title, excludeID string) (bool, error)
	List(ctx context.Context) ([]Book, error)
	ListByOwner(ctx context.Context, userID string) ([]Book, error)

	// Update saves the book's fields and rewrites the owner's snapshot.
	Update(ctx context.Context, book *Book) error

	// Delete removes the book and the owner's snapshot of it.
	Delete(ctx context.Context, book *Book) error
}

// bookRepository implements BookRepository with MariaDB queries.
type bookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new book repository backed by the given DB pool.
func NewBookRepository(db *sql.DB) BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, description, created_by, created_at, updated_at`

// Create inserts a book row and appends the snapshot to users.books in one
// transaction. The owner row is locked first so concurrent writes to the
// same user's list serialize.
func (r *bookRepository) Create(ctx context.Context, book *Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create book tx: %w", err)
	}
	defer tx.Rollback()

	snapshots, err := lockSnapshots(ctx, tx, book.CreatedBy)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, book.ISBN, book.Desc,
		book.CreatedBy, book.CreatedAt, book.UpdatedAt,
	)
	if auth.IsDuplicateKey(err) {
		return apperror.NewConflict(fmt.Sprintf("a book titled %q already exists", book.Title))
	}
	if err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}

	snapshots = appendSnapshot(snapshots, book.Snapshot())
	if err := saveSnapshots(ctx, tx, book.CreatedBy, snapshots); err != nil {
		return err
	}

	return tx.Commit()
}

// FindByID retrieves a book by its UUID.
func (r *bookRepository) FindByID(ctx context.Context, id string) (*Book, error) {
	book, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying book by id: %w", err)
	}
	return book, nil
}

// TitleExists checks the unique title constraint ahead of a write.
func (r *bookRepository) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE title = ? AND id <> ?)`, title, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking title existence: %w", err)
	}
	return exists, nil
}

// List returns all books, oldest first.
func (r *bookRepository) List(ctx context.Context) ([]Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at ASC`)
}

// ListByOwner returns the books created by userID, oldest first.
func (r *bookRepository) ListByOwner(ctx context.Context, userID string) ([]Book, error) {
	return r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE created_by = ? ORDER BY created_at ASC`, userID,
	)
}

// Update writes the book's mutable fields and rewrites its snapshot.
func (r *bookRepository) Update(ctx context.Context, book *Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update book tx: %w", err)
	}
	defer tx.Rollback()

	snapshots, err := lockSnapshots(ctx, tx, book.CreatedBy)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, isbn = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		book.Title, book.Author, book.ISBN, book.Desc, book.UpdatedAt, book.ID,
	)
	if auth.IsDuplicateKey(err) {
		return apperror.NewConflict(fmt.Sprintf("a book titled %q already exists", book.Title))
	}
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MariaDB reports 0 for an unchanged row too; confirm it exists.
		var found bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, book.ID,
		).Scan(&found); err != nil {
			return fmt.Errorf("checking book existence: %w", err)
		}
		if !found {
			return apperror.NewNotFound("book not found")
		}
	}

	snapshots = replaceSnapshot(snapshots, book.Snapshot())
	if err := saveSnapshots(ctx, tx, book.CreatedBy, snapshots); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the book row and its snapshot.
func (r *bookRepository) Delete(ctx context.Context, book *Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete book tx: %w", err)
	}
	defer tx.Rollback()

	snapshots, err := lockSnapshots(ctx, tx, book.CreatedBy)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, book.ID)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("book not found")
	}

	snapshots = removeSnapshot(snapshots, book.ID)
	if err := saveSnapshots(ctx, tx, book.CreatedBy, snapshots); err != nil {
		return err
	}

	return tx.Commit()
}

// lockSnapshots reads and row-locks the owner's books column.
func lockSnapshots(ctx context.Context, tx *sql.Tx, userID string) ([]auth.BookSnapshot, error) {
	var data []byte
	err := tx.QueryRowContext(ctx,
		`SELECT books FROM users WHERE id = ? FOR UPDATE`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("locking owner snapshots: %w", err)
	}
	return auth.UnmarshalSnapshots(data)
}

func saveSnapshots(ctx context.Context, tx *sql.Tx, userID string, snapshots []auth.BookSnapshot) error {
	data, err := auth.MarshalSnapshots(snapshots)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET books = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, data, userID,
	); err != nil {
		return fmt.Errorf("saving owner snapshots: %w", err)
	}
	return nil
}

func (r *bookRepository) queryBooks(ctx context.Context, query string, args ...any) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book row: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	b := &Book{}
	if err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Desc,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return b, nil
}
