package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/bookdir/internal/apperror"
)

// UserRepository defines the data access contract for user operations.
// Every backend-specific query lives in the concrete implementations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// FindByIDs returns the users with the given IDs; unknown IDs are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]User, error)

	// List returns every user, oldest first.
	List(ctx context.Context) ([]User, error)
}

// mysqlErrDuplicateEntry is MariaDB's ER_DUP_ENTRY.
const mysqlErrDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MariaDB unique-key violation.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// userColumns is the SELECT column list for users queries.
const userColumns = `id, full_name, email, password_hash, books, created_at, updated_at`

// Create inserts a new user row. A duplicate email is reported as a conflict.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	booksJSON, err := MarshalSnapshots(user.Books)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (id, full_name, email, password_hash, books, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		booksJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if IsDuplicateKey(err) {
		return apperror.NewConflict("user already exists")
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// FindByIDs loads several users in one query.
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders + `)`
	return r.queryUsers(ctx, query, args...)
}

// List returns all users ordered by creation date.
func (r *userRepository) List(ctx context.Context) ([]User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		booksJSON []byte
	)
	if err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&booksJSON,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	books, err := UnmarshalSnapshots(booksJSON)
	if err != nil {
		return nil, err
	}
	u.Books = books
	return &u, nil
}

// MarshalSnapshots encodes the users.books column. A nil list is stored as
// an empty JSON array.
func MarshalSnapshots(books []BookSnapshot) ([]byte, error) {
	if books == nil {
		books = []BookSnapshot{}
	}
	data, err := json.Marshal(books)
	if err != nil {
		return nil, fmt.Errorf("marshaling book snapshots: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshots decodes the users.books column.
func UnmarshalSnapshots(data []byte) ([]BookSnapshot, error) {
	books := []BookSnapshot{}
	if len(data) == 0 {
		return books, nil
	}
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("unmarshaling book snapshots: %w", err)
	}
	return books, nil
}
