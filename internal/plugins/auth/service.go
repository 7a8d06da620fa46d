package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/sanitize"
)

// AuthService defines the business logic contract for authentication and
// the user directory. Handlers call these methods -- they never touch the
// repository or the session store directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (*Session, error)

	// GetProfile returns userID's record, but only to that same user.
	GetProfile(ctx context.Context, sessionUserID, userID string) (*User, error)
	CurrentUser(ctx context.Context, sessionUserID string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// authService implements AuthService with bcrypt hashing and a pluggable
// session store.
type authService struct {
	repo     UserRepository
	sessions SessionStore
	hasher   PasswordHasher
	now      func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, sessions SessionStore, hasher PasswordHasher) AuthService {
	return &authService{
		repo:     repo,
		sessions: sessions,
		hasher:   hasher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new user account. It validates uniqueness, hashes the
// password with bcrypt, generates a UUID, and persists the user.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := normalizeEmail(input.Email)
	fullName, err := sanitize.Text(input.FullName)
	if err != nil {
		return nil, apperror.NewValidation("fullName must not contain markup")
	}
	if fullName == "" {
		return nil, apperror.NewValidation("fullName is required")
	}
	if email == "" {
		return nil, apperror.NewValidation("email is required")
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("user already exists")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Books:        []BookSnapshot{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still guards against a racing registration.
	if err := s.repo.Create(ctx, user); err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user by email and password. On success it creates a
// new session and returns the session token for the cookie.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewNotFound("user email does not exist")
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return "", nil, apperror.NewInvalidCredentials("login credentials are invalid")
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, user, nil
}

// Logout destroys the session behind token. Store failures are logged, not
// returned: the caller's cookie is cleared either way.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		slog.Warn("failed to destroy session", slog.Any("error", err))
	}
	return nil
}

// ValidateSession resolves a session token without touching the user store.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	return s.sessions.Resolve(ctx, token)
}

// GetProfile returns the profile of userID. Only the user themself may read
// it through this path.
func (s *authService) GetProfile(ctx context.Context, sessionUserID, userID string) (*User, error) {
	if sessionUserID == "" {
		return nil, apperror.NewUnauthorized("please log in first")
	}
	if sessionUserID != userID {
		return nil, apperror.NewForbidden("you can only view your own profile")
	}
	return s.GetUser(ctx, userID)
}

// CurrentUser returns the record of the logged-in user.
func (s *authService) CurrentUser(ctx context.Context, sessionUserID string) (*User, error) {
	if sessionUserID == "" {
		return nil, apperror.NewUnauthorized("please log in first")
	}
	return s.GetUser(ctx, sessionUserID)
}

// GetUser returns a single user by ID.
func (s *authService) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// ListUsers returns every registered user.
func (s *authService) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing users: %w", err))
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
