// Package auth handles user registration, login, logout, and the session
// layer every other plugin uses to identify the caller. Sessions are opaque
// random tokens kept in Redis; the browser only holds a signed cookie
// carrying the token.
//
// This is a CORE plugin: the books plugin depends on RequireAuth and
// GetUserID from here.
package auth

import (
	"time"
)

// User represents a registered user. This is the domain model used throughout
// the application; both storage backends and JSON marshaling use it directly.
type User struct {
	ID           string         `json:"id" bson:"_id"`
	FullName     string         `json:"fullName" bson:"fullName"`
	Email        string         `json:"email" bson:"email"`
	PasswordHash string         `json:"-" bson:"password"` // Never expose in JSON responses.
	Books        []BookSnapshot `json:"books" bson:"books"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// BookSnapshot is the denormalized copy of a book embedded on its owner's
// user record. The books plugin keeps it in step with the books store.
type BookSnapshot struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Author    string    `json:"author" bson:"author"`
	ISBN      string    `json:"isbn" bson:"isbn"`
	Desc      string    `json:"desc" bson:"desc"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the registration payload. Passwords are capped at
// 72 bytes, the most bcrypt will look at.
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest holds the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// --- Session ---

// Session is the server-side record behind a session cookie. It holds only
// the user ID; anything else about the user is re-read from the store so
// it never goes stale.
type Session struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
