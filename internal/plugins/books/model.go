// Package books manages the book directory. Any visitor can read books;
// creating one needs a session, and only the creator may change or delete
// it. Every write also maintains the denormalized snapshot list on the
// owner's user record, inside the same transaction as the book itself.
package books

import (
	"time"

	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// Book is the authoritative book record.
type Book struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Author    string    `json:"author" bson:"author"`
	ISBN      string    `json:"isbn" bson:"isbn"`
	Desc      string    `json:"desc" bson:"desc"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Snapshot returns the copy of b embedded on its owner's user record.
func (b *Book) Snapshot() auth.BookSnapshot {
	return auth.BookSnapshot{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Desc:      b.Desc,
		CreatedAt: b.CreatedAt,
	}
}

// Owner is the public view of a book's creator.
type Owner struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookWithOwner is a book whose createdBy is expanded to the owner's public
// fields. The outer CreatedBy shadows Book.CreatedBy when marshaled.
// Owner is nil if the user no longer exists.
type BookWithOwner struct {
	Book
	CreatedBy *Owner `json:"createdBy"`
}

// --- Request DTOs ---

// BookRequest is the body of both create and update. Every field is
// required; partial updates are rejected.
type BookRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
	ISBN   string `json:"isbn" validate:"required,max=32"`
	Desc   string `json:"desc" validate:"required,max=5000"`
}

// BookInput is the validated input for creating or updating a book.
type BookInput struct {
	Title  string
	Author string
	ISBN   string
	Desc   string
}

// --- Snapshot list helpers ---

// appendSnapshot adds snap to the end of list.
func appendSnapshot(list []auth.BookSnapshot, snap auth.BookSnapshot) []auth.BookSnapshot {
	return append(list, snap)
}

// replaceSnapshot rewrites the entry with snap's ID in place, keeping its
// position. The list is unchanged if no entry matches.
func replaceSnapshot(list []auth.BookSnapshot, snap auth.BookSnapshot) []auth.BookSnapshot {
	for i := range list {
		if list[i].ID == snap.ID {
			list[i] = snap
		}
	}
	return list
}

// removeSnapshot drops every entry with the given book ID.
func removeSnapshot(list []auth.BookSnapshot, bookID string) []auth.BookSnapshot {
	out := list[:0]
	for _, s := range list {
		if s.ID != bookID {
			out = append(out, s)
		}
	}
	return out
}
