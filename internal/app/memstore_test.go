package app

import (
	"context"
	"sort"
	"sync"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
	"github.com/keyxmakerx/bookdir/internal/plugins/books"
)

// memStore is an in-memory stand-in for both databases. It enforces the
// same unique keys and keeps the users' book snapshots in step the way the
// real repositories do.
type memStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
	books map[string]*books.Book
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*auth.User),
		books: make(map[string]*books.Book),
	}
}

func (s *memStore) userRepo() auth.UserRepository { return &memUserRepo{s} }
func (s *memStore) bookRepo() books.BookRepository { return &memBookRepo{s} }

func (s *memStore) user(id string) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	cp.Books = append([]auth.BookSnapshot(nil), u.Books...)
	return &cp
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperror.NewConflict("user already exists")
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if u := r.s.user(id); u != nil {
		return u, nil
	}
	return nil, apperror.NewNotFound("user not found")
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (r *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUserRepo) FindByIDs(ctx context.Context, ids []string) ([]auth.User, error) {
	var out []auth.User
	for _, id := range ids {
		if u := r.s.user(id); u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) List(ctx context.Context) ([]auth.User, error) {
	r.s.mu.Lock()
	var out []auth.User
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memBookRepo struct{ s *memStore }

func (r *memBookRepo) Create(ctx context.Context, book *books.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owner, ok := r.s.users[book.CreatedBy]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	for _, b := range r.s.books {
		if b.Title == book.Title {
			return apperror.NewConflict("duplicate title")
		}
	}
	cp := *book
	r.s.books[book.ID] = &cp
	owner.Books = append(owner.Books, book.Snapshot())
	return nil
}

func (r *memBookRepo) FindByID(ctx context.Context, id string) (*books.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, apperror.NewNotFound("book not found")
	}
	cp := *b
	return &cp, nil
}

func (r *memBookRepo) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.books {
		if b.Title == title && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookRepo) List(ctx context.Context) ([]books.Book, error) {
	return r.filter(func(*books.Book) bool { return true }), nil
}

func (r *memBookRepo) ListByOwner(ctx context.Context, userID string) ([]books.Book, error) {
	return r.filter(func(b *books.Book) bool { return b.CreatedBy == userID }), nil
}

func (r *memBookRepo) filter(keep func(*books.Book) bool) []books.Book {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []books.Book
	for _, b := range r.s.books {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memBookRepo) Update(ctx context.Context, book *books.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[book.ID]; !ok {
		return apperror.NewNotFound("book not found")
	}
	cp := *book
	r.s.books[book.ID] = &cp
	if owner, ok := r.s.users[book.CreatedBy]; ok {
		for i := range owner.Books {
			if owner.Books[i].ID == book.ID {
				owner.Books[i] = book.Snapshot()
			}
		}
	}
	return nil
}

func (r *memBookRepo) Delete(ctx context.Context, book *books.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[book.ID]; !ok {
		return apperror.NewNotFound("book not found")
	}
	delete(r.s.books, book.ID)
	if owner, ok := r.s.users[book.CreatedBy]; ok {
		kept := owner.Books[:0]
		for _, snap := range owner.Books {
			if snap.ID != book.ID {
				kept = append(kept, snap)
			}
		}
		owner.Books = kept
	}
	return nil
}
