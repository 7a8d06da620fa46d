package books

import (
	"context"
	"errors"
	"testing"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// --- Mock Repository ---

// mockBookRepo implements BookRepository for testing.
type mockBookRepo struct {
	createFn      func(ctx context.Context, book *Book) error
	findByIDFn    func(ctx context.Context, id string) (*Book, error)
	titleExistsFn func(ctx context.Context, title, excludeID string) (bool, error)
	listFn        func(ctx context.Context) ([]Book, error)
	listByOwnerFn func(ctx context.Context, userID string) ([]Book, error)
	updateFn      func(ctx context.Context, book *Book) error
	deleteFn      func(ctx context.Context, book *Book) error
}

func (m *mockBookRepo) Create(ctx context.Context, book *Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	return nil
}

func (m *mockBookRepo) FindByID(ctx context.Context, id string) (*Book, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("book not found")
}

func (m *mockBookRepo) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	if m.titleExistsFn != nil {
		return m.titleExistsFn(ctx, title, excludeID)
	}
	return false, nil
}

func (m *mockBookRepo) List(ctx context.Context) ([]Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockBookRepo) ListByOwner(ctx context.Context, userID string) ([]Book, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookRepo) Update(ctx context.Context, book *Book) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, book)
	}
	return nil
}

func (m *mockBookRepo) Delete(ctx context.Context, book *Book) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, book)
	}
	return nil
}

// --- Mock Owner Finder ---

type mockOwnerFinder struct {
	owners     map[string]Owner
	batchCalls int
}

func (m *mockOwnerFinder) FindOwner(ctx context.Context, id string) (*Owner, error) {
	o, ok := m.owners[id]
	if !ok {
		return nil, apperror.NewNotFound("user not found")
	}
	return &o, nil
}

func (m *mockOwnerFinder) FindOwners(ctx context.Context, ids []string) (map[string]Owner, error) {
	m.batchCalls++
	out := make(map[string]Owner)
	for _, id := range ids {
		if o, ok := m.owners[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

// --- Test Helpers ---

func newTestService(repo *mockBookRepo) *bookService {
	owners := &mockOwnerFinder{owners: map[string]Owner{
		"user-1": {ID: "user-1", FullName: "Ada", Email: "ada@example.com"},
		"user-2": {ID: "user-2", FullName: "Grace", Email: "grace@example.com"},
	}}
	return NewBookService(repo, owners).(*bookService)
}

func validInput() BookInput {
	return BookInput{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "978-0441013593",
		Desc:   "Spice and sandworms.",
	}
}

func ownedBy(userID string) func(ctx context.Context, id string) (*Book, error) {
	return func(ctx context.Context, id string) (*Book, error) {
		return &Book{ID: id, Title: "Dune", Author: "Frank Herbert", ISBN: "1", Desc: "d", CreatedBy: userID}, nil
	}
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	var saved *Book
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *Book) error {
			saved = book
			return nil
		},
	}
	svc := newTestService(repo)

	book, err := svc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.CreatedBy != "user-1" {
		t.Errorf("expected createdBy user-1, got %s", book.CreatedBy)
	}
	if book.ID == "" {
		t.Error("expected a generated ID")
	}
	if saved != book {
		t.Error("expected the returned book to be the persisted one")
	}
}

func TestCreate_NoSession(t *testing.T) {
	called := false
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *Book) error {
			called = true
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "", validInput())
	assertAppError(t, err, 401)
	if called {
		t.Error("repository must not be called without a session")
	}
}

func TestCreate_DuplicateTitle(t *testing.T) {
	repo := &mockBookRepo{
		titleExistsFn: func(ctx context.Context, title, excludeID string) (bool, error) {
			return title == "Dune", nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1", validInput())
	assertAppError(t, err, 409)
}

func TestCreate_DuplicateKeyFromStore(t *testing.T) {
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *Book) error {
			return apperror.NewConflict("a book titled \"Dune\" already exists")
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1", validInput())
	assertAppError(t, err, 409)
}

func TestCreate_RejectsMarkup(t *testing.T) {
	for _, title := range []string{
		"<b>Dune</b>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"a<b",
	} {
		repo := &mockBookRepo{
			createFn: func(ctx context.Context, book *Book) error {
				t.Errorf("store called for title %q", book.Title)
				return nil
			},
		}
		svc := newTestService(repo)

		in := validInput()
		in.Title = title
		_, err := svc.Create(context.Background(), "user-1", in)
		assertAppError(t, err, 422)
	}
}

func TestCreate_KeepsPlainTextExact(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	in := validInput()
	in.Title = "  Tom & Jerry: 1 < 2  "
	book, err := svc.Create(context.Background(), "user-1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Title != "Tom & Jerry: 1 < 2" {
		t.Errorf("expected title kept as typed, got %q", book.Title)
	}
}

func TestCreate_BlankField(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	in := validInput()
	in.Desc = "   "
	_, err := svc.Create(context.Background(), "user-1", in)
	assertAppError(t, err, 422)
}

func TestCreate_StoreFailure(t *testing.T) {
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *Book) error {
			return errors.New("deadlock")
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1", validInput())
	assertAppError(t, err, 500)
}

// --- List Tests ---

func TestList_JoinsOwnersInOneBatch(t *testing.T) {
	repo := &mockBookRepo{
		listFn: func(ctx context.Context) ([]Book, error) {
			return []Book{
				{ID: "b1", Title: "A", CreatedBy: "user-1"},
				{ID: "b2", Title: "B", CreatedBy: "user-2"},
				{ID: "b3", Title: "C", CreatedBy: "user-1"},
				{ID: "b4", Title: "D", CreatedBy: "ghost"},
			}, nil
		},
	}
	svc := newTestService(repo)
	owners := svc.owners.(*mockOwnerFinder)

	books, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(books) != 4 {
		t.Fatalf("expected 4 books, got %d", len(books))
	}
	if owners.batchCalls != 1 {
		t.Errorf("expected one batched owner lookup, got %d", owners.batchCalls)
	}
	if books[0].CreatedBy == nil || books[0].CreatedBy.FullName != "Ada" {
		t.Errorf("expected owner Ada on first book, got %+v", books[0].CreatedBy)
	}
	if books[1].CreatedBy == nil || books[1].CreatedBy.ID != "user-2" {
		t.Errorf("expected owner user-2 on second book, got %+v", books[1].CreatedBy)
	}
	if books[3].CreatedBy != nil {
		t.Errorf("expected nil owner for a missing user, got %+v", books[3].CreatedBy)
	}
}

func TestList_Empty(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	owners := svc.owners.(*mockOwnerFinder)

	books, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Errorf("expected empty non-nil list, got %v", books)
	}
	if owners.batchCalls != 0 {
		t.Error("no owner lookup expected for an empty list")
	}
}

// --- Get Tests ---

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	_, err := svc.Get(context.Background(), "missing")
	assertAppError(t, err, 404)
}

// --- Update Tests ---

func TestUpdate_Owner(t *testing.T) {
	var saved *Book
	repo := &mockBookRepo{
		findByIDFn: ownedBy("user-1"),
		updateFn: func(ctx context.Context, book *Book) error {
			saved = book
			return nil
		},
	}
	svc := newTestService(repo)

	in := validInput()
	in.Title = "Dune Messiah"
	book, err := svc.Update(context.Background(), "user-1", "b1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Title != "Dune Messiah" || saved.Title != "Dune Messiah" {
		t.Errorf("expected title updated, got %q", book.Title)
	}
	if book.CreatedBy != "user-1" {
		t.Error("owner must not change on update")
	}
}

func TestUpdate_NotOwner(t *testing.T) {
	repo := &mockBookRepo{findByIDFn: ownedBy("user-1")}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "user-2", "b1", validInput())
	assertAppError(t, err, 403)
}

func TestUpdate_NoSession(t *testing.T) {
	repo := &mockBookRepo{findByIDFn: ownedBy("user-1")}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "", "b1", validInput())
	assertAppError(t, err, 401)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	_, err := svc.Update(context.Background(), "user-1", "missing", validInput())
	assertAppError(t, err, 404)
}

func TestUpdate_RenameOntoExistingTitle(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: ownedBy("user-1"),
		titleExistsFn: func(ctx context.Context, title, excludeID string) (bool, error) {
			if excludeID != "b1" {
				t.Errorf("expected the book itself to be excluded, got %q", excludeID)
			}
			return title == "Neuromancer", nil
		},
	}
	svc := newTestService(repo)

	in := validInput()
	in.Title = "Neuromancer"
	_, err := svc.Update(context.Background(), "user-1", "b1", in)
	assertAppError(t, err, 409)
}

func TestUpdate_PartialRejected(t *testing.T) {
	repo := &mockBookRepo{findByIDFn: ownedBy("user-1")}
	svc := newTestService(repo)

	in := validInput()
	in.Author = ""
	_, err := svc.Update(context.Background(), "user-1", "b1", in)
	assertAppError(t, err, 422)
}

// --- Delete Tests ---

func TestDelete_Owner(t *testing.T) {
	var deleted *Book
	repo := &mockBookRepo{
		findByIDFn: ownedBy("user-1"),
		deleteFn: func(ctx context.Context, book *Book) error {
			deleted = book
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), "user-1", "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted == nil || deleted.ID != "b1" || deleted.CreatedBy != "user-1" {
		t.Errorf("expected b1 owned by user-1 to be deleted, got %+v", deleted)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: ownedBy("user-1"),
		deleteFn: func(ctx context.Context, book *Book) error {
			t.Error("delete must not reach the store for a non-owner")
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "user-2", "b1")
	assertAppError(t, err, 403)
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	err := svc.Delete(context.Background(), "user-1", "missing")
	assertAppError(t, err, 404)
}

func TestDelete_NoSession(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	err := svc.Delete(context.Background(), "", "b1")
	assertAppError(t, err, 401)
}

// --- ListByOwner Tests ---

func TestListByOwner_UnknownUser(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	_, err := svc.ListByOwner(context.Background(), "ghost")
	assertAppError(t, err, 404)
}

func TestListByOwner_Empty(t *testing.T) {
	svc := newTestService(&mockBookRepo{})
	books, err := svc.ListByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if books == nil {
		t.Error("expected empty slice, got nil")
	}
}

// --- Snapshot Helper Tests ---

func TestSnapshotHelpers(t *testing.T) {
	list := []auth.BookSnapshot{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}

	list = appendSnapshot(list, auth.BookSnapshot{ID: "c", Title: "C"})
	if len(list) != 3 || list[2].ID != "c" {
		t.Fatalf("append: got %+v", list)
	}

	list = replaceSnapshot(list, auth.BookSnapshot{ID: "b", Title: "B2"})
	if list[1].Title != "B2" {
		t.Errorf("replace: expected B2 at index 1, got %+v", list[1])
	}

	list = removeSnapshot(list, "a")
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "c" {
		t.Errorf("remove: got %+v", list)
	}

	list = removeSnapshot(list, "missing")
	if len(list) != 2 {
		t.Errorf("removing an unknown id must not change the list, got %+v", list)
	}
}
