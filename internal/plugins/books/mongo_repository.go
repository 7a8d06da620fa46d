package books

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/keyxmakerx/bookdir/internal/apperror"
	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// BooksCollection is the MongoDB collection holding book documents.
const BooksCollection = "books"

// mongoBookRepository implements BookRepository on MongoDB. Writes touching
// both collections run in a multi-document transaction.
type mongoBookRepository struct {
	client *mongo.Client
	books  *mongo.Collection
	users  *mongo.Collection
}

// NewMongoBookRepository creates a book repository on db.
func NewMongoBookRepository(db *mongo.Database) BookRepository {
	return &mongoBookRepository{
		client: db.Client(),
		books:  db.Collection(BooksCollection),
		users:  db.Collection(auth.UsersCollection),
	}
}

// EnsureBookIndexes creates the unique title index and the owner index.
func EnsureBookIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(BooksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_books_title"),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index().SetName("idx_books_created_by"),
		},
	})
	if err != nil {
		return fmt.Errorf("creating books indexes: %w", err)
	}
	return nil
}

// withTransaction runs fn in a session transaction. AppErrors returned by fn
// abort the transaction and pass through unchanged.
func (r *mongoBookRepository) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// Create inserts the book and pushes its snapshot onto the owner document.
func (r *mongoBookRepository) Create(ctx context.Context, book *Book) error {
	return r.withTransaction(ctx, func(ctx context.Context) error {
		_, err := r.books.InsertOne(ctx, book)
		if mongo.IsDuplicateKeyError(err) {
			return apperror.NewConflict(fmt.Sprintf("a book titled %q already exists", book.Title))
		}
		if err != nil {
			return fmt.Errorf("inserting book: %w", err)
		}

		res, err := r.users.UpdateOne(ctx,
			bson.M{"_id": book.CreatedBy},
			bson.M{
				"$push": bson.M{"books": book.Snapshot()},
				"$set":  bson.M{"updatedAt": book.UpdatedAt},
			},
		)
		if err != nil {
			return fmt.Errorf("appending owner snapshot: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperror.NewNotFound("user not found")
		}
		return nil
	})
}

// FindByID retrieves a book by its UUID.
func (r *mongoBookRepository) FindByID(ctx context.Context, id string) (*Book, error) {
	var book Book
	err := r.books.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NewNotFound("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying book: %w", err)
	}
	return &book, nil
}

// TitleExists checks the unique title constraint ahead of a write.
func (r *mongoBookRepository) TitleExists(ctx context.Context, title, excludeID string) (bool, error) {
	filter := bson.M{"title": title, "_id": bson.M{"$ne": excludeID}}
	n, err := r.books.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking title existence: %w", err)
	}
	return n > 0, nil
}

// List returns all books, oldest first.
func (r *mongoBookRepository) List(ctx context.Context) ([]Book, error) {
	return r.find(ctx, bson.M{})
}

// ListByOwner returns the books created by userID, oldest first.
func (r *mongoBookRepository) ListByOwner(ctx context.Context, userID string) ([]Book, error) {
	return r.find(ctx, bson.M{"createdBy": userID})
}

func (r *mongoBookRepository) find(ctx context.Context, filter bson.M) ([]Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	var books []Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decoding books: %w", err)
	}
	return books, nil
}

// Update saves the book and rewrites the matching snapshot in place.
func (r *mongoBookRepository) Update(ctx context.Context, book *Book) error {
	return r.withTransaction(ctx, func(ctx context.Context) error {
		res, err := r.books.UpdateOne(ctx,
			bson.M{"_id": book.ID},
			bson.M{"$set": bson.M{
				"title":     book.Title,
				"author":    book.Author,
				"isbn":      book.ISBN,
				"desc":      book.Desc,
				"updatedAt": book.UpdatedAt,
			}},
		)
		if mongo.IsDuplicateKeyError(err) {
			return apperror.NewConflict(fmt.Sprintf("a book titled %q already exists", book.Title))
		}
		if err != nil {
			return fmt.Errorf("updating book: %w", err)
		}
		if res.MatchedCount == 0 {
			return apperror.NewNotFound("book not found")
		}

		if _, err := r.users.UpdateOne(ctx,
			bson.M{"_id": book.CreatedBy, "books.id": book.ID},
			bson.M{"$set": bson.M{
				"books.$":   book.Snapshot(),
				"updatedAt": book.UpdatedAt,
			}},
		); err != nil {
			return fmt.Errorf("rewriting owner snapshot: %w", err)
		}
		return nil
	})
}

// Delete removes the book and pulls its snapshot from the owner.
func (r *mongoBookRepository) Delete(ctx context.Context, book *Book) error {
	return r.withTransaction(ctx, func(ctx context.Context) error {
		res, err := r.books.DeleteOne(ctx, bson.M{"_id": book.ID})
		if err != nil {
			return fmt.Errorf("deleting book: %w", err)
		}
		if res.DeletedCount == 0 {
			return apperror.NewNotFound("book not found")
		}

		if _, err := r.users.UpdateOne(ctx,
			bson.M{"_id": book.CreatedBy},
			bson.M{"$pull": bson.M{"books": bson.M{"id": book.ID}}},
		); err != nil {
			return fmt.Errorf("removing owner snapshot: %w", err)
		}
		return nil
	})
}
