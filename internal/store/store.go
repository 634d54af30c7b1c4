// Package store persists catalogue snapshots. Every backend keeps two named
// JSON documents, one holding the books and one holding the reviews.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"bookcatalogue/internal/catalogue"
)

const (
	BooksDocument   = "books"
	ReviewsDocument = "reviews"
)

// Backend is a catalogue.Store that owns a connection or file handle.
type Backend interface {
	catalogue.Store
	Ping(ctx context.Context) error
	Close() error
}

// documentIO reads and replaces a whole named document.
type documentIO interface {
	readDocument(ctx context.Context, name string) ([]byte, error)
	writeDocument(ctx context.Context, name string, body []byte) error
}

// snapshots implements catalogue.Store on top of a documentIO.
type snapshots struct {
	io documentIO
}

type booksDocument struct {
	Books *catalogue.BookCollection `json:"books"`
}

type reviewsDocument struct {
	Reviews *catalogue.ReviewCollection `json:"reviews"`
}

func (s snapshots) LoadBooks(ctx context.Context) (catalogue.BookCollection, error) {
	body, err := s.io.readDocument(ctx, BooksDocument)
	if err != nil {
		return nil, unavailable("read", BooksDocument, err)
	}
	return decodeBooks(body)
}

func (s snapshots) LoadReviews(ctx context.Context) (catalogue.ReviewCollection, error) {
	body, err := s.io.readDocument(ctx, ReviewsDocument)
	if err != nil {
		return nil, unavailable("read", ReviewsDocument, err)
	}
	return decodeReviews(body)
}

func (s snapshots) SaveBooks(ctx context.Context, books catalogue.BookCollection) error {
	body, err := encodeBooks(books)
	if err != nil {
		return err
	}
	if err := s.io.writeDocument(ctx, BooksDocument, body); err != nil {
		return unavailable("write", BooksDocument, err)
	}
	return nil
}

func (s snapshots) SaveReviews(ctx context.Context, reviews catalogue.ReviewCollection) error {
	body, err := encodeReviews(reviews)
	if err != nil {
		return err
	}
	if err := s.io.writeDocument(ctx, ReviewsDocument, body); err != nil {
		return unavailable("write", ReviewsDocument, err)
	}
	return nil
}

func unavailable(op, document string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", catalogue.ErrStorageUnavailable, op, document, err)
}

func corrupt(document string, reason any) error {
	return fmt.Errorf("%w: %s document: %v", catalogue.ErrCorruptData, document, reason)
}

func encodeBooks(books catalogue.BookCollection) ([]byte, error) {
	if books == nil {
		books = catalogue.BookCollection{}
	}
	body, err := json.MarshalIndent(booksDocument{Books: &books}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode books: %w", err)
	}
	return body, nil
}

func encodeReviews(reviews catalogue.ReviewCollection) ([]byte, error) {
	if reviews == nil {
		reviews = catalogue.ReviewCollection{}
	}
	body, err := json.MarshalIndent(reviewsDocument{Reviews: &reviews}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode reviews: %w", err)
	}
	return body, nil
}

func decodeBooks(body []byte) (catalogue.BookCollection, error) {
	var doc booksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, corrupt(BooksDocument, err)
	}
	if doc.Books == nil {
		return nil, corrupt(BooksDocument, `missing "books" array`)
	}
	books := *doc.Books
	for i := range books {
		// list fields absent from older documents are served as [], not null
		if books[i].Tags == nil {
			books[i].Tags = []string{}
		}
		if books[i].Genre == nil {
			books[i].Genre = catalogue.StringList{}
		}
	}
	return books, nil
}

func decodeReviews(body []byte) (catalogue.ReviewCollection, error) {
	var doc reviewsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, corrupt(ReviewsDocument, err)
	}
	if doc.Reviews == nil {
		return nil, corrupt(ReviewsDocument, `missing "reviews" array`)
	}
	return *doc.Reviews, nil
}

// emptyDocument returns the initial content of a document.
func emptyDocument(name string) []byte {
	var body []byte
	if name == BooksDocument {
		body, _ = encodeBooks(nil)
	} else {
		body, _ = encodeReviews(nil)
	}
	return body
}

var documentNames = []string{BooksDocument, ReviewsDocument}
