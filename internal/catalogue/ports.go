package catalogue

import (
	"context"
)

// Store defines the contract for catalogue snapshot storage.
// Each call reads or replaces a whole collection.
type Store interface {
	LoadBooks(ctx context.Context) (BookCollection, error)
	LoadReviews(ctx context.Context) (ReviewCollection, error)
	SaveBooks(ctx context.Context, books BookCollection) error
	SaveReviews(ctx context.Context, reviews ReviewCollection) error
}

// AtomicSaver is implemented by stores that can replace both collections in
// a single transaction.
type AtomicSaver interface {
	SaveAll(ctx context.Context, books BookCollection, reviews ReviewCollection) error
}
