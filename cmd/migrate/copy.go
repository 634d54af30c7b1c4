package main

import (
	"context"
	"fmt"

	"bookcatalogue/internal/catalogue"
)

// copySnapshots loads both collections from src and writes them to dst,
// in one transaction when dst supports it.
func copySnapshots(ctx context.Context, src, dst catalogue.Store) (int, int, error) {
	books, err := src.LoadBooks(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read source books: %w", err)
	}
	reviews, err := src.LoadReviews(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read source reviews: %w", err)
	}

	if atomic, ok := dst.(catalogue.AtomicSaver); ok {
		if err := atomic.SaveAll(ctx, books, reviews); err != nil {
			return 0, 0, fmt.Errorf("write destination: %w", err)
		}
		return len(books), len(reviews), nil
	}
	if err := dst.SaveBooks(ctx, books); err != nil {
		return 0, 0, fmt.Errorf("write destination books: %w", err)
	}
	if err := dst.SaveReviews(ctx, reviews); err != nil {
		return 0, 0, fmt.Errorf("write destination reviews: %w", err)
	}
	return len(books), len(reviews), nil
}
