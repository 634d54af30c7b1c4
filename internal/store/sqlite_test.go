package store

import (
	"context"
	"path/filepath"
	"testing"

	"bookcatalogue/internal/catalogue"
	"bookcatalogue/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "catalogue.db"))
	require.NoError(t, err)
	defer s.Close()
	runBackendContract(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "catalogue.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveAll(ctx,
		catalogue.BookCollection{testutil.TestBook("1")},
		catalogue.ReviewCollection{testutil.TestReview("review-1", "1", 5)},
	))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	books, err := reopened.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	reviews, err := reopened.LoadReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestSQLiteStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "catalogue.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.writeDocument(ctx, BooksDocument, []byte(`[]`)))
	_, err = s.LoadBooks(ctx)
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)

	_, err = s.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", ReviewsDocument)
	require.NoError(t, err)
	_, err = s.LoadReviews(ctx)
	assert.ErrorIs(t, err, catalogue.ErrStorageUnavailable)
}
