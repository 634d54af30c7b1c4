package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bookcatalogue/internal/catalogue"
	"bookcatalogue/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBackendContract exercises the behaviour every backend shares.
func runBackendContract(t *testing.T, s Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("starts empty", func(t *testing.T) {
		books, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
		reviews, err := s.LoadReviews(ctx)
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})

	t.Run("round trip", func(t *testing.T) {
		featured := testutil.TestBook("2")
		featured.Featured = true
		featured.Genre = catalogue.StringList{"Fiction", "Drama"}
		books := catalogue.BookCollection{testutil.TestBook("1"), featured}
		reviews := catalogue.ReviewCollection{testutil.TestReview("review-1", "2", 4.5)}

		require.NoError(t, s.SaveBooks(ctx, books))
		require.NoError(t, s.SaveReviews(ctx, reviews))

		gotBooks, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		assert.Equal(t, books, gotBooks)

		gotReviews, err := s.LoadReviews(ctx)
		require.NoError(t, err)
		require.Len(t, gotReviews, 1)
		assert.Equal(t, reviews[0].ID, gotReviews[0].ID)
		assert.True(t, reviews[0].Timestamp.Equal(gotReviews[0].Timestamp))
	})

	t.Run("loads are independent", func(t *testing.T) {
		first, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, first)
		first[0].Title = "changed"

		second, err := s.LoadBooks(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, "changed", second[0].Title)
	})

	t.Run("save nil writes empty", func(t *testing.T) {
		require.NoError(t, s.SaveReviews(ctx, nil))
		reviews, err := s.LoadReviews(ctx)
		require.NoError(t, err)
		assert.NotNil(t, reviews)
		assert.Empty(t, reviews)
	})

	if atomic, ok := s.(catalogue.AtomicSaver); ok {
		t.Run("save all", func(t *testing.T) {
			books := catalogue.BookCollection{testutil.TestBook("9")}
			reviews := catalogue.ReviewCollection{testutil.TestReview("review-3", "9", 2)}
			require.NoError(t, atomic.SaveAll(ctx, books, reviews))

			gotBooks, err := s.LoadBooks(ctx)
			require.NoError(t, err)
			assert.Equal(t, "9", gotBooks[0].ID)
			gotReviews, err := s.LoadReviews(ctx)
			require.NoError(t, err)
			assert.Equal(t, "review-3", gotReviews[0].ID)
		})
	}

	t.Run("ping", func(t *testing.T) {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		assert.NoError(t, s.Ping(pingCtx))
	})
}

func TestMemoryStore(t *testing.T) {
	runBackendContract(t, NewMemoryStore())
}

func TestMemoryStore_Failures(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.SetRaw(BooksDocument, []byte(`{"items": []}`))
	_, err := s.LoadBooks(ctx)
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)

	s.SetRaw(BooksDocument, []byte(`{"books": null}`))
	_, err = s.LoadBooks(ctx)
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)

	s.SetRaw(BooksDocument, []byte(`not json`))
	_, err = s.LoadBooks(ctx)
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)

	s.Remove(ReviewsDocument)
	_, err = s.LoadReviews(ctx)
	assert.ErrorIs(t, err, catalogue.ErrStorageUnavailable)
}

func TestEncodeBooks_Format(t *testing.T) {
	body, err := encodeBooks(nil)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"books\": []\n}", string(body))

	body, err = encodeReviews(catalogue.ReviewCollection{})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"reviews\": []\n}", string(body))
}

func TestDecodeBooks_AcceptsLooseGenre(t *testing.T) {
	books, err := decodeBooks([]byte(`{"books": [{"id": "1", "genre": "Fiction", "extra": true}]}`))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, catalogue.StringList{"Fiction"}, books[0].Genre)
}

func TestDecodeBooks_FillsMissingLists(t *testing.T) {
	books, err := decodeBooks([]byte(`{"books": [{"id": "1"}, {"id": "2", "genre": [], "tags": null}]}`))
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, b := range books {
		assert.NotNil(t, b.Tags, b.ID)
		assert.NotNil(t, b.Genre, b.ID)
	}

	body, err := json.Marshal(books[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"tags":[]`)
	assert.Contains(t, string(body), `"genre":[]`)
}

func TestDecodeReviews_LenientTimestamps(t *testing.T) {
	reviews, err := decodeReviews([]byte(`{"reviews": [
		{"id": "review-1", "timestamp": "2024-01-15T10:00:00.5+02:00"},
		{"id": "review-2", "timestamp": "2024-01-15"},
		{"id": "review-3", "timestamp": null},
		{"id": "review-4"}
	]}`))
	require.NoError(t, err)
	require.Len(t, reviews, 4)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 5e8, time.UTC), reviews[0].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), reviews[1].Timestamp)
	assert.True(t, reviews[2].Timestamp.IsZero())
	assert.True(t, reviews[3].Timestamp.IsZero())

	_, err = decodeReviews([]byte(`{"reviews": [{"id": "review-1", "timestamp": "last tuesday"}]}`))
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)
}
