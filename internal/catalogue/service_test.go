package catalogue_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookcatalogue/internal/catalogue"
	"bookcatalogue/internal/store"
	"bookcatalogue/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LoadBooks(ctx context.Context) (catalogue.BookCollection, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).(catalogue.BookCollection)
	return books, args.Error(1)
}

func (m *mockStore) LoadReviews(ctx context.Context) (catalogue.ReviewCollection, error) {
	args := m.Called(ctx)
	reviews, _ := args.Get(0).(catalogue.ReviewCollection)
	return reviews, args.Error(1)
}

func (m *mockStore) SaveBooks(ctx context.Context, books catalogue.BookCollection) error {
	return m.Called(ctx, books).Error(0)
}

func (m *mockStore) SaveReviews(ctx context.Context, reviews catalogue.ReviewCollection) error {
	return m.Called(ctx, reviews).Error(0)
}

type mockAtomicStore struct {
	mockStore
}

func (m *mockAtomicStore) SaveAll(ctx context.Context, books catalogue.BookCollection, reviews catalogue.ReviewCollection) error {
	return m.Called(ctx, books, reviews).Error(0)
}

var fixedNow = time.Date(2024, 6, 1, 10, 30, 0, 123456789, time.UTC)

func newTestService(t *testing.T, books catalogue.BookCollection, reviews catalogue.ReviewCollection) (*catalogue.Service, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.SaveBooks(ctx, books))
	require.NoError(t, s.SaveReviews(ctx, reviews))
	return catalogue.NewService(s, catalogue.WithClock(func() time.Time { return fixedNow })), s
}

func validReview(bookID string) catalogue.ReviewInput {
	return testutil.DecodeReviewInput(map[string]any{
		"bookId":  bookID,
		"author":  "Ann",
		"rating":  4,
		"title":   "Good",
		"comment": "Enjoyed it",
	})
}

func TestService_AddBook_EmptyStore(t *testing.T) {
	svc, s := newTestService(t, nil, nil)

	book, err := svc.AddBook(context.Background(), testutil.DecodeBookInput(testutil.ValidBookBody()))
	require.NoError(t, err)

	assert.Equal(t, "1", book.ID)
	assert.Equal(t, 9.99, book.Price)
	assert.Equal(t, 100, book.Pages)
	assert.Equal(t, catalogue.StringList{"Fiction"}, book.Genre)
	assert.Equal(t, catalogue.DefaultImage, book.Image)
	assert.Equal(t, []string{}, book.Tags)
	assert.Zero(t, book.Rating)
	assert.Zero(t, book.ReviewCount)
	assert.True(t, book.InStock)
	assert.False(t, book.Featured)

	stored, err := s.LoadBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, book, stored[0])
}

func TestService_AddBook_NextID(t *testing.T) {
	svc, _ := newTestService(t, catalogue.BookCollection{
		testutil.TestBook("3"), testutil.TestBook("7"), testutil.TestBook("2"),
	}, nil)

	book, err := svc.AddBook(context.Background(), testutil.DecodeBookInput(testutil.ValidBookBody()))
	require.NoError(t, err)
	assert.Equal(t, "8", book.ID)
}

func TestService_AddBook_OptionalFields(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	body := testutil.ValidBookBody()
	body["price"] = 0
	body["genre"] = []string{"Fiction", "Classic"}
	body["image"] = "/images/a.jpg"
	body["tags"] = []string{"old"}
	body["rating"] = "4.5"
	body["reviewCount"] = 12
	body["inStock"] = false
	body["featured"] = true

	book, err := svc.AddBook(context.Background(), testutil.DecodeBookInput(body))
	require.NoError(t, err)
	assert.Zero(t, book.Price)
	assert.Equal(t, catalogue.StringList{"Fiction", "Classic"}, book.Genre)
	assert.Equal(t, "/images/a.jpg", book.Image)
	assert.Equal(t, []string{"old"}, book.Tags)
	assert.Equal(t, 4.5, book.Rating)
	assert.Equal(t, 12, book.ReviewCount)
	assert.False(t, book.InStock)
	assert.True(t, book.Featured)
}

func TestService_AddBook_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string]any)
		is     error
		fields []string
	}{
		{
			name:   "missing fields",
			modify: func(b map[string]any) { delete(b, "title"); delete(b, "pages"); b["genre"] = "" },
			is:     catalogue.ErrMissingFields,
			fields: []string{"title", "genre", "pages"},
		},
		{name: "price not a number", modify: func(b map[string]any) { b["price"] = "cheap" }, is: catalogue.ErrInvalidArgument},
		{name: "negative pages", modify: func(b map[string]any) { b["pages"] = -3 }, is: catalogue.ErrInvalidArgument},
		{name: "bad date", modify: func(b map[string]any) { b["datePublished"] = "last year" }, is: catalogue.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newTestService(t, catalogue.BookCollection{testutil.TestBook("1")}, nil)
			body := testutil.ValidBookBody()
			tt.modify(body)

			_, err := svc.AddBook(context.Background(), testutil.DecodeBookInput(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			if tt.fields != nil {
				var missing *catalogue.MissingFieldsError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, tt.fields, missing.Fields)
			}

			books, err := s.LoadBooks(context.Background())
			require.NoError(t, err)
			assert.Len(t, books, 1)
		})
	}
}

func TestService_GetBookByID(t *testing.T) {
	svc, _ := newTestService(t, catalogue.BookCollection{testutil.TestBook("1"), testutil.TestBook("2")}, nil)

	book, err := svc.GetBookByID(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Test Book 2", book.Title)

	_, err = svc.GetBookByID(context.Background(), "02")
	assert.ErrorIs(t, err, catalogue.ErrNotFound)
}

func TestService_GetAllBooks_Empty(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)

	books, err := svc.GetAllBooks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	reviews, err := svc.GetAllReviews(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reviews)
}

func TestService_GetFeaturedBooks(t *testing.T) {
	a, b, c := testutil.TestBook("1"), testutil.TestBook("2"), testutil.TestBook("3")
	a.Featured, c.Featured = true, true
	svc, _ := newTestService(t, catalogue.BookCollection{a, b, c}, nil)

	featured, err := svc.GetFeaturedBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "1", featured[0].ID)
	assert.Equal(t, "3", featured[1].ID)
}

func TestService_GetTopRatedBooks(t *testing.T) {
	var books catalogue.BookCollection
	for i := 1; i <= 12; i++ {
		b := testutil.TestBook(fmt.Sprint(i))
		b.Rating = 4
		b.ReviewCount = i
		books = append(books, b)
	}
	// ties with book 12 (weighted 48) keep storage order
	books[0].Rating, books[0].ReviewCount = 3, 16
	books[1].Rating, books[1].ReviewCount = 0, 0

	svc, _ := newTestService(t, books, nil)
	ranked, err := svc.GetTopRatedBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, catalogue.TopRatedLimit)

	assert.Equal(t, "1", ranked[0].ID)
	assert.InDelta(t, 48, ranked[0].WeightedRating, 1e-9)
	assert.Equal(t, "12", ranked[1].ID)
	assert.Equal(t, "11", ranked[2].ID)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].WeightedRating, ranked[i].WeightedRating)
	}
	for _, r := range ranked {
		assert.NotEqual(t, "2", r.ID)
	}
}

func TestService_GetTopRatedBooks_StableTies(t *testing.T) {
	svc, _ := newTestService(t, catalogue.BookCollection{
		testutil.TestBook("5"), testutil.TestBook("1"), testutil.TestBook("3"),
	}, nil)

	ranked, err := svc.GetTopRatedBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"5", "1", "3"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}

func TestService_GetBooksInDateRange(t *testing.T) {
	dated := func(id, date string) catalogue.Book {
		b := testutil.TestBook(id)
		b.DatePublished = date
		return b
	}
	svc, _ := newTestService(t, catalogue.BookCollection{
		dated("1", "2021-12-31"),
		dated("2", "2022-01-01"),
		dated("3", "2022-06-15T08:00:00Z"),
		dated("4", "2023-12-31"),
		dated("5", "2024-01-01"),
		dated("6", "unknown"),
	}, nil)
	ctx := context.Background()

	t.Run("inclusive bounds", func(t *testing.T) {
		books, err := svc.GetBooksInDateRange(ctx, "2022-01-01", "2023-12-31")
		require.NoError(t, err)
		var ids []string
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		assert.Equal(t, []string{"2", "3", "4"}, ids)
	})

	t.Run("single day", func(t *testing.T) {
		books, err := svc.GetBooksInDateRange(ctx, "2024-01-01", "2024-01-01")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "5", books[0].ID)
	})

	t.Run("no match is empty", func(t *testing.T) {
		books, err := svc.GetBooksInDateRange(ctx, "1990-01-01", "1990-12-31")
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("missing bound", func(t *testing.T) {
		_, err := svc.GetBooksInDateRange(ctx, "", "2023-12-31")
		var argErr *catalogue.ArgumentError
		require.True(t, errors.As(err, &argErr))
		assert.Equal(t, "start", argErr.Field)

		_, err = svc.GetBooksInDateRange(ctx, "", " ")
		require.True(t, errors.As(err, &argErr))
		assert.Equal(t, "start and end", argErr.Field)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := svc.GetBooksInDateRange(ctx, "2022-01-01", "31/12/2023")
		assert.ErrorIs(t, err, catalogue.ErrInvalidDateFormat)
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := svc.GetBooksInDateRange(ctx, "2024-01-01", "2023-01-01")
		assert.ErrorIs(t, err, catalogue.ErrInvalidRange)
	})
}

func TestService_AddReview(t *testing.T) {
	book := testutil.TestBook("1")
	book.ReviewCount = 2
	svc, s := newTestService(t,
		catalogue.BookCollection{book, testutil.TestBook("2")},
		catalogue.ReviewCollection{testutil.TestReview("review-1", "1", 5), testutil.TestReview("review-9", "1", 3)},
	)
	ctx := context.Background()

	review, err := svc.AddReview(ctx, validReview("1"))
	require.NoError(t, err)
	assert.Equal(t, "review-10", review.ID)
	assert.Equal(t, "1", review.BookID)
	assert.Equal(t, 4.0, review.Rating)
	assert.False(t, review.Verified)
	assert.Equal(t, fixedNow.Truncate(time.Millisecond), review.Timestamp)

	books, err := s.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, books[0].ReviewCount)
	assert.Equal(t, 0, books[1].ReviewCount)

	result, err := svc.GetReviewsForBook(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "Test Book 1", result.BookTitle)
	assert.Equal(t, "review-10", result.Reviews[2].ID)

	other, err := svc.GetReviewsForBook(ctx, "2")
	require.NoError(t, err)
	assert.NotNil(t, other.Reviews)
	assert.Zero(t, other.Total)
}

func TestService_AddReview_Rejected(t *testing.T) {
	tests := []struct {
		name string
		in   catalogue.ReviewInput
		is   error
	}{
		{name: "unknown book", in: validReview("42"), is: catalogue.ErrNotFound},
		{name: "missing fields", in: catalogue.ReviewInput{BookID: "1", Rating: "3"}, is: catalogue.ErrMissingFields},
	}
	for _, rating := range []any{0, 6, "abc"} {
		in := validReview("1")
		in.Rating = catalogue.Text(fmt.Sprint(rating))
		tests = append(tests, struct {
			name string
			in   catalogue.ReviewInput
			is   error
		}{name: fmt.Sprintf("rating %v", rating), in: in, is: catalogue.ErrInvalidRating})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newTestService(t, catalogue.BookCollection{testutil.TestBook("1")}, nil)
			ctx := context.Background()

			_, err := svc.AddReview(ctx, tt.in)
			assert.ErrorIs(t, err, tt.is)

			books, err := s.LoadBooks(ctx)
			require.NoError(t, err)
			assert.Zero(t, books[0].ReviewCount)
			reviews, err := s.LoadReviews(ctx)
			require.NoError(t, err)
			assert.Empty(t, reviews)
		})
	}
}

func TestService_AddReview_ValidRatings(t *testing.T) {
	svc, _ := newTestService(t, catalogue.BookCollection{testutil.TestBook("1")}, nil)
	for _, rating := range []string{"1", "2.5", "5"} {
		in := validReview("1")
		in.Rating = catalogue.Text(rating)
		_, err := svc.AddReview(context.Background(), in)
		assert.NoError(t, err, rating)
	}
}

func TestService_GetReviewsForBook_NotFound(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	_, err := svc.GetReviewsForBook(context.Background(), "1")
	assert.ErrorIs(t, err, catalogue.ErrNotFound)
}

func TestService_AddReview_Concurrent(t *testing.T) {
	svc, s := newTestService(t, catalogue.BookCollection{testutil.TestBook("1")}, nil)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			review, err := svc.AddReview(ctx, validReview("1"))
			if assert.NoError(t, err) {
				ids <- review.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], id)
		seen[id] = true
	}
	books, err := s.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, books[0].ReviewCount)
}

func TestService_StorageErrors(t *testing.T) {
	svc, s := newTestService(t, nil, nil)
	ctx := context.Background()

	s.SetRaw(store.BooksDocument, []byte(`{"books": "nope"}`))
	_, err := svc.GetAllBooks(ctx)
	assert.ErrorIs(t, err, catalogue.ErrCorruptData)

	s.Remove(store.ReviewsDocument)
	_, err = svc.GetAllReviews(ctx)
	assert.ErrorIs(t, err, catalogue.ErrStorageUnavailable)
}

func TestService_AddReview_AtomicSaver(t *testing.T) {
	ms := &mockAtomicStore{}
	ms.On("LoadBooks", mock.Anything).Return(catalogue.BookCollection{testutil.TestBook("1")}, nil)
	ms.On("LoadReviews", mock.Anything).Return(catalogue.ReviewCollection{}, nil)
	ms.On("SaveAll", mock.Anything,
		mock.MatchedBy(func(b catalogue.BookCollection) bool { return b[0].ReviewCount == 1 }),
		mock.MatchedBy(func(r catalogue.ReviewCollection) bool { return len(r) == 1 && r[0].ID == "review-1" }),
	).Return(nil)

	svc := catalogue.NewService(ms)
	_, err := svc.AddReview(context.Background(), validReview("1"))
	require.NoError(t, err)

	ms.AssertExpectations(t)
	ms.AssertNotCalled(t, "SaveReviews", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "SaveBooks", mock.Anything, mock.Anything)
}

func TestService_AddReview_RestoresReviews(t *testing.T) {
	booksErr := errors.New("disk full")
	previous := catalogue.ReviewCollection{testutil.TestReview("review-1", "1", 2)}
	isPrevious := mock.MatchedBy(func(r catalogue.ReviewCollection) bool { return len(r) == 1 })
	isUpdated := mock.MatchedBy(func(r catalogue.ReviewCollection) bool { return len(r) == 2 })

	newStore := func() *mockStore {
		ms := &mockStore{}
		ms.On("LoadBooks", mock.Anything).Return(catalogue.BookCollection{testutil.TestBook("1")}, nil)
		ms.On("LoadReviews", mock.Anything).Return(previous, nil)
		ms.On("SaveReviews", mock.Anything, isUpdated).Return(nil).Once()
		ms.On("SaveBooks", mock.Anything, mock.Anything).Return(booksErr)
		return ms
	}

	t.Run("restored", func(t *testing.T) {
		ms := newStore()
		ms.On("SaveReviews", mock.Anything, isPrevious).Return(nil).Once()
		core, logs := observer.New(zapcore.WarnLevel)
		svc := catalogue.NewService(ms, catalogue.WithLogger(zap.New(core)))

		_, err := svc.AddReview(context.Background(), validReview("1"))
		assert.ErrorIs(t, err, booksErr)
		assert.Len(t, multierr.Errors(err), 1)
		ms.AssertExpectations(t)
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	})

	t.Run("restore failed", func(t *testing.T) {
		restoreErr := errors.New("still full")
		ms := newStore()
		ms.On("SaveReviews", mock.Anything, isPrevious).Return(restoreErr).Once()
		core, logs := observer.New(zapcore.WarnLevel)
		svc := catalogue.NewService(ms, catalogue.WithLogger(zap.New(core)))

		_, err := svc.AddReview(context.Background(), validReview("1"))
		assert.ErrorIs(t, err, booksErr)
		assert.ErrorIs(t, err, restoreErr)
		assert.Len(t, multierr.Errors(err), 2)
		ms.AssertExpectations(t)
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	})
}

func TestService_InputErrorsSkipStorage(t *testing.T) {
	// no expectations are set, so any store call fails the test
	ms := &mockStore{}
	svc := catalogue.NewService(ms)
	ctx := context.Background()

	missingTitle := testutil.ValidBookBody()
	delete(missingTitle, "title")
	badRating := validReview("1")
	badRating.Rating = "6"

	tests := []struct {
		name string
		call func() error
		is   error
	}{
		{name: "missing bound", call: func() error {
			_, err := svc.GetBooksInDateRange(ctx, "2022-01-01", "")
			return err
		}, is: catalogue.ErrInvalidArgument},
		{name: "unparsable bound", call: func() error {
			_, err := svc.GetBooksInDateRange(ctx, "bad", "2023-12-31")
			return err
		}, is: catalogue.ErrInvalidDateFormat},
		{name: "inverted range", call: func() error {
			_, err := svc.GetBooksInDateRange(ctx, "2024-01-01", "2023-01-01")
			return err
		}, is: catalogue.ErrInvalidRange},
		{name: "book missing fields", call: func() error {
			_, err := svc.AddBook(ctx, testutil.DecodeBookInput(missingTitle))
			return err
		}, is: catalogue.ErrMissingFields},
		{name: "review rating out of range", call: func() error {
			_, err := svc.AddReview(ctx, badRating)
			return err
		}, is: catalogue.ErrInvalidRating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.is)
		})
	}

	ms.AssertNotCalled(t, "LoadBooks", mock.Anything)
	ms.AssertNotCalled(t, "LoadReviews", mock.Anything)
	ms.AssertNotCalled(t, "SaveBooks", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "SaveReviews", mock.Anything, mock.Anything)
}

func TestReview_UnmarshalJSON(t *testing.T) {
	var r catalogue.Review
	require.NoError(t, json.Unmarshal([]byte(`{"id":"review-1","rating":4,"timestamp":"2024-01-15","verified":true}`), &r))
	assert.Equal(t, "review-1", r.ID)
	assert.Equal(t, 4.0, r.Rating)
	assert.True(t, r.Verified)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), r.Timestamp)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"review-2","timestamp":"soon"}`), &r))
}
