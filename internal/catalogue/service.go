package catalogue

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Service provides catalogue business logic over a snapshot Store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	// mu serialises the load/compute/save sequence of every mutation.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the source of review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new catalogue service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) loadBooks(ctx context.Context) (BookCollection, error) {
	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return books, nil
}

func (s *Service) loadReviews(ctx context.Context) (ReviewCollection, error) {
	reviews, err := s.store.LoadReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return reviews, nil
}

// GetAllBooks returns every book in storage order.
func (s *Service) GetAllBooks(ctx context.Context) (BookCollection, error) {
	books, err := s.loadBooks(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = BookCollection{}
	}
	return books, nil
}

// GetBookByID returns the book whose id matches exactly.
func (s *Service) GetBookByID(ctx context.Context, id string) (Book, error) {
	books, err := s.loadBooks(ctx)
	if err != nil {
		return Book{}, err
	}
	i := books.Find(id)
	if i < 0 {
		return Book{}, fmt.Errorf("book %q: %w", id, ErrNotFound)
	}
	return books[i], nil
}

// GetFeaturedBooks returns the featured books in storage order.
func (s *Service) GetFeaturedBooks(ctx context.Context) (BookCollection, error) {
	books, err := s.loadBooks(ctx)
	if err != nil {
		return nil, err
	}
	featured := BookCollection{}
	for _, b := range books {
		if b.Featured {
			featured = append(featured, b)
		}
	}
	return featured, nil
}

// GetBooksInDateRange returns books published between start and end inclusive.
// Bounds are validated before storage is read.
func (s *Service) GetBooksInDateRange(ctx context.Context, start, end string) (BookCollection, error) {
	var missing []string
	if strings.TrimSpace(start) == "" {
		missing = append(missing, "start")
	}
	if strings.TrimSpace(end) == "" {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		return nil, &ArgumentError{
			Field:  strings.Join(missing, " and "),
			Reason: "both start and end date parameters are required",
		}
	}

	from, err := parseBound("start", start)
	if err != nil {
		return nil, err
	}
	to, err := parseBound("end", end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	books, err := s.loadBooks(ctx)
	if err != nil {
		return nil, err
	}
	inRange := BookCollection{}
	for _, b := range books {
		published, err := ParseDate(b.DatePublished)
		if err != nil {
			continue
		}
		if !published.Before(from) && !published.After(to) {
			inRange = append(inRange, b)
		}
	}
	return inRange, nil
}

// GetTopRatedBooks returns up to TopRatedLimit books ordered by rating × reviewCount.
// Ties keep storage order.
func (s *Service) GetTopRatedBooks(ctx context.Context) ([]RankedBook, error) {
	books, err := s.loadBooks(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedBook, len(books))
	for i, b := range books {
		ranked[i] = RankedBook{Book: b, WeightedRating: b.WeightedRating()}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedRating > ranked[j].WeightedRating
	})
	if len(ranked) > TopRatedLimit {
		ranked = ranked[:TopRatedLimit]
	}
	return ranked, nil
}

// GetReviewsForBook returns the reviews of an existing book in storage order.
func (s *Service) GetReviewsForBook(ctx context.Context, bookID string) (BookReviews, error) {
	books, err := s.loadBooks(ctx)
	if err != nil {
		return BookReviews{}, err
	}
	i := books.Find(bookID)
	if i < 0 {
		return BookReviews{}, fmt.Errorf("book %q: %w", bookID, ErrNotFound)
	}

	reviews, err := s.loadReviews(ctx)
	if err != nil {
		return BookReviews{}, err
	}
	matched := ReviewCollection{}
	for _, r := range reviews {
		if r.BookID == bookID {
			matched = append(matched, r)
		}
	}
	return BookReviews{
		BookID:    bookID,
		BookTitle: books[i].Title,
		Reviews:   matched,
		Total:     len(matched),
	}, nil
}

// GetAllReviews returns every review in storage order.
func (s *Service) GetAllReviews(ctx context.Context) (ReviewCollection, error) {
	reviews, err := s.loadReviews(ctx)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = ReviewCollection{}
	}
	return reviews, nil
}

// AddBook validates in, assigns the next id and appends the book.
func (s *Service) AddBook(ctx context.Context, in BookInput) (Book, error) {
	book, err := newBook(in)
	if err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.loadBooks(ctx)
	if err != nil {
		return Book{}, err
	}
	book.ID = NextBookID(books)

	if err := s.store.SaveBooks(ctx, append(slices.Clone(books), book)); err != nil {
		return Book{}, fmt.Errorf("save books: %w", err)
	}
	return book, nil
}

func newBook(in BookInput) (Book, error) {
	if err := checkRequired(in); err != nil {
		return Book{}, err
	}

	price, err := parseNonNegativeNumber("price", in.Price)
	if err != nil {
		return Book{}, err
	}
	pages, err := parseCount("pages", in.Pages)
	if err != nil {
		return Book{}, err
	}
	if _, err := ParseDate(in.DatePublished.String()); err != nil {
		return Book{}, &ArgumentError{Field: "datePublished", Reason: "use YYYY-MM-DD format"}
	}

	book := Book{
		Title:         in.Title.String(),
		Author:        in.Author.String(),
		Description:   in.Description.String(),
		Price:         price,
		Image:         in.Image.String(),
		ISBN:          in.ISBN.String(),
		Genre:         in.Genre,
		Tags:          in.Tags,
		DatePublished: in.DatePublished.String(),
		Pages:         pages,
		Language:      in.Language.String(),
		Publisher:     in.Publisher.String(),
		InStock:       true,
	}
	if book.Image == "" {
		book.Image = DefaultImage
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}
	if in.Rating != "" {
		if book.Rating, err = parseNumber("rating", in.Rating); err != nil {
			return Book{}, err
		}
	}
	if in.ReviewCount != "" {
		if book.ReviewCount, err = parseCount("reviewCount", in.ReviewCount); err != nil {
			return Book{}, err
		}
	}
	if in.InStock != nil {
		book.InStock = *in.InStock
	}
	if in.Featured != nil {
		book.Featured = *in.Featured
	}
	return book, nil
}

// AddReview validates in, appends the review and increments the referenced
// book's reviewCount.
func (s *Service) AddReview(ctx context.Context, in ReviewInput) (Review, error) {
	if err := checkRequired(in); err != nil {
		return Review{}, err
	}
	rating, err := parseRating(in.Rating)
	if err != nil {
		return Review{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.loadBooks(ctx)
	if err != nil {
		return Review{}, err
	}
	bookID := in.BookID.String()
	i := books.Find(bookID)
	if i < 0 {
		return Review{}, fmt.Errorf("book %q: %w", bookID, ErrNotFound)
	}

	reviews, err := s.loadReviews(ctx)
	if err != nil {
		return Review{}, err
	}

	review := Review{
		ID:        NextReviewID(reviews),
		BookID:    bookID,
		Author:    in.Author.String(),
		Rating:    rating,
		Title:     in.Title.String(),
		Comment:   in.Comment.String(),
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	if in.Verified != nil {
		review.Verified = *in.Verified
	}

	updatedBooks := slices.Clone(books)
	updatedBooks[i].ReviewCount++
	updatedReviews := append(slices.Clone(reviews), review)

	if err := s.saveReviewAndBooks(ctx, reviews, updatedReviews, updatedBooks); err != nil {
		return Review{}, err
	}
	return review, nil
}

// saveReviewAndBooks persists both collections. Without an AtomicSaver the
// reviews are written first and restored to previous if the books write fails.
func (s *Service) saveReviewAndBooks(ctx context.Context, previous, reviews ReviewCollection, books BookCollection) error {
	if atomic, ok := s.store.(AtomicSaver); ok {
		if err := atomic.SaveAll(ctx, books, reviews); err != nil {
			return fmt.Errorf("save catalogue: %w", err)
		}
		return nil
	}

	if err := s.store.SaveReviews(ctx, reviews); err != nil {
		return fmt.Errorf("save reviews: %w", err)
	}
	if err := s.store.SaveBooks(ctx, books); err != nil {
		err = fmt.Errorf("save books: %w", err)
		if restoreErr := s.store.SaveReviews(ctx, previous); restoreErr != nil {
			s.logger.Error("review snapshot left ahead of books",
				zap.Error(err),
				zap.NamedError("restore_error", restoreErr),
			)
			return multierr.Append(err, fmt.Errorf("restore reviews: %w", restoreErr))
		}
		s.logger.Warn("books write failed, review snapshot restored", zap.Error(err))
		return err
	}
	return nil
}
