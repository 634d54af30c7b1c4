package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"bookcatalogue/internal/catalogue"
	"bookcatalogue/internal/config"
	"bookcatalogue/internal/platform/logging"
	"bookcatalogue/internal/store"

	"go.uber.org/zap"
)

func main() {
	var (
		count          = flag.Int("books", 50, "Number of books to generate")
		reviewsPerBook = flag.Int("reviews", 3, "Maximum number of reviews per book")
		seed           = flag.Int64("seed", 1, "Random seed")
		force          = flag.Bool("force", false, "Overwrite a catalogue that already has books")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	backend, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("cannot open store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer backend.Close()

	existing, err := backend.LoadBooks(ctx)
	if err != nil {
		logger.Fatal("cannot read books", zap.Error(err))
	}
	if len(existing) > 0 && !*force {
		logger.Fatal("catalogue is not empty; pass -force to overwrite", zap.Int("books", len(existing)))
	}

	rng := rand.New(rand.NewSource(*seed))
	books, reviews := generate(rng, *count, *reviewsPerBook, time.Now())
	logger.Info("generated catalogue", zap.Int("books", len(books)), zap.Int("reviews", len(reviews)))

	if err := backend.SaveBooks(ctx, books); err != nil {
		logger.Fatal("failed to save books", zap.Error(err))
	}
	if err := backend.SaveReviews(ctx, reviews); err != nil {
		logger.Fatal("failed to save reviews", zap.Error(err))
	}
	logger.Info("catalogue seeded", zap.String("backend", cfg.Storage.Backend))
}

var (
	genres     = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}
	languages  = []string{"en", "es", "fr", "de", "it", "pt", "zh", "ja"}
	publishers = []string{"Penguin", "HarperCollins", "Oxford", "Cambridge", "MIT Press", "Springer", "Wiley", "Elsevier"}
	authors    = []string{"Ada North", "Bram Vale", "Cora Lind", "Dev Okafor", "Elin Sato", "Farid Aziz"}
	words      = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
)

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

// generate builds a catalogue whose reviewCount and rating agree with the
// generated reviews.
func generate(rng *rand.Rand, count, reviewsPerBook int, now time.Time) (catalogue.BookCollection, catalogue.ReviewCollection) {
	books := make(catalogue.BookCollection, 0, count)
	reviews := catalogue.ReviewCollection{}

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%d", i+1)
		year := 1950 + rng.Intn(75)
		published := time.Date(year, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)

		book := catalogue.Book{
			ID:            id,
			Title:         fmt.Sprintf("The %s of %s", pick(rng, words), pick(rng, words)),
			Author:        pick(rng, authors),
			Description:   fmt.Sprintf("This is a book about %s. It explores the fundamental concepts and provides insights into the subject matter.", pick(rng, words)),
			Price:         float64(500+rng.Intn(4500)) / 100,
			Image:         catalogue.DefaultImage,
			ISBN:          fmt.Sprintf("978-%010d", i+1),
			Genre:         catalogue.StringList{pick(rng, genres)},
			Tags:          []string{},
			DatePublished: published.Format(catalogue.DateLayout),
			Pages:         100 + rng.Intn(800),
			Language:      pick(rng, languages),
			Publisher:     pick(rng, publishers),
			InStock:       rng.Intn(5) > 0,
			Featured:      rng.Intn(5) == 0,
		}

		n := 0
		if reviewsPerBook > 0 {
			n = rng.Intn(reviewsPerBook + 1)
		}
		total := 0.0
		for j := 0; j < n; j++ {
			rating := float64(1 + rng.Intn(5))
			total += rating
			reviews = append(reviews, catalogue.Review{
				ID:        fmt.Sprintf("review-%d", len(reviews)+1),
				BookID:    id,
				Author:    pick(rng, authors),
				Rating:    rating,
				Title:     fmt.Sprintf("On %s", pick(rng, words)),
				Comment:   fmt.Sprintf("A book full of %s.", pick(rng, words)),
				Timestamp: now.UTC().Add(-time.Duration(rng.Intn(365*24)) * time.Hour).Truncate(time.Millisecond),
				Verified:  rng.Intn(2) == 0,
			})
		}
		if n > 0 {
			book.Rating = total / float64(n)
			book.ReviewCount = n
		}
		books = append(books, book)
	}
	return books, reviews
}
