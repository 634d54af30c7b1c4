package catalogue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	reviewIDPrefix = "review-"
	minRating      = 1
	maxRating      = 5
)

// Review is a reader's review of a single book.
type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Author    string    `json:"author"`
	Rating    float64   `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
	Verified  bool      `json:"verified"`
}

type reviewFields Review

// UnmarshalJSON accepts timestamps written as RFC 3339 or as a bare
// YYYY-MM-DD date. A null or empty timestamp decodes to the zero time.
func (r *Review) UnmarshalJSON(data []byte) error {
	var raw struct {
		reviewFields
		Timestamp *string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Review(raw.reviewFields)
	r.Timestamp = time.Time{}
	if raw.Timestamp == nil || strings.TrimSpace(*raw.Timestamp) == "" {
		return nil
	}
	ts, err := parseTimestamp(*raw.Timestamp)
	if err != nil {
		return fmt.Errorf("review %q: %w", r.ID, err)
	}
	r.Timestamp = ts
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return ParseDate(s)
}

// ReviewCollection is the full set of reviews held by a store.
type ReviewCollection []Review

// BookReviews is the result of GetReviewsForBook.
type BookReviews struct {
	BookID    string           `json:"bookId"`
	BookTitle string           `json:"bookTitle"`
	Reviews   ReviewCollection `json:"reviews"`
	Total     int              `json:"total"`
}

// ReviewInput carries a client-supplied review before validation.
type ReviewInput struct {
	BookID   Text  `json:"bookId" validate:"required"`
	Author   Text  `json:"author" validate:"required"`
	Rating   Text  `json:"rating" validate:"required"`
	Title    Text  `json:"title" validate:"required"`
	Comment  Text  `json:"comment" validate:"required"`
	Verified *bool `json:"verified"`
}
