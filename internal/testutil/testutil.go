package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"bookcatalogue/internal/catalogue"
)

// TestBook returns a fully populated book for testing.
func TestBook(id string) catalogue.Book {
	return catalogue.Book{
		ID:            id,
		Title:         "Test Book " + id,
		Author:        "Test Author",
		Description:   "A test book description",
		Price:         12.5,
		Image:         catalogue.DefaultImage,
		ISBN:          "978-0-123456-78-" + id,
		Genre:         catalogue.StringList{"Fiction"},
		Tags:          []string{},
		DatePublished: "2023-01-01",
		Pages:         320,
		Language:      "en",
		Publisher:     "Test Publisher",
		InStock:       true,
	}
}

// TestReview returns a review of bookID for testing.
func TestReview(id, bookID string, rating float64) catalogue.Review {
	return catalogue.Review{
		ID:        id,
		BookID:    bookID,
		Author:    "Reviewer",
		Rating:    rating,
		Title:     "Review " + id,
		Comment:   "A test review",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ValidBookBody is a POST /api/books payload with every required field.
func ValidBookBody() map[string]any {
	return map[string]any{
		"title":         "A",
		"author":        "B",
		"description":   "C",
		"price":         "9.99",
		"isbn":          "X",
		"genre":         "Fiction",
		"datePublished": "2023-01-01",
		"pages":         "100",
		"language":      "en",
		"publisher":     "P",
	}
}

// DecodeBookInput builds a catalogue.BookInput through its JSON decoding.
func DecodeBookInput(body map[string]any) catalogue.BookInput {
	var in catalogue.BookInput
	raw, _ := json.Marshal(body)
	_ = json.Unmarshal(raw, &in)
	return in
}

// DecodeReviewInput builds a catalogue.ReviewInput through its JSON decoding.
func DecodeReviewInput(body map[string]any) catalogue.ReviewInput {
	var in catalogue.ReviewInput
	raw, _ := json.Marshal(body)
	_ = json.Unmarshal(raw, &in)
	return in
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	default:
		bodyBytes, _ := json.Marshal(b)
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// Data returns the "data" field of an envelope as a map.
func (r RecordResponse) Data() map[string]interface{} {
	m, _ := r.Body["data"].(map[string]interface{})
	return m
}

// List returns the "data" field of an envelope as a slice.
func (r RecordResponse) List() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

// Meta returns the "meta" field of an envelope.
func (r RecordResponse) Meta() map[string]interface{} {
	m, _ := r.Body["meta"].(map[string]interface{})
	return m
}

// ErrorCode returns error.code of an error envelope.
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}
