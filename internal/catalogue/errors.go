package catalogue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced book does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidArgument is returned for malformed or missing caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidDateFormat is returned when a date bound cannot be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("start date must be before or equal to end date")
	// ErrMissingFields is matched by every *MissingFieldsError.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidRating is returned when a review rating is not a number in [1, 5].
	ErrInvalidRating = errors.New("rating must be a number between 1 and 5")
	// ErrStorageUnavailable is returned when the backing store cannot be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrCorruptData is returned when persisted content does not decode into a collection.
	ErrCorruptData = errors.New("corrupt data")
)

// MissingFieldsError names every required field absent from an input.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

// ArgumentError reports a single input field that failed validation or coercion.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}
