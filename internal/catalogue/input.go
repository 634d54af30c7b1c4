package catalogue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
}

// Text is a loosely typed JSON scalar kept as text. Strings are taken as is,
// numbers and booleans in their literal form, and null as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("expected a string or number, got %s", data)
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// StringList decodes either a single string or an array of strings.
// Blank entries are dropped; an input with no entries decodes to nil.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw []string
	switch {
	case bytes.Equal(data, []byte("null")):
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	default:
		var s Text
		if err := s.UnmarshalJSON(data); err != nil {
			return err
		}
		raw = []string{string(s)}
	}

	var out StringList
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// missingFields returns the json names of required fields absent from s, in
// declaration order.
func missingFields(s any) []string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	var fields []string
	for _, fe := range validationErrors {
		if fe.Tag() == "required" {
			fields = append(fields, fe.Field())
		}
	}
	return fields
}

func checkRequired(s any) error {
	if fields := missingFields(s); len(fields) > 0 {
		return &MissingFieldsError{Fields: fields}
	}
	return nil
}

func parseNumber(field string, value Text) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ArgumentError{Field: field, Reason: fmt.Sprintf("%q is not a number", value)}
	}
	return f, nil
}

func parseNonNegativeNumber(field string, value Text) (float64, error) {
	f, err := parseNumber(field, value)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, &ArgumentError{Field: field, Reason: "must not be negative"}
	}
	return f, nil
}

func parseCount(field string, value Text) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value.String()))
	if err != nil {
		return 0, &ArgumentError{Field: field, Reason: fmt.Sprintf("%q is not an integer", value)}
	}
	if n < 0 {
		return 0, &ArgumentError{Field: field, Reason: "must not be negative"}
	}
	return n, nil
}

// parseRating accepts any finite number in [1, 5].
func parseRating(value Text) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
	if err != nil || math.IsNaN(f) || f < minRating || f > maxRating {
		return 0, ErrInvalidRating
	}
	return f, nil
}
