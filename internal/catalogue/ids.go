package catalogue

import (
	"strconv"
	"strings"
)

// leadingNumber parses the decimal digits at the start of s.
func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func nextSequence(ids []string, prefix string) int {
	highest := 0
	for _, id := range ids {
		if n, ok := leadingNumber(strings.TrimPrefix(id, prefix)); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// NextBookID returns one more than the highest numeric book id, as text.
func NextBookID(books BookCollection) string {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return strconv.Itoa(nextSequence(ids, ""))
}

// NextReviewID returns review-<N> where N is one more than the highest existing suffix.
func NextReviewID(reviews ReviewCollection) string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}
	return reviewIDPrefix + strconv.Itoa(nextSequence(ids, reviewIDPrefix))
}
