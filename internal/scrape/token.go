package scrape

import (
	"strings"
	"unicode"
)

// UnknownDateToken names documents whose listing carries no date label.
const UnknownDateToken = "Unknown_Date"

// SanitizeToken keeps letters and numeric runes (fractions and other
// numerals included), collapses every run of other characters into one
// underscore and trims underscores at both ends.
func SanitizeToken(raw string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// RatingFilename returns CreditRating-<token>.pdf for a listing label.
func RatingFilename(label string) string {
	token := SanitizeToken(label)
	if token == "" {
		token = UnknownDateToken
	}
	return "CreditRating-" + token + ".pdf"
}
