package extract

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// digits strips everything but digit runes and parses the remainder.
// Returns nil when the string carries no digits at all. Handles the
// sites' thousand separators and unit suffixes ("170 000 km",
// "1 998 cm3", "150 KM") in one pass.
func digits(s string) *int {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return nil
	}
	return &n
}

// nonNegative drops negative values. Extraction never produces them
// from digit-stripping, but profile overrides could route a signed
// field here.
func nonNegative(v *int) *int {
	if v != nil && *v < 0 {
		return nil
	}
	return v
}

// plausibleYear keeps production years between the first automobile
// and next year's models.
func plausibleYear(v *int) *int {
	if v == nil {
		return nil
	}
	if *v < 1885 || *v > time.Now().Year()+1 {
		return nil
	}
	return v
}

// cleanText collapses whitespace runs into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
