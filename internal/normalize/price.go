// Package normalize holds the pure parsing helpers used by collectors:
// price and unit extraction, dimension parsing, text cleanup, and
// deterministic item id generation. Nothing here performs I/O; parse
// failures return ok=false rather than errors.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceCleanRe   = regexp.MustCompile(`[^\d.,]`)
	priceExtractRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	numericRe      = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParsePrice extracts a numeric price from currency-formatted text. It
// accepts symbol-prefixed or suffixed values and disambiguates the
// decimal separator by digit count: "1.234,56" parses as 1234.56,
// "1,234.56" as 1234.56, and a bare decimal comma "99,95" as 99.95.
// Returns ok=false on unparseable input.
func ParsePrice(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}

	cleaned := priceCleanRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European grouping: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// American grouping: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// Bare decimal comma: 99,95
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	match := priceExtractRe.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractNumeric returns the first numeric value found in text, ignoring
// thousands commas. Returns ok=false when no number is present.
func ExtractNumeric(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	match := numericRe.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
