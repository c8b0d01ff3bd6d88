package metadata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// pricePattern matches an optional currency symbol followed by a decimal
// amount with exactly two fractional digits, e.g. "$19.99" or "€ 4,50".
var pricePattern = regexp.MustCompile(`[$€£¥]?\s*\d+[.,]\d{2}`)

// leadingNumber is the longest numeric prefix a price string can start with.
var leadingNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)

// ExtractPrice returns the first price-looking amount in text.
func ExtractPrice(text string) (float64, bool) {
	match := pricePattern.FindString(text)
	if match == "" {
		return 0, false
	}
	return ParsePrice(match)
}

// ParsePrice drops everything except digits and separators, treats the first
// comma as the decimal point and parses the leading number.
func ParsePrice(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	num := leadingNumber.FindString(cleaned)
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// roundPrice rounds to cents.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
