package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// NormalizePrice reduces price text to a plain decimal string. When both
// separators appear the rightmost one is the decimal point and the other is
// a thousands separator; a lone comma is a decimal comma.
func NormalizePrice(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, s)

	comma := strings.LastIndexByte(cleaned, ',')
	dot := strings.LastIndexByte(cleaned, '.')
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(cleaned, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(cleaned, ",", ".")
	default:
		return cleaned
	}
}

// ParsePrice parses locale-ambiguous price text such as "1.234,56 €".
func ParsePrice(s string) (float64, bool) {
	return parseDecimal(NormalizePrice(s))
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// priceReader tries the data-price attribute, then the visible text.
func priceReader(s *goquery.Selection) (float64, outcome) {
	if v, ok := s.Attr("data-price"); ok {
		if f, ok := parseDecimal(v); ok {
			return f, found
		}
	}
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return 0, missing
	}
	if f, ok := ParsePrice(text); ok {
		return f, found
	}
	return 0, malformed
}
