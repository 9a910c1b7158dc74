package extractor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// outcome separates "nothing here" from "something here we could not use".
// Both end up as no match; the difference only shows in debug logs.
type outcome int

const (
	found outcome = iota
	missing
	malformed
)

// reader turns the first element matched by a step into a value.
type reader[T any] func(*goquery.Selection) (T, outcome)

type step[T any] struct {
	selector string
	read     reader[T]
}

// steps pairs every selector with the same reader.
func steps[T any](read reader[T], selectors ...string) []step[T] {
	out := make([]step[T], len(selectors))
	for i, s := range selectors {
		out[i] = step[T]{selector: s, read: read}
	}
	return out
}

// first evaluates the cascade in order against the first element each
// selector matches and returns the first value read successfully.
func first[T any](e *Engine, root *goquery.Selection, field string, cascade []step[T]) (T, bool) {
	for _, st := range cascade {
		sel := e.sel.Find(root, st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		v, oc := st.read(sel)
		switch oc {
		case found:
			return v, true
		case malformed:
			e.log.Debugf("%s: unusable value at %q", field, st.selector)
		}
	}
	var zero T
	return zero, false
}

func trimmedText(s *goquery.Selection) (string, outcome) {
	t := strings.TrimSpace(s.Text())
	if t == "" {
		return "", missing
	}
	return t, found
}

func attr(name string) reader[string] {
	return func(s *goquery.Selection) (string, outcome) {
		v := strings.TrimSpace(s.AttrOr(name, ""))
		if v == "" {
			return "", missing
		}
		return v, found
	}
}

// attrThenText prefers the first non-empty attribute in names, then the text.
func attrThenText(names ...string) reader[string] {
	return func(s *goquery.Selection) (string, outcome) {
		for _, n := range names {
			if v, oc := attr(n)(s); oc == found {
				return v, found
			}
		}
		return trimmedText(s)
	}
}

// decimalAttrThenText parses the content attribute, then the text, as a
// decimal. NaN and infinities are rejected.
func decimalAttrThenText(s *goquery.Selection) (float64, outcome) {
	if v, ok := s.Attr("content"); ok {
		if f, ok := parseDecimal(v); ok {
			return f, found
		}
	}
	t := strings.TrimSpace(s.Text())
	if t == "" {
		return 0, missing
	}
	f, ok := parseDecimal(t)
	if !ok {
		return 0, malformed
	}
	return f, found
}

// countAttrThenDigits parses the content attribute as an integer, then the
// digits left after stripping everything else from the text.
func countAttrThenDigits(s *goquery.Selection) (int, outcome) {
	if v, ok := s.Attr("content"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, found
		}
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s.Text())
	if digits == "" {
		return 0, missing
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, malformed
	}
	return n, found
}
