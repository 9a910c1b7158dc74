package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const ellipsis = "..."

var (
	titleCascade = []step[string]{
		{selector: `meta[property="og:title"]`, read: attr("content")},
		{selector: "title", read: trimmedText},
	}
	descriptionCascade = []step[string]{
		{selector: `meta[property="og:description"]`, read: attr("content")},
		{selector: `meta[name="description"]`, read: attr("content")},
	}
)

func (e *Engine) title(doc *goquery.Document) string {
	t, _ := first(e, doc.Selection, "title", titleCascade)
	return t
}

func (e *Engine) description(doc *goquery.Document) string {
	d, _ := first(e, doc.Selection, "description", descriptionCascade)
	return d
}

// mainText returns the normalized text of the first element matched by the
// first content-area selector whose text is longer than MinContentChars, else
// of the whole body, capped at MaxTextChars. Only the first match of each
// selector is considered.
func (e *Engine) mainText(doc *goquery.Document) string {
	for _, sel := range contentAreaSelectors {
		area := e.sel.Find(doc.Selection, sel).First()
		if area.Length() == 0 {
			continue
		}
		if t := normalizeText(area); utf8.RuneCountInString(t) > e.opts.MinContentChars {
			return truncate(t, e.opts.MaxTextChars)
		}
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return truncate(normalizeText(body), e.opts.MaxTextChars)
}

// normalizeText joins every text node under s with single spaces, collapsing
// all runs of whitespace.
func normalizeText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			for _, w := range strings.Fields(n.Data) {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(w)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

// truncate keeps the first max characters and appends an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	i, n := 0, 0
	for i = range s {
		if n == max {
			break
		}
		n++
	}
	return s[:i] + ellipsis
}

// readingTime is the word count over wpm, rounded up, never below one minute.
func readingTime(text string, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	words := len(strings.Fields(text))
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		return 1
	}
	return minutes
}
