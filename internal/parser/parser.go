package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Elements whose text never belongs to page content.
const strippedElements = "script,noscript,style,template"

// Parse decodes r to UTF-8 using the body and contentType hints and returns
// the parsed document with non-content elements removed.
func Parse(r io.Reader, contentType string) (*goquery.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, contentType)
}

func ParseBytes(data []byte, contentType string) (*goquery.Document, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return build(bytes.NewReader(utf8data))
}

// ParseString parses text that is already UTF-8.
func ParseString(html string) (*goquery.Document, error) {
	return build(strings.NewReader(html))
}

func build(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find(strippedElements).Remove()
	return doc, nil
}
