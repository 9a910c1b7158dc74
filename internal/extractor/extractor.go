// Package extractor turns a parsed HTML document into a models.PageContent.
//
// Extraction is best effort and total: every field is produced by an ordered
// cascade of selectors, malformed selectors and values count as no match, and
// a failing field falls back to its default instead of failing the page.
package extractor

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pagecontent/internal/classifier"
	"pagecontent/internal/config"
	"pagecontent/internal/models"
	"pagecontent/internal/parser"
	"pagecontent/internal/selector"
	"pagecontent/pkg/logger"
)

type Options struct {
	Currency            string
	WordsPerMinute      int
	MinContentChars     int
	MaxTextChars        int
	MaxImages           int
	MaxNameChars        int
	ReadabilityFallback bool
}

// OptionsFrom maps the extract section of the configuration.
func OptionsFrom(c config.Extract) Options {
	return Options{
		Currency:            c.Currency,
		WordsPerMinute:      c.WordsPerMinute,
		MinContentChars:     c.MinContentChars,
		MaxTextChars:        c.MaxTextChars,
		MaxImages:           c.MaxImages,
		MaxNameChars:        c.MaxNameChars,
		ReadabilityFallback: c.ReadabilityFallback,
	}
}

func DefaultOptions() Options { return OptionsFrom(config.Default().Extract) }

// Engine is safe for concurrent use; it holds no per-document state.
type Engine struct {
	opts       Options
	log        *logger.Logger
	sel        *selector.Set
	classifier *classifier.Classifier
	now        func() time.Time
}

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock replaces the extraction timestamp source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func New(opts Options, options ...Option) *Engine {
	def := DefaultOptions()
	if opts.WordsPerMinute <= 0 {
		opts.WordsPerMinute = def.WordsPerMinute
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = def.MaxTextChars
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = def.MaxImages
	}
	if opts.MaxNameChars <= 0 {
		opts.MaxNameChars = def.MaxNameChars
	}
	if opts.MinContentChars < 0 {
		opts.MinContentChars = def.MinContentChars
	}
	if opts.Currency == "" {
		opts.Currency = def.Currency
	}

	e := &Engine{opts: opts, log: logger.Nop(), now: time.Now}
	for _, o := range options {
		o(e)
	}
	e.sel = selector.New(e.log)
	e.classifier = classifier.New(e.sel)
	return e
}

// ExtractHTML parses html and extracts it. The only error is a failure to
// read the markup.
func (e *Engine) ExtractHTML(html, rawURL string) (models.PageContent, error) {
	doc, err := parser.ParseString(html)
	if err != nil {
		return models.PageContent{}, fmt.Errorf("parse html: %w", err)
	}
	return e.Extract(doc, rawURL), nil
}

// ExtractReader decodes r using contentType as a charset hint, then extracts.
func (e *Engine) ExtractReader(r io.Reader, contentType, rawURL string) (models.PageContent, error) {
	doc, err := parser.Parse(r, contentType)
	if err != nil {
		return models.PageContent{}, fmt.Errorf("parse html: %w", err)
	}
	return e.Extract(doc, rawURL), nil
}

// Extract classifies doc and then runs the extractors the page type allows.
func (e *Engine) Extract(doc *goquery.Document, rawURL string) models.PageContent {
	pc := models.PageContent{
		URL:         rawURL,
		PageType:    models.PageTypeOther,
		ExtractedAt: e.now().UTC(),
	}
	if doc == nil {
		return pc
	}

	pc.PageType = guard(e, "page_type", models.PageTypeOther, func() models.PageType {
		return e.classifier.Classify(doc, rawURL)
	})
	pc.Title = guard(e, "title", "", func() string { return e.title(doc) })
	pc.Description = guard(e, "description", "", func() string { return e.description(doc) })
	pc.Text = guard(e, "text", "", func() string { return e.mainText(doc) })

	switch pc.PageType {
	case models.PageTypeProduct:
		pc.Product = guard(e, "product", (*models.ProductInfo)(nil), func() *models.ProductInfo { return e.Product(doc) })
	case models.PageTypeArticle:
		pc.Article = guard(e, "article", (*models.ArticleInfo)(nil), func() *models.ArticleInfo { return e.Article(doc, pc.Text, rawURL) })
	}
	return pc
}

// guard runs fn and returns def if it panics.
func guard[T any](e *Engine, field string, def T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("extract %s: recovered: %v", field, r)
			out = def
		}
	}()
	return fn()
}
