package extractor

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"pagecontent/internal/models"
)

var (
	authorCascade      = steps(trimmedText, authorSelectors...)
	publishDateCascade = steps(attrThenText("datetime"), publishDateSelectors...)
)

// Article extracts byline facts. text is the page's main text and only feeds
// the reading time. It returns nil when neither author nor date is found.
func (e *Engine) Article(doc *goquery.Document, text, rawURL string) *models.ArticleInfo {
	author, _ := first(e, doc.Selection, "article.author", authorCascade)
	date, _ := first(e, doc.Selection, "article.publish_date", publishDateCascade)

	if author == "" && date == "" && e.opts.ReadabilityFallback {
		author, date = e.readabilityByline(doc, rawURL)
	}
	if author == "" && date == "" {
		return nil
	}
	return &models.ArticleInfo{
		Author:      author,
		PublishDate: date,
		ReadingTime: readingTime(text, e.opts.WordsPerMinute),
	}
}

// readabilityByline asks go-readability for the byline and published time.
// It renders the document back to HTML because readability edits the tree it
// is given.
func (e *Engine) readabilityByline(doc *goquery.Document, rawURL string) (string, string) {
	markup, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", ""
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		pageURL = nil
	}
	art, err := readability.FromReader(strings.NewReader(markup), pageURL)
	if err != nil {
		e.log.Debugf("readability fallback for %s: %v", rawURL, err)
		return "", ""
	}
	var date string
	if art.PublishedTime != nil {
		date = art.PublishedTime.Format(time.RFC3339)
	}
	return strings.TrimSpace(art.Byline), date
}
