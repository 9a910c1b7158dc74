package classifier

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagecontent/internal/models"
	"pagecontent/internal/selector"
)

// rule is one step of the priority list. The first rule that matches decides.
type rule struct {
	name   string
	label  models.PageType
	url    []string
	markup []string
}

var rules = []rule{
	{name: "url:product", label: models.PageTypeProduct, url: []string{"/product", "/dp/", "/item/", "/p/"}},
	{name: "url:article", label: models.PageTypeArticle, url: []string{"/article", "/blog", "/post", "/news"}},
	{name: "url:search", label: models.PageTypeSearch, url: []string{"/search", "?q=", "?query="}},
	{name: "schema:product", label: models.PageTypeProduct, markup: []string{
		`[itemtype*="schema.org/Product"]`,
		`[itemtype*="Product"]`,
		`meta[property="og:type"][content="product"]`,
	}},
	{name: "schema:article", label: models.PageTypeArticle, markup: []string{
		`[itemtype*="schema.org/Article"]`,
		`[itemtype*="Article"]`,
		`[itemtype*="BlogPosting"]`,
		`meta[property="og:type"][content="article"]`,
	}},
	{name: "markup:price", label: models.PageTypeProduct, markup: []string{
		`[class*="price"]`,
		`[id*="price"]`,
		`[itemprop="price"]`,
		`[data-price]`,
	}},
}

type Classifier struct {
	sel *selector.Set
}

func New(sel *selector.Set) *Classifier {
	if sel == nil {
		sel = selector.New(nil)
	}
	return &Classifier{sel: sel}
}

// Classify returns the page type for doc fetched from rawURL. It never fails;
// a nil document is classified from the URL alone.
func (c *Classifier) Classify(doc *goquery.Document, rawURL string) models.PageType {
	label, _ := c.Explain(doc, rawURL)
	return label
}

// Explain is Classify plus the name of the rule that decided, or "default".
func (c *Classifier) Explain(doc *goquery.Document, rawURL string) (models.PageType, string) {
	u := strings.ToLower(rawURL)
	for _, r := range rules {
		if len(r.url) > 0 && containsAny(u, r.url) {
			return r.label, r.name
		}
		if len(r.markup) > 0 && doc != nil && c.sel.Any(doc.Selection, r.markup...) {
			return r.label, r.name
		}
	}
	return models.PageTypeOther, "default"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
