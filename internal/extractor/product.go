package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"pagecontent/internal/models"
)

const unknownAvailability = "Unknown"

// Product extracts product facts. It returns nil when no name is found.
func (e *Engine) Product(doc *goquery.Document) *models.ProductInfo {
	root := doc.Selection

	name, ok := first(e, root, "product.name", steps(e.nameReader, productNameSelectors...))
	if !ok {
		return nil
	}

	p := &models.ProductInfo{
		Name:         name,
		Currency:     e.opts.Currency,
		Images:       e.productImages(root),
		Availability: unknownAvailability,
	}

	if v, ok := first(e, root, "product.price", steps(priceReader, productPriceSelectors...)); ok {
		p.Price = &v
	}
	if v, ok := first(e, root, "product.rating", steps(decimalAttrThenText, productRatingSelectors...)); ok {
		p.Rating = &v
	}
	if v, ok := first(e, root, "product.review_count", steps(countAttrThenDigits, productReviewCountSelectors...)); ok {
		p.ReviewCount = &v
	}
	p.Description, _ = first(e, root, "product.description", steps(trimmedText, productDescriptionSelectors...))
	p.Brand, _ = first(e, root, "product.brand", steps(trimmedText, productBrandSelectors...))
	if v, ok := first(e, root, "product.availability", steps(trimmedText, productAvailabilitySelectors...)); ok {
		p.Availability = v
	}
	return p
}

func (e *Engine) nameReader(s *goquery.Selection) (string, outcome) {
	name, oc := trimmedText(s)
	if oc != found {
		return "", oc
	}
	if utf8.RuneCountInString(name) >= e.opts.MaxNameChars {
		return "", malformed
	}
	return name, found
}

// productImages collects src (or data-src) values from every element of
// every image selector in order, dropping duplicates, up to MaxImages.
func (e *Engine) productImages(root *goquery.Selection) []string {
	images := make([]string, 0, e.opts.MaxImages)
	seen := make(map[string]struct{})
	for _, sel := range productImageSelectors {
		e.sel.Find(root, sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := strings.TrimSpace(s.AttrOr("src", ""))
			if src == "" {
				src = strings.TrimSpace(s.AttrOr("data-src", ""))
			}
			if src == "" {
				return true
			}
			if _, dup := seen[src]; dup {
				return true
			}
			seen[src] = struct{}{}
			images = append(images, src)
			return len(images) < e.opts.MaxImages
		})
		if len(images) >= e.opts.MaxImages {
			break
		}
	}
	return images
}
