package models

import (
	"fmt"
	"strings"
	"time"
)

type PageType string

const (
	PageTypeProduct PageType = "product"
	PageTypeArticle PageType = "article"
	PageTypeSearch  PageType = "search"
	PageTypeOther   PageType = "other"
)

func (t PageType) String() string { return string(t) }

// UnmarshalText accepts any casing of the four variant names.
func (t *PageType) UnmarshalText(b []byte) error {
	switch v := PageType(strings.ToLower(strings.TrimSpace(string(b)))); v {
	case PageTypeProduct, PageTypeArticle, PageTypeSearch, PageTypeOther:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown page type %q", string(b))
	}
}

type ProductInfo struct {
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Currency     string   `json:"currency"`
	Images       []string `json:"images"`
	Description  string   `json:"description"`
	Rating       *float64 `json:"rating"`
	ReviewCount  *int     `json:"review_count"`
	Availability string   `json:"availability"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
}

type ArticleInfo struct {
	Author      string `json:"author"`
	PublishDate string `json:"publish_date"`
	ReadingTime int    `json:"reading_time"`
}

// PageContent is the assembled extraction record. Product is set only for
// product pages and Article only for article pages with an author or date.
type PageContent struct {
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Text        string       `json:"text"`
	PageType    PageType     `json:"page_type"`
	ExtractedAt time.Time    `json:"extracted_at"`
	Product     *ProductInfo `json:"product"`
	Article     *ArticleInfo `json:"article"`
}

// BatchItem is one line of a batch response.
type BatchItem struct {
	URL    string       `json:"url"`
	Result *PageContent `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}
