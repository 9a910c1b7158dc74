package extractor

// Selector lists are evaluated top to bottom; earlier entries win.

var contentAreaSelectors = []string{
	"main",
	"article",
	`[role="main"]`,
	".main-content",
	"#main-content",
	".content",
	"#content",
	".post-content",
	".entry-content",
	".article-content",
	".article-body",
	".story-body",
}

var (
	productNameSelectors = []string{
		`[itemprop="name"]`,
		".product-title",
		".product-name",
		".product_title",
		"#productTitle",
		"#product-title",
		"#product-name",
		"h1",
	}

	productPriceSelectors = []string{
		`[itemprop="price"]`,
		".price",
		".product-price",
		"#priceblock_ourprice",
		"[data-price]",
		".price-current",
		".sale-price",
		"#price",
		".a-price .a-offscreen",
		`[class*="price"]`,
	}

	productImageSelectors = []string{
		`img[itemprop="image"]`,
		".product-image img",
		".product-gallery img",
		"#product-image img",
		"#landingImage",
		".gallery img",
		"img.product-img",
	}

	productDescriptionSelectors = []string{
		`[itemprop="description"]`,
		".product-description",
		"#productDescription",
		"#product-description",
		".description",
	}

	productRatingSelectors = []string{
		`[itemprop="ratingValue"]`,
		".rating-value",
		".average-rating",
		".rating",
		".star-rating",
	}

	productReviewCountSelectors = []string{
		`[itemprop="reviewCount"]`,
		".review-count",
		".reviews-count",
		"#acrCustomerReviewText",
	}

	productAvailabilitySelectors = []string{
		`[itemprop="availability"]`,
		".availability",
		"#availability",
		".stock-status",
		".in-stock",
		".out-of-stock",
	}

	productBrandSelectors = []string{
		`[itemprop="brand"]`,
		".product-brand",
		".brand",
		"#bylineInfo",
	}
)

var (
	authorSelectors = []string{
		`[itemprop="author"]`,
		".author-name",
		".author",
		".byline",
		".post-author",
		`a[rel="author"]`,
		`[rel="author"]`,
	}

	publishDateSelectors = []string{
		`[itemprop="datePublished"]`,
		"time[datetime]",
		"time",
		".published",
		".publish-date",
		".post-date",
		".date",
	}
)
