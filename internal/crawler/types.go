package crawler

import "context"

// Product represents a listing item extracted from a page
type Product struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Discount   string `json:"discount,omitempty"`
	Percentage string `json:"percentage,omitempty"`
	Image      string `json:"image,omitempty"`
	Link       string `json:"link"`
}

// Result is the outcome of crawling the listing once
type Result struct {
	Products     []Product
	PagesFetched int
	// Blocked is set when pagination stopped on a page that kept answering 403
	Blocked bool
}

// Crawler interface defines the contract for listing crawlers
type Crawler interface {
	// Crawl walks the listing pages in order and returns every extracted product
	Crawl(ctx context.Context) Result

	// CoolingDown reports whether a recent block marker says to skip this run
	CoolingDown() bool

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

// PageFetcher retrieves the raw content of one listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]byte, error)
}

// Selectors contains CSS selectors for the elements of a listing item
type Selectors struct {
	ProductList string
	OutOfStock  string
	Name        string
	Price       string
	Link        string
	OldPrice    string
	Percentage  string
	Image       string
}

// JumiaSelectors matches the Jumia catalog listing markup
var JumiaSelectors = Selectors{
	ProductList: "article.prd",
	OutOfStock:  "div.bdg._oos._xs",
	Name:        "h3.name",
	Price:       "div.prc",
	Link:        "a.core",
	OldPrice:    "div.old",
	Percentage:  "div.bdg._dsct._sm",
	Image:       "img.img",
}
