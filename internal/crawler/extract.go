package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealwatcher/helpers"
	"sjsage522/dealwatcher/pkg/errors"
)

// Extractor turns a listing page into products
type Extractor struct {
	Selectors    Selectors
	LinkPrefix   string
	SkipKeywords []string
}

// NewExtractor creates an extractor. Keywords are matched case-insensitively against product names.
func NewExtractor(selectors Selectors, linkPrefix string, skipKeywords []string) *Extractor {
	keywords := make([]string, 0, len(skipKeywords))
	for _, k := range skipKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &Extractor{
		Selectors:    selectors,
		LinkPrefix:   linkPrefix,
		SkipKeywords: keywords,
	}
}

// Extract parses the page and returns its products in document order
func (e *Extractor) Extract(r io.Reader) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.NewParsing("extractor", "HTML parsing failed", err)
	}

	var products []Product
	doc.Find(e.Selectors.ProductList).Each(func(_ int, s *goquery.Selection) {
		if p, ok := e.processProduct(s); ok {
			products = append(products, p)
		}
	})

	return products, nil
}

// processProduct extracts a single listing item; ok is false when the item is skipped
func (e *Extractor) processProduct(s *goquery.Selection) (Product, bool) {
	if e.Selectors.OutOfStock != "" && s.Find(e.Selectors.OutOfStock).Length() > 0 {
		return Product{}, false
	}

	nameSel := s.Find(e.Selectors.Name).First()
	priceSel := s.Find(e.Selectors.Price).First()
	linkSel := s.Find(e.Selectors.Link).First()
	if nameSel.Length() == 0 || priceSel.Length() == 0 || linkSel.Length() == 0 {
		return Product{}, false
	}

	name := strings.TrimSpace(nameSel.Text())
	if name == "" {
		return Product{}, false
	}
	if helpers.ContainsAny(strings.ToLower(name), e.SkipKeywords) {
		return Product{}, false
	}

	href, exists := linkSel.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return Product{}, false
	}

	return Product{
		Name:       name,
		Price:      strings.TrimSpace(priceSel.Text()),
		Discount:   e.text(s, e.Selectors.OldPrice),
		Percentage: e.text(s, e.Selectors.Percentage),
		Image:      e.image(s),
		Link:       e.ResolveURL(href),
	}, true
}

func (e *Extractor) text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// image prefers the lazy-load attribute over src
func (e *Extractor) image(s *goquery.Selection) string {
	if e.Selectors.Image == "" {
		return ""
	}

	img := s.Find(e.Selectors.Image).First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("data-src"); ok && strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src)
	}
	src, _ := img.Attr("src")
	return strings.TrimSpace(src)
}

// ResolveURL prefixes site-relative links with the configured link prefix
func (e *Extractor) ResolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return e.LinkPrefix + href
}
