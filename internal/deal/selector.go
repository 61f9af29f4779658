// Package deal decides which listing products are worth an alert
package deal

import (
	"sort"

	"github.com/samber/lo"

	"sjsage522/dealwatcher/internal/crawler"
	"sjsage522/dealwatcher/internal/price"
	"sjsage522/dealwatcher/services/history"
)

// Selector applies the interest and novelty filters
type Selector struct {
	PriceThreshold    float64
	DiscountThreshold int
	MinPriceDrop      float64
}

// SortByPrice orders products by parsed price, cheapest first. Equal prices keep listing order.
func SortByPrice(products []crawler.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return price.ParsePrice(products[i].Price) < price.ParsePrice(products[j].Price)
	})
}

// Interesting reports whether p is cheap enough or discounted enough
func (s Selector) Interesting(p crawler.Product) bool {
	return price.ParsePrice(p.Price) <= s.PriceThreshold ||
		price.ParsePercentage(p.Percentage) >= s.DiscountThreshold
}

// Discovered returns the interesting products in their current order
func (s Selector) Discovered(products []crawler.Product) []crawler.Product {
	return lo.Filter(products, func(p crawler.Product, _ int) bool {
		return s.Interesting(p)
	})
}

// Select sorts products, keeps the interesting ones and returns those never alerted before
// or whose price fell by at least MinPriceDrop since the last alert.
// Every returned deal is recorded in h at its current price.
func (s Selector) Select(products []crawler.Product, h *history.History) []crawler.Product {
	sorted := make([]crawler.Product, len(products))
	copy(sorted, products)
	SortByPrice(sorted)

	var deals []crawler.Product
	for _, p := range s.Discovered(sorted) {
		current := price.ParsePrice(p.Price)

		if last, seen := h.Price(p.Link); seen && last-current < s.MinPriceDrop {
			continue
		}

		h.Record(p.Link, current)
		deals = append(deals, p)
	}

	return deals
}
