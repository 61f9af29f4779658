package history

import (
	"context"
	"maps"
)

// History maps a product link to the price it was last alerted at
type History struct {
	prices map[string]float64
	dirty  bool
}

// New creates a history seeded with prices; the map is copied
func New(prices map[string]float64) *History {
	h := &History{prices: make(map[string]float64, len(prices))}
	maps.Copy(h.prices, prices)
	return h
}

// Price returns the last alerted price for link
func (h *History) Price(link string) (float64, bool) {
	p, ok := h.prices[link]
	return p, ok
}

// Record stores the alerted price for link and marks the history dirty
func (h *History) Record(link string, price float64) {
	h.prices[link] = price
	h.dirty = true
}

// Dirty reports whether Record was called since the history was loaded
func (h *History) Dirty() bool {
	return h.dirty
}

// Len returns the number of links in the history
func (h *History) Len() int {
	return len(h.prices)
}

// Snapshot returns a copy of the link to price mapping
func (h *History) Snapshot() map[string]float64 {
	return maps.Clone(h.prices)
}

// Store loads and persists the deal history
type Store interface {
	// Load returns the persisted history; an absent or unreadable state yields an empty history
	Load(ctx context.Context) (*History, error)

	// Save persists the whole history
	Save(ctx context.Context, h *History) error
}
