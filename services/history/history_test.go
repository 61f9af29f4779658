package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	seed := map[string]float64{"https://shop/a": 500}
	h := New(seed)

	p, ok := h.Price("https://shop/a")
	assert.True(t, ok)
	assert.Equal(t, 500.0, p)

	_, ok = h.Price("https://shop/b")
	assert.False(t, ok)
	assert.False(t, h.Dirty())

	h.Record("https://shop/b", 420)
	assert.True(t, h.Dirty())
	assert.Equal(t, 2, h.Len())

	// the seed map is not shared
	assert.Len(t, seed, 1)

	snap := h.Snapshot()
	snap["https://shop/c"] = 1
	assert.Equal(t, 2, h.Len())
}
