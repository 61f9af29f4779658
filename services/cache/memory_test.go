package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryService(t *testing.T) {
	var svc CacheService = NewMemoryService(time.Minute)

	_, err := svc.Get("listing_blocked")
	assert.True(t, IsMiss(err))

	require.NoError(t, svc.Set("listing_blocked", []byte("600"), time.Minute))
	value, err := svc.Get("listing_blocked")
	require.NoError(t, err)
	assert.Equal(t, []byte("600"), value)

	require.NoError(t, svc.Delete("listing_blocked"))
	_, err = svc.Get("listing_blocked")
	assert.True(t, IsMiss(err))
}

func TestMemoryServiceExpiration(t *testing.T) {
	svc := NewMemoryService(time.Minute)

	require.NoError(t, svc.Set("listing_blocked", []byte("1"), 20*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	_, err := svc.Get("listing_blocked")
	assert.True(t, IsMiss(err))
}
