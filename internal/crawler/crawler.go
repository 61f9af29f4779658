package crawler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/pkg/errors"
	"sjsage522/dealwatcher/services/cache"
)

// ListingCrawler walks the numbered pages of a catalog listing
type ListingCrawler struct {
	Name      string
	Pages     int
	fetcher   PageFetcher
	extractor *Extractor
	cacheSvc  cache.CacheService
	cacheKey  string
	blockTime time.Duration
	log       *logger.Logger
}

// ListingConfig contains configuration for a listing crawler
type ListingConfig struct {
	Name      string
	Pages     int
	CacheKey  string
	BlockTime time.Duration
}

// NewListingCrawler creates a listing crawler. cacheSvc may be nil to disable the block cooldown.
func NewListingCrawler(cfg ListingConfig, fetcher PageFetcher, extractor *Extractor, cacheSvc cache.CacheService) *ListingCrawler {
	cacheKey := cfg.CacheKey
	if cacheKey == "" {
		cacheKey = "listing_blocked"
	}

	return &ListingCrawler{
		Name:      cfg.Name,
		Pages:     cfg.Pages,
		fetcher:   fetcher,
		extractor: extractor,
		cacheSvc:  cacheSvc,
		cacheKey:  cacheKey,
		blockTime: cfg.BlockTime,
		log:       logger.ForCrawler(cfg.Name),
	}
}

// GetName returns the crawler's name
func (c *ListingCrawler) GetName() string {
	return c.Name
}

// CoolingDown reports whether a previous run left a block marker that has not expired
func (c *ListingCrawler) CoolingDown() bool {
	if c.cacheSvc == nil {
		return false
	}

	if _, err := c.cacheSvc.Get(c.cacheKey); err != nil {
		if !cache.IsMiss(err) {
			logger.ForCache().Warn().Err(err).Str("key", c.cacheKey).Msg("Failed to read block marker")
		}
		return false
	}
	return true
}

// Crawl fetches pages 1..Pages in order and stops at the first page without products.
// A page whose retries are exhausted counts as empty.
func (c *ListingCrawler) Crawl(ctx context.Context) Result {
	var result Result

	for page := 1; page <= c.Pages; page++ {
		if ctx.Err() != nil {
			c.log.Warn().Err(ctx.Err()).Int("page", page).Msg("Crawl cancelled")
			break
		}

		c.log.Info().Int("page", page).Msg("Scraping page")

		products, err := c.crawlPage(ctx, page)
		if err != nil {
			c.log.Error().Err(err).Int("page", page).Msg("Page failed")
			if errors.IsBlocked(err) {
				result.Blocked = true
				c.markBlocked()
			}
			break
		}

		result.PagesFetched++
		c.log.Info().Int("page", page).Int("products", len(products)).Msg("Found products")

		if len(products) == 0 {
			break
		}
		result.Products = append(result.Products, products...)
	}

	return result
}

func (c *ListingCrawler) crawlPage(ctx context.Context, page int) ([]Product, error) {
	body, err := c.fetcher.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(bytes.NewReader(body))
}

// markBlocked stores the block marker so the next runs within blockTime skip the site
func (c *ListingCrawler) markBlocked() {
	if c.cacheSvc == nil || c.blockTime <= 0 {
		return
	}

	value := []byte(fmt.Sprintf("%d", int(c.blockTime/time.Second)))
	if err := c.cacheSvc.Set(c.cacheKey, value, c.blockTime); err != nil {
		logger.ForCache().Warn().Err(err).Str("key", c.cacheKey).Msg("Failed to store block marker")
		return
	}
	c.log.Warn().Dur("block_time", c.blockTime).Msg("Listing blocked, cooling down")
}
