package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"sjsage522/dealwatcher/helpers"
	"sjsage522/dealwatcher/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip

// PagePlaceholder is substituted with the page number in BaseURL
const PagePlaceholder = "{page}"

// History backends
const (
	HistoryBackendFile  = "file"
	HistoryBackendRedis = "redis"
)

// Config represents the application configuration
type Config struct {
	// Listing configuration
	BaseURL        string        `env:"BASE_URL" envDefault:"https://www.jumia.com.eg/mens-jackets-coats/defacto/?sort=lowest-price&page={page}#catalog-listing" validate:"required,contains={page}"`
	PagesToScrape  int           `env:"PAGES_TO_SCRAPE" envDefault:"6" validate:"gt=0"`
	LinkPrefix     string        `env:"LINK_PREFIX" envDefault:"https://www.jumia.com.eg/ar" validate:"omitempty,url"`
	SiteName       string        `env:"SITE_NAME" envDefault:"Jumia"`
	SkipKeywords   []string      `env:"SKIP_KEYWORDS" envSeparator:"," envDefault:"jean,bermuda,shorts,pants,t-shirt,polo,hoodie,sweatshirt,cardigan,vest"`
	ProxyList      string        `env:"PROXY_LIST"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0s"`

	// Deal thresholds
	PriceThreshold    float64 `env:"PRICE_THRESHOLD" envDefault:"550" validate:"gte=0"`
	DiscountThreshold int     `env:"DISCOUNT_THRESHOLD" envDefault:"20" validate:"gte=0"`
	MinPriceDrop      float64 `env:"MIN_PRICE_DROP" envDefault:"30" validate:"gte=0"`

	// History configuration
	HistoryBackend  string `env:"HISTORY_BACKEND" envDefault:"file" validate:"oneof=file redis"`
	HistoryFile     string `env:"HISTORY_FILE" envDefault:"sent_deals.json" validate:"required_if=HistoryBackend file"`
	HistoryRedisKey string `env:"HISTORY_REDIS_KEY" envDefault:"dealwatcher:history"`

	// Telegram configuration
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`

	// Memcache configuration, empty disables the block cooldown
	MemcacheAddr string        `env:"MEMCACHE_ADDR"`
	BlockTime    time.Duration `env:"BLOCK_TIME" envDefault:"10m" validate:"gte=0s"`

	// Redis configuration, empty disables stream publishing
	RedisAddr            string `env:"REDIS_ADDR" validate:"required_if=HistoryBackend redis"`
	RedisDB              int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	RedisStream          string `env:"REDIS_STREAM" envDefault:"deals"`
	RedisStreamMaxLength int    `env:"REDIS_STREAM_MAX_LENGTH" envDefault:"1000" validate:"gte=0"`

	// Environment, RunInterval 0 runs the pipeline once and exits
	Environment string        `env:"DEALWATCHER_ENVIRONMENT" envDefault:"development"`
	RunInterval time.Duration `env:"RUN_INTERVAL" envDefault:"0s" validate:"gte=0s"`
}

// LoadConfig loads the configuration from a .env file (if any) and environment variables
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.NewConfiguration("failed to parse environment", err)
	}

	cfg.SkipKeywords = normalizeKeywords(cfg.SkipKeywords)
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfiguration("invalid configuration", err)
	}
	return nil
}

// PageURL returns the listing URL for a page number
func (c *Config) PageURL(page int) string {
	return strings.ReplaceAll(c.BaseURL, PagePlaceholder, fmt.Sprint(page))
}

// Proxies returns the configured proxy pool, split on commas and newlines
func (c *Config) Proxies() []string {
	return helpers.SplitList(c.ProxyList)
}

// TelegramEnabled reports whether both Telegram credentials are present
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
