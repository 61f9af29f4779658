package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/dealwatcher/config"
	"sjsage522/dealwatcher/internal/crawler"
	"sjsage522/dealwatcher/internal/deal"
	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/services/cache"
	"sjsage522/dealwatcher/services/history"
	"sjsage522/dealwatcher/services/notifier"
	"sjsage522/dealwatcher/services/publisher"
	"sjsage522/dealwatcher/services/worker"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("site", cfg.SiteName).
		Int("pages", cfg.PagesToScrape).
		Dur("run_interval", cfg.RunInterval).
		Msg("Starting application")

	// Cancel on SIGINT/SIGTERM so backoff waits end early
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	w := newWorker(cfg, services)

	if cfg.RunInterval > 0 {
		log.Info().Msg("Starting deal watcher")
		w.Start(ctx, cfg.RunInterval)
	} else {
		w.Run(ctx)
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Redis     *redis.Client
	Publisher publisher.Publisher
	History   history.Store
	Notifier  notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// initializeServices builds the optional backends. A backend that cannot be reached is disabled, not fatal.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Msg("Memcache unavailable, block cooldown disabled")
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	// A long-running watcher keeps the block marker in memory when memcache is absent
	if services.Cache == nil && cfg.RunInterval > 0 {
		services.Cache = cache.NewMemoryService(cfg.BlockTime)
		logger.ForCache().Info().Msg("Using in-memory cache for block cooldown")
	}

	// Initialize Redis, shared by the publisher and the Redis history store
	if cfg.RedisAddr != "" {
		services.Redis = publisher.NewRedisClient(cfg.RedisAddr, cfg.RedisDB)
		if err := services.Redis.Ping(ctx).Err(); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis not reachable yet")
		}
		services.Publisher = publisher.NewRedisPublisher(services.Redis, cfg.RedisStream, cfg.RedisStreamMaxLength)

		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	// Initialize history store
	if cfg.HistoryBackend == config.HistoryBackendRedis && services.Redis != nil {
		services.History = history.NewRedisStore(services.Redis, cfg.HistoryRedisKey)
	} else {
		services.History = history.NewFileStore(cfg.HistoryFile)
	}

	// Initialize notifier
	services.Notifier = notifier.NopNotifier{}
	if cfg.TelegramEnabled() {
		sender, err := notifier.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.ForNotifier().Error().Err(err).Msg("Telegram disabled")
		} else {
			services.Notifier = notifier.NewDealNotifier(sender, cfg.SiteName)
		}
	}

	return services
}

// newWorker wires the listing crawler and the deal pipeline
func newWorker(cfg *config.Config, services *Services) *worker.Worker {
	proxies := crawler.NewProxyPool(cfg.Proxies(), nil)
	logger.ForCrawler(cfg.SiteName).Info().Interface("proxy_stats", proxies.Stats()).Msg("Proxy stats")

	fetcher := crawler.NewFetcher(
		cfg.PageURL,
		proxies,
		crawler.WithTransport(crawler.NewHTTPTransport(cfg.RequestTimeout)),
	)
	extractor := crawler.NewExtractor(crawler.JumiaSelectors, cfg.LinkPrefix, cfg.SkipKeywords)

	listing := crawler.NewListingCrawler(crawler.ListingConfig{
		Name:      cfg.SiteName,
		Pages:     cfg.PagesToScrape,
		BlockTime: cfg.BlockTime,
	}, fetcher, extractor, services.Cache)

	selector := deal.Selector{
		PriceThreshold:    cfg.PriceThreshold,
		DiscountThreshold: cfg.DiscountThreshold,
		MinPriceDrop:      cfg.MinPriceDrop,
	}

	return worker.NewWorker(listing, selector, services.History, services.Notifier, services.Publisher)
}
