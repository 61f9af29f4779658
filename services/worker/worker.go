package worker

import (
	"context"
	"time"

	"sjsage522/dealwatcher/internal/crawler"
	"sjsage522/dealwatcher/internal/deal"
	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/services/history"
	"sjsage522/dealwatcher/services/notifier"
	"sjsage522/dealwatcher/services/publisher"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/xid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// Summary holds the counters of one pipeline run
type Summary struct {
	RunID           string
	SkippedCooldown bool
	Blocked         bool
	PagesFetched    int
	Products        int
	Discovered      int
	NewDeals        int
	Notified        int
	Published       int
	HistorySaved    bool
	Elapsed         time.Duration
}

// Worker runs the crawl, select, alert and persist pipeline
type Worker struct {
	crawler   crawler.Crawler
	selector  deal.Selector
	store     history.Store
	notifier  notifier.Notifier
	publisher publisher.Publisher
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil to disable stream publishing.
func NewWorker(
	c crawler.Crawler,
	selector deal.Selector,
	store history.Store,
	n notifier.Notifier,
	pub publisher.Publisher,
) *Worker {
	if n == nil {
		n = notifier.NopNotifier{}
	}

	return &Worker{
		crawler:   c,
		selector:  selector,
		store:     store,
		notifier:  n,
		publisher: pub,
		log:       logger.ForWorker().WithField("crawler", c.GetName()),
	}
}

// Start runs the pipeline every interval until ctx is cancelled
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	for {
		w.Run(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// Run executes the pipeline once. It never fails; problems are logged and reflected in the summary.
func (w *Worker) Run(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{RunID: xid.New().String()}
	log := w.log.WithField("run_id", summary.RunID)
	defer func() {
		summary.Elapsed = time.Since(start)
		logSummary(log, summary)
	}()

	log.Info().Msg("Starting run")

	if w.crawler.CoolingDown() {
		log.Warn().Msg("Listing was recently blocked, skipping run")
		summary.SkippedCooldown = true
		return summary
	}

	result := w.crawler.Crawl(ctx)
	summary.PagesFetched = result.PagesFetched
	summary.Products = len(result.Products)
	summary.Blocked = result.Blocked

	if len(result.Products) == 0 {
		log.Warn().Msg("No products found (likely blocked)")
		return summary
	}

	summary.Discovered = len(w.selector.Discovered(result.Products))

	h, err := w.store.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load history, starting empty")
		h = history.New(nil)
	}

	deals := w.selector.Select(result.Products, h)
	summary.NewDeals = len(deals)

	if len(deals) == 0 {
		log.Info().Msg("No new deals found to alert")
		return summary
	}

	logFirstDeal(log, deals[0])

	summary.Notified = w.notifier.Notify(ctx, deals)
	summary.Published = w.publish(ctx, log, deals)

	if h.Dirty() {
		if err := w.store.Save(ctx, h); err != nil {
			log.Error().Err(err).Msg("Failed to save history")
		} else {
			summary.HistorySaved = true
		}
	}

	log.Info().Int("deals", len(deals)).Msg("Success! Sent deals")
	return summary
}

// publish pushes every deal to the stream and trims it afterwards
func (w *Worker) publish(ctx context.Context, log *logger.Logger, deals []crawler.Product) int {
	if w.publisher == nil {
		return 0
	}

	published := 0
	for _, d := range deals {
		dealData, err := json.Marshal(d)
		if err != nil {
			log.Error().Err(err).Str("link", d.Link).Msg("Failed to encode deal")
			continue
		}

		if err := w.publisher.Publish(ctx, publisher.DealKey, dealData); err != nil {
			log.Error().Err(err).Str("link", d.Link).Msg("Failed to publish deal")
			continue
		}
		published++
	}

	// Trim the stream after publishing
	if err := w.publisher.TrimStreams(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to trim stream")
	}

	return published
}

// logFirstDeal logs the cheapest new deal in debug mode, without the image URL
func logFirstDeal(log *logger.Logger, d crawler.Product) {
	if !logger.IsDebugEnabled() {
		return
	}

	if d.Image != "" {
		d.Image = "OK"
	}
	dealData, err := json.Marshal(d)
	if err != nil {
		return
	}
	log.Debug().RawJSON("deal", dealData).Msg("First new deal")
}

func logSummary(log *logger.Logger, s Summary) {
	log.Info().
		Bool("skipped_cooldown", s.SkippedCooldown).
		Bool("blocked", s.Blocked).
		Int("pages", s.PagesFetched).
		Int("products", s.Products).
		Int("discovered", s.Discovered).
		Int("new_deals", s.NewDeals).
		Int("notified", s.Notified).
		Int("published", s.Published).
		Bool("history_saved", s.HistorySaved).
		Str("elapsed", s.Elapsed.Round(10*time.Millisecond).String()).
		Msg("Done")
}
