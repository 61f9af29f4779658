package worker

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/dealwatcher/internal/crawler"
	"sjsage522/dealwatcher/internal/deal"
	"sjsage522/dealwatcher/services/history"
	"sjsage522/dealwatcher/services/notifier"
	"sjsage522/dealwatcher/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCrawler implements the crawler.Crawler interface for testing
type MockCrawler struct {
	name        string
	products    []crawler.Product
	coolingDown bool
	blocked     bool
	calls       int
}

// Ensure MockCrawler implements crawler.Crawler
var _ crawler.Crawler = (*MockCrawler)(nil)

func (m *MockCrawler) Crawl(_ context.Context) crawler.Result {
	m.calls++
	pages := 0
	if len(m.products) > 0 {
		pages = 1
	}
	return crawler.Result{Products: m.products, PagesFetched: pages, Blocked: m.blocked}
}

func (m *MockCrawler) CoolingDown() bool {
	return m.coolingDown
}

func (m *MockCrawler) GetName() string {
	return m.name
}

// MockStore implements history.Store in memory
type MockStore struct {
	seed    map[string]float64
	saved   map[string]float64
	saves   int
	loadErr error
	saveErr error
}

var _ history.Store = (*MockStore)(nil)

func (m *MockStore) Load(_ context.Context) (*history.History, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return history.New(m.seed), nil
}

func (m *MockStore) Save(_ context.Context, h *history.History) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = h.Snapshot()
	return nil
}

// MockNotifier records the deals it was asked to announce
type MockNotifier struct {
	deals []crawler.Product
}

var _ notifier.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(_ context.Context, deals []crawler.Product) int {
	m.deals = append(m.deals, deals...)
	return len(deals)
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages []map[string]string
	trims    int
	failOn   string
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(_ context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != "" && strings.Contains(string(message), m.failOn) {
		return errors.New("stream unavailable")
	}
	m.messages = append(m.messages, map[string]string{key: base64.StdEncoding.EncodeToString(message)})
	return nil
}

func (m *MockPublisher) TrimStreams(_ context.Context) error {
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func testSelector() deal.Selector {
	return deal.Selector{PriceThreshold: 550, DiscountThreshold: 20, MinPriceDrop: 30}
}

func listing() []crawler.Product {
	return []crawler.Product{
		{Name: "Parka", Price: "EGP 1,500", Link: "https://shop/parka"},
		{Name: "Coat", Price: "EGP 500", Link: "https://shop/coat"},
		{Name: "Jacket", Price: "EGP 2,000", Percentage: "-40%", Link: "https://shop/jacket"},
	}
}

func TestWorkerRunNewDeals(t *testing.T) {
	store := &MockStore{}
	n := &MockNotifier{}
	pub := &MockPublisher{}

	w := NewWorker(&MockCrawler{name: "Jumia", products: listing()}, testSelector(), store, n, pub)
	summary := w.Run(context.Background())

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Products)
	assert.Equal(t, 2, summary.Discovered)
	assert.Equal(t, 2, summary.NewDeals)
	assert.Equal(t, 2, summary.Notified)
	assert.Equal(t, 2, summary.Published)
	assert.True(t, summary.HistorySaved)

	require.Len(t, n.deals, 2)
	assert.Equal(t, "Coat", n.deals[0].Name)
	assert.Equal(t, "Jacket", n.deals[1].Name)

	assert.Equal(t, map[string]float64{"https://shop/coat": 500, "https://shop/jacket": 2000}, store.saved)
	assert.Equal(t, 1, pub.trims)
	require.Len(t, pub.messages, 2)
	raw, err := base64.StdEncoding.DecodeString(pub.messages[0][publisher.DealKey])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Coat","price":"EGP 500","link":"https://shop/coat"}`, string(raw))
}

func TestWorkerRunNoNewDeals(t *testing.T) {
	store := &MockStore{seed: map[string]float64{"https://shop/coat": 500, "https://shop/jacket": 2000}}
	n := &MockNotifier{}
	pub := &MockPublisher{}

	w := NewWorker(&MockCrawler{name: "Jumia", products: listing()}, testSelector(), store, n, pub)
	summary := w.Run(context.Background())

	assert.Equal(t, 2, summary.Discovered)
	assert.Zero(t, summary.NewDeals)
	assert.Empty(t, n.deals)
	assert.Empty(t, pub.messages)
	assert.Zero(t, store.saves, "history must not be rewritten on a no-op run")
	assert.False(t, summary.HistorySaved)

	again := w.Run(context.Background())
	assert.NotEqual(t, summary.RunID, again.RunID)
}

func TestWorkerRunNoProducts(t *testing.T) {
	store := &MockStore{}
	n := &MockNotifier{}

	w := NewWorker(&MockCrawler{name: "Jumia", blocked: true}, testSelector(), store, n, nil)
	summary := w.Run(context.Background())

	assert.True(t, summary.Blocked)
	assert.Zero(t, summary.Products)
	assert.Empty(t, n.deals)
	assert.Zero(t, store.saves)
}

func TestWorkerRunCoolingDown(t *testing.T) {
	c := &MockCrawler{name: "Jumia", products: listing(), coolingDown: true}
	store := &MockStore{}

	summary := NewWorker(c, testSelector(), store, &MockNotifier{}, nil).Run(context.Background())

	assert.True(t, summary.SkippedCooldown)
	assert.Zero(t, c.calls)
	assert.Zero(t, store.saves)
}

func TestWorkerRunHistoryErrors(t *testing.T) {
	store := &MockStore{loadErr: errors.New("disk gone"), saveErr: errors.New("disk gone")}
	n := &MockNotifier{}

	summary := NewWorker(&MockCrawler{name: "Jumia", products: listing()}, testSelector(), store, n, nil).
		Run(context.Background())

	assert.Equal(t, 2, summary.NewDeals)
	assert.Len(t, n.deals, 2)
	assert.Equal(t, 1, store.saves)
	assert.False(t, summary.HistorySaved)
	assert.Zero(t, summary.Published)
}

func TestWorkerPublishFailureIsSkipped(t *testing.T) {
	pub := &MockPublisher{failOn: "Coat"}

	summary := NewWorker(&MockCrawler{name: "Jumia", products: listing()}, testSelector(), &MockStore{}, &MockNotifier{}, pub).
		Run(context.Background())

	assert.Equal(t, 1, summary.Published)
	assert.Equal(t, 1, pub.trims)
	assert.True(t, summary.HistorySaved)
}

func TestWorkerNilNotifier(t *testing.T) {
	summary := NewWorker(&MockCrawler{name: "Jumia", products: listing()}, testSelector(), &MockStore{}, nil, nil).
		Run(context.Background())

	assert.Zero(t, summary.Notified)
	assert.True(t, summary.HistorySaved)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	c := &MockCrawler{name: "Jumia", coolingDown: true}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewWorker(c, testSelector(), &MockStore{}, &MockNotifier{}, nil).Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
