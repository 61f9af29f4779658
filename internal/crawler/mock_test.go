package crawler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sjsage522/dealwatcher/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
	ttl   map[string]time.Duration
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
		ttl:   make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	m.ttl[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// call records one transport request
type call struct {
	URL    string
	Proxy  string
	Header http.Header
}

// mockTransport replays scripted responses in order, repeating the last one
type mockTransport struct {
	mu        sync.Mutex
	responses []scripted
	calls     []call
}

type scripted struct {
	resp *Response
	err  error
}

func (m *mockTransport) Get(_ context.Context, rawURL string, header http.Header, proxy string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, call{URL: rawURL, Proxy: proxy, Header: header})
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx].resp, m.responses[idx].err
}

func status(code int, body string) scripted {
	return scripted{resp: &Response{StatusCode: code, ContentType: "text/html; charset=utf-8", Body: []byte(body)}}
}

func failure(err error) scripted {
	return scripted{err: err}
}

// sequencePicker returns the scripted indexes in order, then 0
type sequencePicker struct {
	seq []int
	pos int
}

func (p *sequencePicker) IntN(n int) int {
	if p.pos >= len(p.seq) {
		return 0
	}
	v := p.seq[p.pos] % n
	p.pos++
	return v
}

// recordingSleeper records requested waits without blocking
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

// pageFetcherFunc adapts a function to PageFetcher
type pageFetcherFunc func(ctx context.Context, page int) ([]byte, error)

func (f pageFetcherFunc) FetchPage(ctx context.Context, page int) ([]byte, error) {
	return f(ctx, page)
}
