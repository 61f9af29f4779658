package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"sjsage522/dealwatcher/helpers"
	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/pkg/errors"
)

// Response is the part of an HTTP response the fetcher needs
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Transport performs a single GET, optionally through a proxy.
// A non-2xx status is not an error at this level.
type Transport interface {
	Get(ctx context.Context, rawURL string, header http.Header, proxy string) (*Response, error)
}

// HTTPTransport implements Transport with net/http, one client per proxy
type HTTPTransport struct {
	timeout time.Duration
	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewHTTPTransport creates a transport with a fixed per-request timeout
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		timeout: timeout,
		clients: make(map[string]*http.Client),
	}
}

func (t *HTTPTransport) client(proxy string) (*http.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[proxy]; ok {
		return c, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, errors.NewConfiguration(fmt.Sprintf("invalid proxy %q", redactProxy(proxy)), err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = nil
	}

	c := &http.Client{
		Transport: transport,
		Timeout:   t.timeout,
	}
	t.clients[proxy] = c
	return c, nil
}

// Get sends the request and reads the whole body
func (t *HTTPTransport) Get(ctx context.Context, rawURL string, header http.Header, proxy string) (*Response, error) {
	c, err := t.client(proxy)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid page URL %q", rawURL), err)
	}
	req.Header = header.Clone()

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Fetcher retrieves listing pages with retries, 403 backoff and proxy rotation
type Fetcher struct {
	pageURL    func(page int) string
	transport  Transport
	proxies    *ProxyPool
	picker     Picker
	sleep      Sleeper
	policy     Policy
	userAgents []string
	log        *logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithTransport replaces the HTTP transport
func WithTransport(t Transport) FetcherOption {
	return func(f *Fetcher) { f.transport = t }
}

// WithPicker replaces the random source for user agents
func WithPicker(p Picker) FetcherOption {
	return func(f *Fetcher) { f.picker = p }
}

// WithSleeper replaces the backoff wait
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) { f.sleep = s }
}

// WithPolicy replaces the retry policy
func WithPolicy(p Policy) FetcherOption {
	return func(f *Fetcher) { f.policy = p }
}

// WithUserAgents replaces the User-Agent pool
func WithUserAgents(agents []string) FetcherOption {
	return func(f *Fetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// NewFetcher creates a page fetcher. pageURL builds the URL of a page number.
func NewFetcher(pageURL func(page int) string, proxies *ProxyPool, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		pageURL:    pageURL,
		transport:  NewHTTPTransport(30 * time.Second),
		proxies:    proxies,
		picker:     RandomPicker(),
		sleep:      SleepContext,
		policy:     DefaultPolicy(),
		userAgents: helpers.UserAgents,
		log:        logger.ForCrawler("fetcher"),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPage returns the UTF-8 body of a listing page.
// An error means every attempt failed; a blocked error means the last one was a 403.
func (f *Fetcher) FetchPage(ctx context.Context, page int) ([]byte, error) {
	pageURL := f.pageURL(page)
	headers := helpers.BrowserHeaders(f.userAgents[f.picker.IntN(len(f.userAgents))])

	proxy := f.proxies.Pick()
	if proxy != "" {
		f.log.Info().Int("page", page).Str("proxy", redactProxy(proxy)).Msg("Using proxy")
	} else {
		f.log.Info().Int("page", page).Msg("No proxies configured, using direct connection")
	}

	for attempt := 0; ; attempt++ {
		resp, err := f.transport.Get(ctx, pageURL, headers, proxy)
		outcome := Classify(resp, err)
		step := f.policy.Next(attempt, outcome)

		if step.Kind == StepDone {
			body, decodeErr := helpers.DecodeUTF8(resp.Body, resp.ContentType)
			if decodeErr != nil {
				return nil, errors.NewParsing("fetcher", fmt.Sprintf("page %d body", page), decodeErr)
			}
			return body, nil
		}

		lastErr := f.attemptError(page, resp, err, outcome)
		event := f.log.Warn().
			Int("page", page).
			Int("attempt", attempt+1).
			Str("outcome", outcome.String()).
			Err(lastErr)
		if proxy != "" {
			event = event.Str("proxy", redactProxy(proxy))
		}

		if step.Kind == StepExhausted {
			event.Dur("wait", step.Delay).Msg("Giving up on page")
			if step.Delay > 0 {
				if err := f.sleep(ctx, step.Delay); err != nil {
					f.log.Warn().Err(err).Int("page", page).Msg("Final backoff interrupted")
				}
			}
			return nil, lastErr
		}
		event.Dur("retry_in", step.Delay).Msg("Retrying page")

		if step.RotateProxy && f.proxies.Len() > 0 {
			proxy = f.proxies.Pick()
		}

		if err := f.sleep(ctx, step.Delay); err != nil {
			return nil, errors.NewNetwork("fetcher", fmt.Sprintf("page %d backoff interrupted", page), err)
		}
	}
}

func (f *Fetcher) attemptError(page int, resp *Response, err error, outcome Outcome) error {
	switch {
	case outcome == OutcomeAborted:
		return err
	case outcome == OutcomeBlocked:
		return errors.NewBlocked("fetcher", fmt.Sprintf("page %d returned 403 Forbidden", page))
	case err != nil:
		return errors.NewNetwork("fetcher", fmt.Sprintf("page %d request failed", page), err)
	case resp != nil:
		return errors.NewNetwork("fetcher", fmt.Sprintf("page %d unexpected status code: %d", page, resp.StatusCode), nil)
	default:
		return errors.NewNetwork("fetcher", fmt.Sprintf("page %d returned no response", page), nil)
	}
}
