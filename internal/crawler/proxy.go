package crawler

import (
	"math/rand/v2"
	"net/url"
	"strings"
)

// Picker draws a uniform index in [0, n)
type Picker interface {
	IntN(n int) int
}

type randPicker struct{}

func (randPicker) IntN(n int) int {
	return rand.IntN(n)
}

// RandomPicker returns the default Picker backed by math/rand/v2
func RandomPicker() Picker {
	return randPicker{}
}

// ProxyPool holds the configured proxies and draws one per request
type ProxyPool struct {
	proxies []string
	picker  Picker
}

// NewProxyPool creates a proxy pool; entries without a scheme are treated as http proxies
func NewProxyPool(proxies []string, picker Picker) *ProxyPool {
	if picker == nil {
		picker = RandomPicker()
	}

	normalized := make([]string, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "://") {
			p = "http://" + p
		}
		normalized = append(normalized, p)
	}

	return &ProxyPool{
		proxies: normalized,
		picker:  picker,
	}
}

// Len returns the number of proxies in the pool
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Pick returns a random proxy, or "" for a direct connection when the pool is empty
func (p *ProxyPool) Pick() string {
	if p.Len() == 0 {
		return ""
	}
	return p.proxies[p.picker.IntN(len(p.proxies))]
}

// Stats returns proxy pool statistics for logging
func (p *ProxyPool) Stats() map[string]interface{} {
	hosts := make([]string, 0, p.Len())
	if p != nil {
		for _, raw := range p.proxies {
			hosts = append(hosts, redactProxy(raw))
		}
	}

	return map[string]interface{}{
		"total_proxies": p.Len(),
		"proxies":       hosts,
	}
}

// redactProxy drops credentials from a proxy URL so it can be logged
func redactProxy(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
