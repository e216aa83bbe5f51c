package pipeline

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/oasara/enrich-cli/internal/fetch"
)

// HostLimiter hands out one token bucket per destination host. A single
// HostLimiter is shared by every fetcher in a run, so browser renders
// and static refetches of the same site draw from the same bucket.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter allows rps requests per second per host with the
// given burst.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

// Wait blocks until the rawURL's host has a token available.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return l.limiter(host).Wait(ctx)
}

// RateLimitedFetcher wraps a Fetcher with a HostLimiter, so concurrent
// workers probing the same site queue up instead of hammering it.
type RateLimitedFetcher struct {
	inner fetch.Fetcher
	hosts *HostLimiter
}

// NewRateLimitedFetcher wraps inner with the shared host limiter.
func NewRateLimitedFetcher(inner fetch.Fetcher, hosts *HostLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{inner: inner, hosts: hosts}
}

// Fetch waits for the host's limiter before delegating.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string, mode fetch.Mode) (*fetch.PageSnapshot, error) {
	if err := f.hosts.Wait(ctx, rawURL); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx, rawURL, mode)
}
