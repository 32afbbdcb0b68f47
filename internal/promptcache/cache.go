package promptcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL bounds how long a fetched template is served before a refetch.
const DefaultTTL = time.Hour

// Fetcher loads the full remote template set.
type Fetcher interface {
	FetchTemplates(ctx context.Context) (map[string]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (map[string]string, error)

func (f FetcherFunc) FetchTemplates(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

type entry struct {
	value     string
	fetchedAt time.Time
}

// Cache is a time-bounded cache fronting the remote config store. Availability
// is prioritized over freshness: on refetch failure the previous cached value
// is served regardless of staleness, falling back to the caller's default
// before any successful fetch. Concurrent refreshes of one key are tolerated;
// last write wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(fetcher Fetcher, log *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		fetcher: fetcher,
		now:     time.Now,
		log:     log.Named("prompt.cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the template stored under key, refetching the remote set when
// the cached entry is missing or older than the TTL.
func (c *Cache) Get(ctx context.Context, key, defaultValue string) string {
	now := c.now()

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Sub(cached.fetchedAt) < c.ttl {
		return cached.value
	}

	templates, err := c.fetcher.FetchTemplates(ctx)
	if err != nil {
		c.log.Warn("template refetch failed", zap.String("key", key), zap.Error(err))
		if ok {
			return cached.value
		}
		return defaultValue
	}

	value, found := templates[key]
	if !found {
		value = defaultValue
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, fetchedAt: now}
	c.mu.Unlock()

	return value
}

// Render substitutes placeholder tokens with literal content, replacing the
// first occurrence of each token. Replacement content is not escaped.
func Render(template string, vars map[string]string) string {
	rendered := template
	for token, value := range vars {
		rendered = strings.Replace(rendered, token, value, 1)
	}
	return rendered
}
