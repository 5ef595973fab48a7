// Package search defines the external lab-URL search collaborator: a
// provider-agnostic client interface plus a rate-limiting, caching wrapper.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Result is one search hit for a lab website query.
type Result struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	Confidence float64 `json:"confidence"`
}

// Client finds candidate lab websites for a faculty/lab/university triple.
type Client interface {
	SearchLabURLs(ctx context.Context, facultyName, labName, university string, maxResults int) ([]Result, error)
}

// DefaultCacheTTL keeps search results for 30 days.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Limits are the sliding-window query budgets.
type Limits struct {
	PerMinute int
	PerHour   int
}

// RateLimitedClient wraps an underlying Client with sliding-window rate
// limits and a result cache keyed by a hash of the query terms. When a
// window is exhausted it returns an empty result immediately; it never
// blocks and never surfaces throttling as an error.
type RateLimitedClient struct {
	inner  Client
	limits Limits
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	minute  []time.Time
	hour    []time.Time
	cache   map[string]cacheEntry
	nowFunc func() time.Time
}

type cacheEntry struct {
	results []Result
	at      time.Time
}

// NewRateLimitedClient wraps inner with the given limits. Zero or negative
// limit values disable that window.
func NewRateLimitedClient(inner Client, limits Limits, logger *slog.Logger) *RateLimitedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimitedClient{
		inner:   inner,
		limits:  limits,
		ttl:     DefaultCacheTTL,
		logger:  logger.With("component", "search"),
		cache:   make(map[string]cacheEntry),
		nowFunc: time.Now,
	}
}

// SetCacheTTL overrides the result cache lifetime.
func (c *RateLimitedClient) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl = ttl
	}
}

// SearchLabURLs serves from cache when possible, otherwise consumes rate
// budget and queries the underlying client. Cache hits never consume budget.
func (c *RateLimitedClient) SearchLabURLs(ctx context.Context, facultyName, labName, university string, maxResults int) ([]Result, error) {
	key := queryKey(facultyName, labName, university)

	c.mu.Lock()
	now := c.nowFunc()
	if entry, ok := c.cache[key]; ok && now.Sub(entry.at) < c.ttl {
		results := entry.results
		c.mu.Unlock()
		return clip(results, maxResults), nil
	}
	if !c.takeBudget(now) {
		c.mu.Unlock()
		c.logger.Debug("search rate limit reached, returning empty",
			"faculty", facultyName, "lab", labName)
		return nil, nil
	}
	c.mu.Unlock()

	results, err := c.inner.SearchLabURLs(ctx, facultyName, labName, university, maxResults)
	if err != nil {
		return nil, fmt.Errorf("lab URL search: %w", err)
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{results: results, at: c.nowFunc()}
	c.mu.Unlock()
	return clip(results, maxResults), nil
}

// takeBudget prunes expired timestamps and records the new call if both
// windows have room. Caller holds the mutex.
func (c *RateLimitedClient) takeBudget(now time.Time) bool {
	c.minute = prune(c.minute, now.Add(-time.Minute))
	c.hour = prune(c.hour, now.Add(-time.Hour))
	if c.limits.PerMinute > 0 && len(c.minute) >= c.limits.PerMinute {
		return false
	}
	if c.limits.PerHour > 0 && len(c.hour) >= c.limits.PerHour {
		return false
	}
	c.minute = append(c.minute, now)
	c.hour = append(c.hour, now)
	return true
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

func queryKey(facultyName, labName, university string) string {
	sum := sha256.Sum256([]byte(facultyName + "|" + labName + "|" + university))
	return hex.EncodeToString(sum[:])
}

func clip(results []Result, max int) []Result {
	if max > 0 && len(results) > max {
		return results[:max]
	}
	return results
}
