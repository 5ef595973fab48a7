package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls   int
	results []Result
}

func (c *countingClient) SearchLabURLs(ctx context.Context, facultyName, labName, university string, maxResults int) ([]Result, error) {
	c.calls++
	return c.results, nil
}

func TestRateLimitPerMinute(t *testing.T) {
	inner := &countingClient{results: []Result{{URL: "https://lab.example.edu", Confidence: 0.9}}}
	c := NewRateLimitedClient(inner, Limits{PerMinute: 10, PerHour: 100}, nil)

	now := time.Unix(1_700_000_000, 0)
	c.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		// distinct queries so the cache cannot serve them
		results, err := c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", string(rune('A'+i)), 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
	}
	require.Equal(t, 10, inner.calls)

	// 11th call inside the same minute: empty, no network
	results, err := c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Zeta University", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 10, inner.calls)

	// window slides: a minute later the budget is back
	now = now.Add(61 * time.Second)
	results, err = c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Zeta University", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, 11, inner.calls)
}

func TestCacheHitSkipsBudget(t *testing.T) {
	inner := &countingClient{results: []Result{{URL: "https://lab.example.edu"}}}
	c := NewRateLimitedClient(inner, Limits{PerMinute: 1}, nil)

	ctx := context.Background()
	_, err := c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Example University", 3)
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	// identical query served from cache despite the exhausted window
	results, err := c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Example University", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheExpiry(t *testing.T) {
	inner := &countingClient{results: []Result{{URL: "https://lab.example.edu"}}}
	c := NewRateLimitedClient(inner, Limits{}, nil)

	now := time.Unix(1_700_000_000, 0)
	c.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Example University", 3)
	require.NoError(t, err)

	now = now.Add(DefaultCacheTTL + time.Hour)
	_, err = c.SearchLabURLs(ctx, "Jane Smith", "Vision Lab", "Example University", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestMaxResultsClip(t *testing.T) {
	inner := &countingClient{results: []Result{{URL: "a"}, {URL: "b"}, {URL: "c"}}}
	c := NewRateLimitedClient(inner, Limits{}, nil)

	results, err := c.SearchLabURLs(context.Background(), "Jane Smith", "Vision Lab", "Example University", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
