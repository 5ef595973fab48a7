package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundtrip(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	pattern := &UniversityPattern{
		UniversityName: "Stanford University",
		BaseURL:        "https://www.stanford.edu",
		FacultyPaths:   []string{"faculty"},
		Confidence:     0.85,
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, cache.Put(ctx, pattern))

	got, ok := cache.Get(ctx, "Stanford University")
	require.True(t, ok)
	assert.Equal(t, pattern.BaseURL, got.BaseURL)
	assert.Equal(t, pattern.FacultyPaths, got.FacultyPaths)

	// Lookup is keyed by normalized name.
	_, ok = cache.Get(ctx, "The Stanford University")
	assert.True(t, ok, "filler words must not change the key")

	_, ok = cache.Get(ctx, "Harvard University")
	assert.False(t, ok, "different university must miss")
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	stale := &UniversityPattern{
		UniversityName: "Old University",
		Confidence:     0.9,
		UpdatedAt:      time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, cache.Put(ctx, stale))

	_, ok := cache.Get(ctx, "Old University")
	assert.False(t, ok, "expired entries must be treated as absent")
}

func TestFileCacheRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	pattern := &UniversityPattern{
		UniversityName: "Carnegie Mellon University",
		BaseURL:        "https://www.cmu.edu",
		FacultyPaths:   []string{"directory", "people"},
		DepartmentSubdomains: map[string]string{
			"hcii": "https://hcii.cmu.edu",
		},
		Confidence: 0.9,
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, cache.Put(ctx, pattern))

	// A second cache over the same directory sees the entry.
	reopened, err := NewFileCache(dir, time.Hour)
	require.NoError(t, err)

	got, ok := reopened.Get(ctx, "Carnegie Mellon University")
	require.True(t, ok)
	assert.Equal(t, pattern.FacultyPaths, got.FacultyPaths)
	assert.Equal(t, pattern.DepartmentSubdomains, got.DepartmentSubdomains)
}

func TestFileCacheMiss(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), "Nowhere University")
	assert.False(t, ok)
}
