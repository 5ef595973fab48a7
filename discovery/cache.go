package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c360studio/facultyatlas/entity"
)

// Cache stores discovered patterns keyed by normalized university name.
// Implementations must treat entries older than their TTL as absent.
type Cache interface {
	Get(ctx context.Context, universityName string) (*UniversityPattern, bool)
	Put(ctx context.Context, pattern *UniversityPattern) error
}

// DefaultCacheTTL is how long a discovered pattern is reused.
const DefaultCacheTTL = 30 * 24 * time.Hour

// cacheKey normalizes a university name into a cache key.
func cacheKey(universityName string) string {
	return entity.NormalizeInstitution(universityName)
}

// MemoryCache is an in-process pattern cache with TTL expiry.
type MemoryCache struct {
	ttl time.Duration

	mu       sync.RWMutex
	patterns map[string]*UniversityPattern
}

// NewMemoryCache creates a memory cache. A non-positive TTL uses the
// default 30 days.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		ttl:      ttl,
		patterns: make(map[string]*UniversityPattern),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, universityName string) (*UniversityPattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.patterns[cacheKey(universityName)]
	if !ok {
		return nil, false
	}
	if time.Since(p.UpdatedAt) > c.ttl {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Put implements Cache.
func (c *MemoryCache) Put(_ context.Context, pattern *UniversityPattern) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *pattern
	c.patterns[cacheKey(pattern.UniversityName)] = &cp
	return nil
}

// FileCache persists patterns as JSON files, one per university, so the
// 30-day cache survives process restarts.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates a file-backed cache rooted at dir.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

// Get implements Cache.
func (c *FileCache) Get(_ context.Context, universityName string) (*UniversityPattern, bool) {
	data, err := os.ReadFile(c.path(universityName))
	if err != nil {
		return nil, false
	}

	var p UniversityPattern
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	if time.Since(p.UpdatedAt) > c.ttl {
		return nil, false
	}
	return &p, true
}

// Put implements Cache.
func (c *FileCache) Put(_ context.Context, pattern *UniversityPattern) error {
	data, err := json.MarshalIndent(pattern, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pattern: %w", err)
	}
	if err := os.WriteFile(c.path(pattern.UniversityName), data, 0644); err != nil {
		return fmt.Errorf("write pattern cache: %w", err)
	}
	return nil
}

// path derives the cache file path for a university name.
func (c *FileCache) path(universityName string) string {
	slug := strings.ReplaceAll(cacheKey(universityName), " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "unknown"
	}
	return filepath.Join(c.dir, slug+".json")
}
