// Package config provides configuration loading and management for
// facultyatlas.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete facultyatlas configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Extract   ExtractConfig   `yaml:"extract"`
	Search    SearchConfig    `yaml:"search"`
	NATS      NATSConfig      `yaml:"nats"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Export    ExportConfig    `yaml:"export"`
}

// HTTPConfig configures the shared fetch layer
type HTTPConfig struct {
	// UserAgent is sent on every request
	UserAgent string `yaml:"user_agent"`
	// Timeout applies to every network call
	Timeout time.Duration `yaml:"timeout"`
	// Parallelism bounds concurrent requests per domain
	Parallelism int `yaml:"parallelism"`
	// Delay is the per-domain politeness delay between requests
	Delay time.Duration `yaml:"delay"`
	// RespectRobots enables the robots.txt gate
	RespectRobots bool `yaml:"respect_robots"`
}

// DiscoveryConfig configures the pattern discovery engine
type DiscoveryConfig struct {
	// CacheDir is where discovered patterns are persisted (empty = memory only)
	CacheDir string `yaml:"cache_dir"`
	// CacheTTL is how long a cached pattern is reused
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// ProbeConcurrency bounds parallel URL probes per university
	ProbeConcurrency int `yaml:"probe_concurrency"`
	// OverridesFile points at the institution overrides YAML (optional)
	OverridesFile string `yaml:"overrides_file"`
}

// ExtractConfig configures the adaptive extractor
type ExtractConfig struct {
	// MaxPages is the number of extra paginated pages followed per department
	MaxPages int `yaml:"max_pages"`
	// MinItemText is the minimum visible text length for a candidate item
	MinItemText int `yaml:"min_item_text"`
	// UseBrowser selects the chromedp renderer for client-rendered pages
	UseBrowser bool `yaml:"use_browser"`
	// DepartmentConcurrency bounds concurrent department scrapes
	DepartmentConcurrency int `yaml:"department_concurrency"`
}

// SearchConfig configures the external search collaborator
type SearchConfig struct {
	// PerMinute is the sliding-window per-minute query limit
	PerMinute int `yaml:"per_minute"`
	// PerHour is the sliding-window per-hour query limit
	PerHour int `yaml:"per_hour"`
	// CacheTTL is how long search results are reused
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// NATSConfig configures the optional graph event publisher
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
	// SubjectPrefix is prepended to every published subject
	SubjectPrefix string `yaml:"subject_prefix"`
}

// MongoConfig configures the optional Mongo-backed pattern cache
type MongoConfig struct {
	// URI is the connection string (empty = file/memory cache only)
	URI string `yaml:"uri"`
	// Database holds the pattern cache collection
	Database string `yaml:"database"`
	// Collection is the pattern cache collection name
	Collection string `yaml:"collection"`
}

// ExportConfig configures aggregated-view exports
type ExportConfig struct {
	// Dir is the output directory for exported JSON
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:     "facultyatlas/0.1 (+https://github.com/c360studio/facultyatlas)",
			Timeout:       15 * time.Second,
			Parallelism:   5,
			Delay:         500 * time.Millisecond,
			RespectRobots: true,
		},
		Discovery: DiscoveryConfig{
			CacheDir:         "",
			CacheTTL:         30 * 24 * time.Hour,
			ProbeConcurrency: 5,
			OverridesFile:    "",
		},
		Extract: ExtractConfig{
			MaxPages:              5,
			MinItemText:           5,
			UseBrowser:            false,
			DepartmentConcurrency: 5,
		},
		Search: SearchConfig{
			PerMinute: 10,
			PerHour:   100,
			CacheTTL:  30 * 24 * time.Hour,
		},
		NATS: NATSConfig{
			URL:           "",
			SubjectPrefix: "faculty.graph",
		},
		Mongo: MongoConfig{
			URI:        "",
			Database:   "facultyatlas",
			Collection: "patterns",
		},
		Export: ExportConfig{
			Dir: "exports",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.Parallelism < 1 {
		return fmt.Errorf("http.parallelism must be at least 1")
	}
	if c.Discovery.ProbeConcurrency < 1 {
		return fmt.Errorf("discovery.probe_concurrency must be at least 1")
	}
	if c.Extract.MaxPages < 0 {
		return fmt.Errorf("extract.max_pages must not be negative")
	}
	if c.Extract.DepartmentConcurrency < 1 {
		return fmt.Errorf("extract.department_concurrency must be at least 1")
	}
	if c.Search.PerMinute < 0 || c.Search.PerHour < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// HTTP
	if other.HTTP.UserAgent != "" {
		c.HTTP.UserAgent = other.HTTP.UserAgent
	}
	if other.HTTP.Timeout != 0 {
		c.HTTP.Timeout = other.HTTP.Timeout
	}
	if other.HTTP.Parallelism != 0 {
		c.HTTP.Parallelism = other.HTTP.Parallelism
	}
	if other.HTTP.Delay != 0 {
		c.HTTP.Delay = other.HTTP.Delay
	}

	// Discovery
	if other.Discovery.CacheDir != "" {
		c.Discovery.CacheDir = other.Discovery.CacheDir
	}
	if other.Discovery.CacheTTL != 0 {
		c.Discovery.CacheTTL = other.Discovery.CacheTTL
	}
	if other.Discovery.ProbeConcurrency != 0 {
		c.Discovery.ProbeConcurrency = other.Discovery.ProbeConcurrency
	}
	if other.Discovery.OverridesFile != "" {
		c.Discovery.OverridesFile = other.Discovery.OverridesFile
	}

	// Extract
	if other.Extract.MaxPages != 0 {
		c.Extract.MaxPages = other.Extract.MaxPages
	}
	if other.Extract.MinItemText != 0 {
		c.Extract.MinItemText = other.Extract.MinItemText
	}
	if other.Extract.UseBrowser {
		c.Extract.UseBrowser = true
	}
	if other.Extract.DepartmentConcurrency != 0 {
		c.Extract.DepartmentConcurrency = other.Extract.DepartmentConcurrency
	}

	// Search
	if other.Search.PerMinute != 0 {
		c.Search.PerMinute = other.Search.PerMinute
	}
	if other.Search.PerHour != 0 {
		c.Search.PerHour = other.Search.PerHour
	}
	if other.Search.CacheTTL != 0 {
		c.Search.CacheTTL = other.Search.CacheTTL
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}

	// Mongo
	if other.Mongo.URI != "" {
		c.Mongo.URI = other.Mongo.URI
	}
	if other.Mongo.Database != "" {
		c.Mongo.Database = other.Mongo.Database
	}
	if other.Mongo.Collection != "" {
		c.Mongo.Collection = other.Mongo.Collection
	}

	// Export
	if other.Export.Dir != "" {
		c.Export.Dir = other.Export.Dir
	}
}
