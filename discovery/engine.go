package discovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/facultyatlas/fetch"
)

// Cascade thresholds.
const (
	// shortCircuitConfidence stops the cascade once a strategy is this sure.
	shortCircuitConfidence = 0.8
	// cacheReuseConfidence gates direct reuse of a cached pattern.
	cacheReuseConfidence = 0.7
	// cacheWriteConfidence gates persisting a discovered pattern.
	cacheWriteConfidence = 0.7
	// assistantTrustCap bounds what the lowest-trust strategy can claim.
	assistantTrustCap = 0.6
)

// AssistantFinding is what the optional discovery assistant reports.
type AssistantFinding struct {
	FacultyPaths    []string          `json:"faculty_paths"`
	DepartmentPaths map[string]string `json:"department_paths,omitempty"`
	Confidence      float64           `json:"confidence"`
	Reasoning       string            `json:"reasoning,omitempty"`
}

// Assistant is an optional external collaborator consulted as the
// lowest-trust discovery strategy. Implementations live outside this core.
type Assistant interface {
	DiscoverFacultyDirectories(ctx context.Context, universityName, baseURL, department string) (*AssistantFinding, error)
}

// Engine discovers a university's URL structure through a cascade of
// heuristic strategies.
type Engine struct {
	// Assistant, when non-nil, is consulted after every built-in strategy.
	Assistant Assistant

	client           *fetch.Client
	cache            Cache
	logger           *slog.Logger
	probeConcurrency int
}

// NewEngine creates a discovery engine. A nil cache gets an in-memory
// cache with the default TTL.
func NewEngine(client *fetch.Client, cache Cache, logger *slog.Logger) *Engine {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:           client,
		cache:            cache,
		logger:           logger,
		probeConcurrency: 5,
	}
}

// SetProbeConcurrency bounds parallel URL probes within a strategy.
func (e *Engine) SetProbeConcurrency(n int) {
	if n > 0 {
		e.probeConcurrency = n
	}
}

// session carries discovery state across strategies. Early strategies fill
// in the base URL that later strategies probe against.
type session struct {
	name    string
	baseURL string
}

// strategyFunc tries one approach. A nil pattern with nil error means
// "found nothing, try the next one"; errors are genuine I/O failures and
// are treated the same way by the cascade.
type strategyFunc func(ctx context.Context, s *session) (*UniversityPattern, error)

// Discover returns the URL pattern for a university. It never fails: when
// every strategy comes up empty a low-confidence fallback pattern is
// returned. The cascade short-circuits once a strategy exceeds the
// confidence threshold.
func (e *Engine) Discover(ctx context.Context, universityName, baseURL string) *UniversityPattern {
	s := &session{name: universityName, baseURL: baseURL}

	// A recent, confident cached pattern is reused directly.
	if cached, err := e.fromCache(ctx, s); err == nil && cached != nil {
		e.logger.Debug("reusing cached pattern",
			slog.String("university", universityName),
			slog.Float64("confidence", cached.Confidence))
		return cached
	}

	strategies := []struct {
		name string
		fn   strategyFunc
	}{
		{"known_table", e.fromKnownTable},
		{"domain_guess", e.guessDomain},
		{"sitemap", e.discoverSitemap},
		{"subdomain_enum", e.enumerateSubdomains},
		{"nav_links", e.scanNavLinks},
		{"common_paths", e.probeCommonPaths},
		{"assistant", e.fromAssistant},
	}

	var merged *UniversityPattern
	for _, st := range strategies {
		if ctx.Err() != nil {
			break
		}

		p, err := st.fn(ctx, s)
		if err != nil {
			e.logger.Debug("discovery strategy failed",
				slog.String("strategy", st.name),
				slog.String("university", universityName),
				slog.String("error", err.Error()))
			continue
		}
		if p == nil {
			continue
		}
		p.Clamp()

		e.logger.Debug("discovery strategy hit",
			slog.String("strategy", st.name),
			slog.String("university", universityName),
			slog.Float64("confidence", p.Confidence),
			slog.Int("paths", len(p.FacultyPaths)))

		if merged == nil {
			merged = p
		} else {
			merged.Merge(p)
		}
		if s.baseURL == "" && p.BaseURL != "" {
			s.baseURL = p.BaseURL
		}
		if merged.Confidence > shortCircuitConfidence {
			break
		}
	}

	if merged == nil {
		e.logger.Info("no discovery strategy succeeded, using fallback pattern",
			slog.String("university", universityName))
		merged = FallbackPattern(universityName, s.baseURL)
	}
	merged.Clamp()
	merged.UpdatedAt = time.Now()

	if merged.Confidence > cacheWriteConfidence {
		if err := e.cache.Put(ctx, merged); err != nil {
			e.logger.Warn("failed to cache pattern",
				slog.String("university", universityName),
				slog.String("error", err.Error()))
		}
	}

	return merged
}
