// Package scraper composes discovery, department resolution, extraction, and
// ingestion into the university-level scrape operation.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/facultyatlas/department"
	"github.com/c360studio/facultyatlas/discovery"
	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/extract"
	"github.com/c360studio/facultyatlas/store"
)

// DefaultDepartmentConcurrency bounds parallel department extraction.
const DefaultDepartmentConcurrency = 5

// Discoverer yields a university pattern. Never nil.
type Discoverer interface {
	Discover(ctx context.Context, universityName, baseURL string) *discovery.UniversityPattern
}

// Resolver yields department candidates for a pattern.
type Resolver interface {
	Resolve(ctx context.Context, pattern *discovery.UniversityPattern, targetDepartment string) []department.Info
}

// Extractor scrapes raw faculty records from one department.
type Extractor interface {
	Scrape(ctx context.Context, dept department.Info, universityName string, maxFaculty int) ([]extract.RawFaculty, error)
}

// Enricher augments a faculty record from its profile page.
type Enricher interface {
	EnrichProfile(ctx context.Context, profileURL string) ([]*entity.Enrichment, error)
}

// Ingestor resolves raw records into the entity graph.
type Ingestor interface {
	Ingest(ctx context.Context, records []extract.RawFaculty, scrapeID string) (*store.IngestReport, error)
}

// Publisher announces completed scrapes. A nil publisher is a no-op.
type Publisher interface {
	PublishScrapeResult(ctx context.Context, result *Result) error
}

// DepartmentResult is the per-department outcome recorded in metadata.
type DepartmentResult struct {
	URL          string `json:"url"`
	FacultyCount int    `json:"faculty_count"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// Metadata carries scrape diagnostics alongside the faculty list.
type Metadata struct {
	TotalFaculty         int                         `json:"total_faculty"`
	DepartmentsProcessed int                         `json:"departments_processed"`
	DepartmentResults    map[string]DepartmentResult `json:"department_results"`
	DiscoveryConfidence  float64                     `json:"discovery_confidence"`
	ScrapeID             string                      `json:"scrape_id"`
	StartedAt            time.Time                   `json:"started_at"`
	CompletedAt          time.Time                   `json:"completed_at"`
	Ingest               *store.IngestReport         `json:"ingest,omitempty"`
}

// Result is the structured outcome of a university scrape. Partial success
// (some departments failed) still reports Success true; only failing to
// locate any base URL reports false.
type Result struct {
	UniversityName string               `json:"university_name"`
	BaseURL        string               `json:"base_url"`
	Faculty        []extract.RawFaculty `json:"faculty"`
	Metadata       Metadata             `json:"metadata"`
	Success        bool                 `json:"success"`
	Error          string               `json:"error,omitempty"`
}

// Scraper wires the pipeline stages. Store, Publish, and Enrich are
// optional: a nil Store skips ingestion, a nil Publish skips
// announcements, a nil Enrich skips profile enrichment.
type Scraper struct {
	discoverer  Discoverer
	resolver    Resolver
	extractor   Extractor
	logger      *slog.Logger
	concurrency int

	Store   Ingestor
	Publish Publisher
	Enrich  Enricher
}

// New assembles a scraper from its pipeline stages.
func New(discoverer Discoverer, resolver Resolver, extractor Extractor, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		discoverer:  discoverer,
		resolver:    resolver,
		extractor:   extractor,
		logger:      logger.With("component", "scraper"),
		concurrency: DefaultDepartmentConcurrency,
	}
}

// SetDepartmentConcurrency bounds parallel department extraction.
func (s *Scraper) SetDepartmentConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// ScrapeUniversityFaculty runs the full pipeline for one university.
// departmentFilter, when non-empty, restricts resolution to matching
// departments; maxFaculty (0 for unlimited) caps the collected records.
// Department-level failures are recorded in metadata and skipped.
func (s *Scraper) ScrapeUniversityFaculty(ctx context.Context, universityName, departmentFilter string, maxFaculty int) *Result {
	scrapeID := uuid.New().String()
	result := &Result{
		UniversityName: universityName,
		Metadata: Metadata{
			ScrapeID:          scrapeID,
			StartedAt:         time.Now(),
			DepartmentResults: make(map[string]DepartmentResult),
		},
	}
	defer func() { result.Metadata.CompletedAt = time.Now() }()

	pattern := s.discoverer.Discover(ctx, universityName, "")
	result.Metadata.DiscoveryConfidence = pattern.Confidence
	result.BaseURL = pattern.BaseURL
	if pattern.BaseURL == "" {
		result.Error = fmt.Sprintf("could not locate a base URL for %q", universityName)
		s.logger.Warn("scrape failed", "university", universityName, "error", result.Error)
		return result
	}

	departments := s.resolver.Resolve(ctx, pattern, departmentFilter)
	if len(departments) == 0 {
		// treat the base URL as one pseudo-department
		departments = []department.Info{{
			Name:       universityName,
			URL:        pattern.BaseURL,
			Structure:  department.StructureUnknown,
			Confidence: pattern.Confidence,
		}}
	}

	s.extractDepartments(ctx, departments, universityName, maxFaculty, result)
	if maxFaculty > 0 && len(result.Faculty) > maxFaculty {
		result.Faculty = result.Faculty[:maxFaculty]
	}
	result.Metadata.TotalFaculty = len(result.Faculty)
	result.Success = true

	if s.Enrich != nil {
		s.enrichFaculty(ctx, result)
	}

	if s.Store != nil && len(result.Faculty) > 0 {
		report, err := s.Store.Ingest(ctx, result.Faculty, scrapeID)
		if err != nil {
			s.logger.Error("ingest failed", "university", universityName, "error", err)
		} else {
			result.Metadata.Ingest = report
		}
	}
	if s.Publish != nil {
		if err := s.Publish.PublishScrapeResult(ctx, result); err != nil {
			s.logger.Warn("result publication failed", "university", universityName, "error", err)
		}
	}

	s.logger.Info("university scrape complete",
		"university", universityName,
		"faculty", result.Metadata.TotalFaculty,
		"departments", result.Metadata.DepartmentsProcessed,
		"confidence", pattern.Confidence)
	return result
}

// enrichFaculty fetches each record's profile page and attaches the
// resulting enrichments. Failures are logged and leave the record as-is.
func (s *Scraper) enrichFaculty(ctx context.Context, result *Result) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range result.Faculty {
		rec := &result.Faculty[i]
		if rec.ProfileURL == "" {
			continue
		}
		g.Go(func() error {
			enrichments, err := s.Enrich.EnrichProfile(gctx, rec.ProfileURL)
			if err != nil {
				s.logger.Debug("profile enrichment failed",
					"name", rec.Name, "url", rec.ProfileURL, "error", err)
				return nil
			}
			rec.Enrichments = append(rec.Enrichments, enrichments...)
			return nil
		})
	}
	g.Wait()
}

// extractDepartments fans out department extraction under the concurrency
// bound, isolating each department's failure to its own metadata entry.
func (s *Scraper) extractDepartments(ctx context.Context, departments []department.Info, universityName string, maxFaculty int, result *Result) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, dept := range departments {
		g.Go(func() error {
			records, err := s.extractor.Scrape(gctx, dept, universityName, maxFaculty)

			mu.Lock()
			defer mu.Unlock()
			dr := DepartmentResult{URL: dept.URL, Success: err == nil, FacultyCount: len(records)}
			if err != nil {
				dr.Error = err.Error()
				s.logger.Warn("department extraction failed",
					"university", universityName, "department", dept.Name, "error", err)
			} else {
				result.Faculty = append(result.Faculty, records...)
			}
			result.Metadata.DepartmentResults[dept.Name] = dr
			result.Metadata.DepartmentsProcessed++
			return nil
		})
	}
	g.Wait()
}
