package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/department"
	"github.com/c360studio/facultyatlas/discovery"
	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/extract"
	"github.com/c360studio/facultyatlas/store"
)

type stubDiscoverer struct{ pattern *discovery.UniversityPattern }

func (d *stubDiscoverer) Discover(ctx context.Context, name, baseURL string) *discovery.UniversityPattern {
	return d.pattern
}

type stubResolver struct{ departments []department.Info }

func (r *stubResolver) Resolve(ctx context.Context, pattern *discovery.UniversityPattern, target string) []department.Info {
	return r.departments
}

type stubExtractor struct {
	records map[string][]extract.RawFaculty
	fail    map[string]error
}

func (e *stubExtractor) Scrape(ctx context.Context, dept department.Info, university string, max int) ([]extract.RawFaculty, error) {
	if err := e.fail[dept.Name]; err != nil {
		return nil, err
	}
	return e.records[dept.Name], nil
}

func pattern(baseURL string, confidence float64) *discovery.UniversityPattern {
	return &discovery.UniversityPattern{
		UniversityName: "Example University",
		BaseURL:        baseURL,
		Confidence:     confidence,
	}
}

func rec(name, deptName string) extract.RawFaculty {
	return extract.RawFaculty{
		Name:       name,
		Department: deptName,
		University: "Example University",
		ProfileURL: "https://www.example.edu/people/" + name,
		SourceURL:  "https://www.example.edu/faculty",
		Method:     extract.MethodSelector,
	}
}

func TestScrapeSuccess(t *testing.T) {
	depts := []department.Info{
		{Name: "Computer Science", URL: "https://cs.example.edu/faculty"},
		{Name: "Biology", URL: "https://www.example.edu/biology/faculty"},
	}
	ext := &stubExtractor{records: map[string][]extract.RawFaculty{
		"Computer Science": {rec("Jane Smith", "Computer Science"), rec("John Roe", "Computer Science")},
		"Biology":          {rec("Alice Doe", "Biology")},
	}}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.9)}, &stubResolver{departments: depts}, ext, nil)

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 0)
	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Len(t, result.Faculty, 3)
	assert.Equal(t, 3, result.Metadata.TotalFaculty)
	assert.Equal(t, 2, result.Metadata.DepartmentsProcessed)
	assert.Equal(t, 0.9, result.Metadata.DiscoveryConfidence)
	assert.NotEmpty(t, result.Metadata.ScrapeID)
	assert.True(t, result.Metadata.DepartmentResults["Biology"].Success)
}

func TestScrapePartialFailureStillSuccess(t *testing.T) {
	depts := []department.Info{
		{Name: "Computer Science", URL: "https://cs.example.edu/faculty"},
		{Name: "Biology", URL: "https://www.example.edu/biology/faculty"},
	}
	ext := &stubExtractor{
		records: map[string][]extract.RawFaculty{
			"Computer Science": {rec("Jane Smith", "Computer Science")},
		},
		fail: map[string]error{"Biology": errors.New("render timeout")},
	}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.8)}, &stubResolver{departments: depts}, ext, nil)

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 0)
	require.True(t, result.Success, "partial failure is still success")
	assert.Len(t, result.Faculty, 1)
	assert.Equal(t, 2, result.Metadata.DepartmentsProcessed)

	bio := result.Metadata.DepartmentResults["Biology"]
	assert.False(t, bio.Success)
	assert.Contains(t, bio.Error, "render timeout")
}

func TestScrapeNoBaseURLFails(t *testing.T) {
	s := New(&stubDiscoverer{pattern: pattern("", 0.3)}, &stubResolver{}, &stubExtractor{}, nil)
	result := s.ScrapeUniversityFaculty(context.Background(), "Unknown College", "", 0)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Faculty)
}

func TestScrapeEmptyResolutionUsesPseudoDepartment(t *testing.T) {
	ext := &stubExtractor{records: map[string][]extract.RawFaculty{
		"Example University": {rec("Jane Smith", "Example University")},
	}}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.5)}, &stubResolver{}, ext, nil)

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 0)
	require.True(t, result.Success)
	assert.Len(t, result.Faculty, 1)
	assert.Contains(t, result.Metadata.DepartmentResults, "Example University")
}

func TestScrapeMaxFacultyCap(t *testing.T) {
	ext := &stubExtractor{records: map[string][]extract.RawFaculty{
		"Computer Science": {
			rec("Jane Smith", "Computer Science"),
			rec("John Roe", "Computer Science"),
			rec("Alice Doe", "Computer Science"),
		},
	}}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.9)},
		&stubResolver{departments: []department.Info{{Name: "Computer Science", URL: "https://cs.example.edu"}}},
		ext, nil)

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 2)
	require.True(t, result.Success)
	assert.Len(t, result.Faculty, 2)
}

func TestScrapeIngestsIntoStore(t *testing.T) {
	st := store.NewMemoryStore(nil)
	defer st.Close()

	ext := &stubExtractor{records: map[string][]extract.RawFaculty{
		"Computer Science": {rec("Jane Smith", "Computer Science")},
	}}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.9)},
		&stubResolver{departments: []department.Info{{Name: "Computer Science", URL: "https://cs.example.edu"}}},
		ext, nil)
	s.Store = st

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 0)
	require.True(t, result.Success)
	require.NotNil(t, result.Metadata.Ingest)
	assert.Equal(t, 1, result.Metadata.Ingest.Created)
	assert.Len(t, st.ListFaculty(), 1)
}

type stubEnricher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func (e *stubEnricher) EnrichProfile(ctx context.Context, profileURL string) ([]*entity.Enrichment, error) {
	e.mu.Lock()
	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	e.calls[profileURL]++
	e.mu.Unlock()
	if err := e.fail[profileURL]; err != nil {
		return nil, err
	}
	return []*entity.Enrichment{{Type: entity.EnrichmentProfile}}, nil
}

func TestScrapeEnrichesProfiles(t *testing.T) {
	depts := []department.Info{{Name: "Computer Science", URL: "https://cs.example.edu/faculty"}}
	ext := &stubExtractor{records: map[string][]extract.RawFaculty{
		"Computer Science": {rec("Jane Smith", "Computer Science"), rec("John Roe", "Computer Science")},
	}}
	enricher := &stubEnricher{fail: map[string]error{
		"https://www.example.edu/people/John Roe": errors.New("profile timeout"),
	}}
	s := New(&stubDiscoverer{pattern: pattern("https://www.example.edu", 0.9)}, &stubResolver{departments: depts}, ext, nil)
	s.Enrich = enricher

	result := s.ScrapeUniversityFaculty(context.Background(), "Example University", "", 0)
	require.True(t, result.Success)
	require.Len(t, result.Faculty, 2)
	assert.Len(t, enricher.calls, 2)

	for _, f := range result.Faculty {
		if f.Name == "Jane Smith" {
			require.Len(t, f.Enrichments, 1)
			assert.Equal(t, entity.EnrichmentProfile, f.Enrichments[0].Type)
		} else {
			assert.Empty(t, f.Enrichments)
		}
	}
}
