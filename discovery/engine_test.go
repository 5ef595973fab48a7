package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/config"
	"github.com/c360studio/facultyatlas/fetch"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	client := fetch.NewClient(config.HTTPConfig{
		UserAgent:   "facultyatlas-test/1.0",
		Timeout:     5 * time.Second,
		Parallelism: 4,
	}, nil)
	return NewEngine(client, NewMemoryCache(time.Hour), nil)
}

func TestDiscoverNeverFails(t *testing.T) {
	engine := testEngine(t)

	// A name with no distinguishing tokens generates no domain guesses and
	// no base URL, so every strategy comes up empty.
	pattern := engine.Discover(context.Background(), "Of The At", "")
	require.NotNil(t, pattern)
	assert.GreaterOrEqual(t, pattern.Confidence, 0.0)
	assert.LessOrEqual(t, pattern.Confidence, 1.0)
	assert.Equal(t, FallbackConfidence, pattern.Confidence)
	assert.Equal(t, []string{"faculty", "people", "directory"}, pattern.FacultyPaths)
}

func TestDiscoverReusesCachedPattern(t *testing.T) {
	engine := testEngine(t)
	ctx := context.Background()

	cached := &UniversityPattern{
		UniversityName: "Cached University",
		BaseURL:        "https://cached.example.edu",
		FacultyPaths:   []string{"faculty"},
		Confidence:     0.9,
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, engine.cache.Put(ctx, cached))

	// No base URL and a reachable cache entry: the result must come from
	// the cache without touching the network.
	pattern := engine.Discover(ctx, "Cached University", "")
	assert.Equal(t, "https://cached.example.edu", pattern.BaseURL)
	assert.Equal(t, 0.9, pattern.Confidence)
}

func TestDiscoverKnownTable(t *testing.T) {
	engine := testEngine(t)

	pattern := engine.Discover(context.Background(), "Stanford University", "")
	assert.Equal(t, "https://www.stanford.edu", pattern.BaseURL)
	assert.Greater(t, pattern.Confidence, shortCircuitConfidence)
	assert.Contains(t, pattern.FacultyPaths, "faculty")
	assert.Contains(t, pattern.DepartmentSubdomains, "cs")
}

func TestDiscoverSitemapIndex(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte("<html><body>Welcome</body></html>"))
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-main.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap-depts.xml</loc></sitemap>
</sitemapindex>`, srvURL, srvURL)
	})
	mux.HandleFunc("/sitemap-main.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/faculty/profiles</loc></url>
  <url><loc>%s/admissions</loc></url>
</urlset>`, srvURL, srvURL)
	})
	mux.HandleFunc("/sitemap-depts.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://cs.example.edu/people</loc></url>
</urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	engine := testEngine(t)
	s := &session{name: "Example University", baseURL: srv.URL}

	pattern, err := engine.discoverSitemap(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, pattern)

	// Two faculty-keyword URLs across the two child sitemaps.
	assert.Len(t, pattern.FacultyPaths, 2)
	assert.Contains(t, pattern.FacultyPaths, "faculty/profiles")
	assert.Contains(t, pattern.FacultyPaths, "people")

	// The off-host URL becomes a department subdomain candidate.
	require.NotEmpty(t, pattern.DepartmentSubdomains)
	assert.Equal(t, "https://cs.example.edu", pattern.DepartmentSubdomains["cs"])
}

func TestDiscoverFlatSitemap(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/people/directory</loc></url>
  <url><loc>%s/news</loc></url>
</urlset>`, srvURL, srvURL)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	engine := testEngine(t)
	s := &session{name: "Example University", baseURL: srv.URL}

	pattern, err := engine.discoverSitemap(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.Equal(t, []string{"people/directory"}, pattern.FacultyPaths)
	assert.Empty(t, pattern.DepartmentSubdomains)
}

func TestScanNavLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<nav>
  <a href="/about">About</a>
  <a href="/academics/faculty">Faculty</a>
  <a href="/people">Our People</a>
  <a href="mailto:info@example.edu">Contact</a>
</nav>
</body></html>`))
	}))
	defer srv.Close()

	engine := testEngine(t)
	s := &session{name: "Example University", baseURL: srv.URL}

	pattern, err := engine.scanNavLinks(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.ElementsMatch(t, []string{"academics/faculty", "people"}, pattern.FacultyPaths)
}

func TestProbeCommonPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/faculty", "/directory":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	engine := testEngine(t)
	s := &session{name: "Example University", baseURL: srv.URL}

	pattern, err := engine.probeCommonPaths(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.ElementsMatch(t, []string{"faculty", "directory"}, pattern.FacultyPaths)
}

func TestDomainVariants(t *testing.T) {
	tests := []struct {
		name     string
		contains string
	}{
		{"University of Michigan", "michigan.edu"},
		{"University of Michigan", "umich.edu"},
		{"Stanford University", "stanford.edu"},
		{"Carnegie Mellon University", "carnegiemellon.edu"},
		{"Carnegie Mellon University", "cm.edu"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.contains, func(t *testing.T) {
			assert.Contains(t, domainVariants(tt.name), tt.contains)
		})
	}
}

type stubAssistant struct {
	finding *AssistantFinding
}

func (s *stubAssistant) DiscoverFacultyDirectories(_ context.Context, _, _, _ string) (*AssistantFinding, error) {
	return s.finding, nil
}

func TestAssistantConfidenceCapped(t *testing.T) {
	engine := testEngine(t)
	engine.Assistant = &stubAssistant{finding: &AssistantFinding{
		FacultyPaths: []string{"faculty"},
		Confidence:   0.99,
	}}

	pattern, err := engine.fromAssistant(context.Background(), &session{name: "X"})
	require.NoError(t, err)
	require.NotNil(t, pattern)
	assert.Equal(t, assistantTrustCap, pattern.Confidence)
}
