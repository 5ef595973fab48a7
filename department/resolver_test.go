package department

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/config"
	"github.com/c360studio/facultyatlas/discovery"
	"github.com/c360studio/facultyatlas/fetch"
)

func testClient(t *testing.T) *fetch.Client {
	t.Helper()
	cfg := config.DefaultConfig().HTTP
	cfg.RespectRobots = false
	cfg.Delay = 0
	return fetch.NewClient(cfg, nil)
}

func TestIsDepartmentCandidate(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Department of Biology", true},
		{"School of Engineering", true},
		{"Physics", true},
		{"Comparative Literature and Cultural Studies", true},
		{"News", false},
		{"Contact Us", false},
		{"Admissions", false},
		{"Follow us on Twitter", false},
		{"jane@example.edu", false},
		{"https://example.edu/bio", false},
		{"www.example.edu", false},
		{"AB", false},
		{strings.Repeat("x", 151), false},
		// short text with no academic keyword
		{"Click here", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsDepartmentCandidate(tc.text), "text %q", tc.text)
	}
}

func TestOverrideAllowsPath(t *testing.T) {
	ov := &Override{
		IncludePaths: []string{"**/faculty/**", "departments/**"},
		ExcludePaths: []string{"departments/archive/**"},
	}
	assert.True(t, ov.AllowsPath("/cs/faculty/people"))
	assert.True(t, ov.AllowsPath("/departments/biology"))
	assert.False(t, ov.AllowsPath("/departments/archive/2019"))
	assert.False(t, ov.AllowsPath("/news/today"))

	var none *Override
	assert.True(t, none.AllowsPath("/anything"))
}

func TestResolveUsesOverrideDepartments(t *testing.T) {
	table := NewTable(nil)
	r := NewResolver(testClient(t), table, nil)
	pattern := discovery.FallbackPattern("Stanford University", "https://www.stanford.edu")

	infos := r.Resolve(context.Background(), pattern, "")
	require.NotEmpty(t, infos)
	for _, info := range infos {
		assert.Equal(t, overrideConfidence, info.Confidence)
	}

	filtered := r.Resolve(context.Background(), pattern, "computer")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Computer Science", filtered[0].Name)
}

func TestResolveScansFacultyPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/faculty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/biology">Department of Biology</a>
			<a href="/physics">Department of Physics</a>
			<a href="/biology/">Department of Biology</a>
			<a href="/news">News and Events</a>
			<a href="/contact">Contact Us</a>
			<a href="mailto:dean@example.edu">dean@example.edu</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(testClient(t), nil, nil)
	pattern := &discovery.UniversityPattern{
		UniversityName: "Example University",
		BaseURL:        srv.URL,
		FacultyPaths:   []string{"faculty"},
	}

	infos := r.Resolve(context.Background(), pattern, "")
	require.Len(t, infos, 2, "noise links rejected, duplicate URL collapsed")
	names := []string{infos[0].Name, infos[1].Name}
	assert.Contains(t, names, "Biology")
	assert.Contains(t, names, "Physics")
	for _, info := range infos {
		assert.Equal(t, scannedConfidence, info.Confidence)
		assert.False(t, info.IsSubdomain)
	}
}

func TestResolveProbesSubdomains(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/people/faculty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<p>Professor Jane Doe</p>
			<p>Professor John Roe, PhD</p>
			<p>Faculty directory</p>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(testClient(t), nil, nil)
	pattern := &discovery.UniversityPattern{
		UniversityName:       "Example University",
		BaseURL:              "https://www.example.edu",
		DepartmentSubdomains: map[string]string{"cs": srv.URL},
	}

	infos := r.Resolve(context.Background(), pattern, "")
	require.Len(t, infos, 1)
	assert.Equal(t, "CS", infos[0].Name)
	assert.True(t, infos[0].IsSubdomain)
	assert.Equal(t, srv.URL, infos[0].SubdomainBase)
	assert.Equal(t, srv.URL+"/people/faculty", infos[0].URL)
}

func TestOverridesWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- university: Example University
  departments:
    - name: Chemistry
      url: https://chem.example.edu/faculty
`), 0o644))

	table := NewTable(nil)
	require.NoError(t, table.LoadFile(path))
	defer table.Close()

	ov := table.Lookup("Example University")
	require.NotNil(t, ov)
	require.Len(t, ov.Departments, 1)
	assert.Equal(t, "Chemistry", ov.Departments[0].Name)

	// file entries shadow built-ins for the same institution
	require.NoError(t, os.WriteFile(path, []byte(`
- university: Stanford University
  departments:
    - name: Statistics
      url: https://stat.stanford.edu/people
`), 0o644))
	require.NoError(t, table.LoadFile(path))
	ov = table.Lookup("Stanford University")
	require.NotNil(t, ov)
	require.Len(t, ov.Departments, 1)
	assert.Equal(t, "Statistics", ov.Departments[0].Name)
}
