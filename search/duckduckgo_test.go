package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/config"
	"github.com/c360studio/facultyatlas/fetch"
)

const resultsHTML = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fvision.stanford.edu%2F&rut=abc">Stanford Vision Lab</a>
  <div class="result__snippet">The Vision Lab studies visual perception.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/unrelated">Cooking recipes</a>
  <div class="result__snippet">Dinner ideas.</div>
</div>
<div class="result">
  <a class="result__a" href="javascript:void(0)">Sponsored</a>
</div>
<div class="result">
  <a class="result__a" href="https://smith.github.io/lab">Smith Lab homepage</a>
  <div class="result__snippet">Research group of Jane Smith.</div>
</div>
</body></html>`

func newWebClient(t *testing.T, endpoint string) *WebClient {
	t.Helper()
	cfg := config.DefaultConfig().HTTP
	cfg.RespectRobots = false
	cfg.Delay = 0
	c := NewWebClient(fetch.NewClient(cfg, nil), nil)
	c.SetEndpoint(endpoint)
	return c
}

func TestWebClientParsesAndScoresResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "Vision Lab")
		w.Write([]byte(resultsHTML))
	}))
	defer srv.Close()

	c := newWebClient(t, srv.URL+"/html/")
	results, err := c.SearchLabURLs(context.Background(), "Jane Smith", "Vision Lab", "Stanford University", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "https://vision.stanford.edu/", results[0].URL)
	assert.Equal(t, "Stanford Vision Lab", results[0].Title)
	assert.Contains(t, results[0].Snippet, "visual perception")

	// the redirect-wrapped .edu hit matching both lab tokens outranks the
	// unrelated one
	assert.Greater(t, results[0].Confidence, results[1].Confidence)
	assert.Equal(t, "https://example.com/unrelated", results[1].URL)
}

func TestWebClientHonorsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsHTML))
	}))
	defer srv.Close()

	c := newWebClient(t, srv.URL+"/html/")
	results, err := c.SearchLabURLs(context.Background(), "Jane Smith", "Vision Lab", "Stanford University", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestScoreHit(t *testing.T) {
	edu := scoreHit("https://vision.stanford.edu/", "Stanford Vision Lab", "Vision Lab", "Jane Smith")
	unrelated := scoreHit("https://example.com/recipes", "Cooking recipes", "Vision Lab", "Jane Smith")
	assert.Greater(t, edu, unrelated)
	assert.LessOrEqual(t, edu, 1.0)
	assert.GreaterOrEqual(t, unrelated, 0.2)
}
