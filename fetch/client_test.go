package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/config"
)

func testClient(respectRobots bool) *Client {
	cfg := config.HTTPConfig{
		UserAgent:     "facultyatlas-test/1.0",
		Timeout:       5 * time.Second,
		Parallelism:   2,
		Delay:         0,
		RespectRobots: respectRobots,
	}
	return NewClient(cfg, nil)
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/faculty":
			w.Write([]byte("<html><body><h1>Faculty Directory</h1></body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := testClient(false)

	page, err := client.Get(context.Background(), srv.URL+"/faculty")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "Faculty Directory")

	doc, err := page.Document()
	require.NoError(t, err)
	assert.Equal(t, "Faculty Directory", doc.Find("h1").Text())
}

func TestClientGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := testClient(false)

	_, err := client.Get(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestClientGetCancelledContext(t *testing.T) {
	client := testClient(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "http://example.invalid/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people":
			w.WriteHeader(http.StatusOK)
		case "/old":
			http.Redirect(w, r, "/people", http.StatusMovedPermanently)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := testClient(false)

	ok, finalURL := client.Head(context.Background(), srv.URL+"/people")
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/people", finalURL)

	// Redirects are followed and the final URL reported.
	ok, finalURL = client.Head(context.Background(), srv.URL+"/old")
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/people", finalURL)

	ok, _ = client.Head(context.Background(), srv.URL+"/missing")
	assert.False(t, ok)
}

func TestClientRobotsGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		default:
			w.Write([]byte("<html><body>ok</body></html>"))
		}
	}))
	defer srv.Close()

	client := testClient(true)

	assert.True(t, client.Allowed(context.Background(), srv.URL+"/faculty"))
	assert.False(t, client.Allowed(context.Background(), srv.URL+"/private/page"))
}

func TestClientRobotsMissingAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := testClient(true)
	assert.True(t, client.Allowed(context.Background(), srv.URL+"/anything"))
}
