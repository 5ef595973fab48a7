// Package fetch provides the shared HTTP layer for discovery, resolution,
// and extraction: polite page fetching, liveness probes, a robots.txt gate,
// and page rendering.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/temoto/robotstxt"

	"github.com/c360studio/facultyatlas/config"
)

// ErrRobotsDisallowed is returned when robots.txt forbids fetching a URL.
var ErrRobotsDisallowed = errors.New("fetch: disallowed by robots.txt")

// Page is a fetched HTML page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Document parses the page body into a goquery document.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
}

// Client fetches pages politely: bounded per-domain parallelism, a
// politeness delay, a single user agent, and an optional robots.txt gate.
type Client struct {
	base          *colly.Collector
	httpc         *http.Client
	ua            string
	timeout       time.Duration
	respectRobots bool
	logger        *slog.Logger

	robotsMu sync.Mutex
	robots   map[string]*robotstxt.RobotsData
}

// NewClient creates a fetch client from HTTP configuration.
func NewClient(cfg config.HTTPConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
	}
	if !cfg.RespectRobots {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	base := colly.NewCollector(opts...)
	base.SetRequestTimeout(cfg.Timeout)
	base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	})

	return &Client{
		base:          base,
		httpc:         &http.Client{Timeout: cfg.Timeout},
		ua:            cfg.UserAgent,
		timeout:       cfg.Timeout,
		respectRobots: cfg.RespectRobots,
		logger:        logger,
		robots:        make(map[string]*robotstxt.RobotsData),
	}
}

// Get fetches a page. Robots.txt is consulted first when enabled. A non-2xx
// response is an error.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	// Clone keeps the collector's limits and user agent but drops callbacks,
	// so each Get gets its own response capture.
	col := c.base.Clone()

	var page *Page
	var fetchErr error
	col.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})
	col.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", rawURL, err)
	})

	if err := col.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	col.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if page == nil {
		return nil, fmt.Errorf("fetch %s: no response", rawURL)
	}
	return page, nil
}

// GetDocument fetches a page and parses it.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	page, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return page.Document()
}

// Head probes a URL with an HTTP HEAD request, following redirects. It
// returns whether the URL resolved to a non-error response and the final
// URL after redirects.
func (c *Client) Head(ctx context.Context, rawURL string) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, ""
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, ""
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return false, ""
	}
	return true, resp.Request.URL.String()
}

// Allowed reports whether robots.txt permits fetching the URL. Missing or
// unreadable robots.txt means allowed.
func (c *Client) Allowed(ctx context.Context, rawURL string) bool {
	if !c.respectRobots {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data := c.robotsFor(ctx, u)
	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, c.ua)
}

// robotsFor fetches and caches robots.txt per host.
func (c *Client) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	c.robotsMu.Lock()
	defer c.robotsMu.Unlock()

	if data, ok := c.robots[u.Host]; ok {
		return data
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.robots[u.Host] = nil
		return nil
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt unreachable, allowing",
			slog.String("host", u.Host), slog.String("error", err.Error()))
		c.robots[u.Host] = nil
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.robots[u.Host] = nil
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		c.robots[u.Host] = nil
		return nil
	}

	c.robots[u.Host] = data
	return data
}
