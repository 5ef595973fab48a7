package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Renderer turns a URL into a parsed document. Directory pages are often
// client-rendered, so the default pipeline can swap the static renderer
// for a browser-backed one.
type Renderer interface {
	Render(ctx context.Context, url string) (*goquery.Document, error)
}

// StaticRenderer fetches and parses the raw HTML without executing scripts.
type StaticRenderer struct {
	client *Client
}

// NewStaticRenderer creates a renderer backed by the fetch client.
func NewStaticRenderer(client *Client) *StaticRenderer {
	return &StaticRenderer{client: client}
}

// Render implements Renderer.
func (r *StaticRenderer) Render(ctx context.Context, url string) (*goquery.Document, error) {
	return r.client.GetDocument(ctx, url)
}

// ChromeRenderer executes the page in a headless browser and returns the
// settled DOM. Renders are serialized: one browser context at a time.
type ChromeRenderer struct {
	timeout time.Duration
	mu      sync.Mutex
}

// NewChromeRenderer creates a browser-backed renderer.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{timeout: timeout}
}

// Render implements Renderer.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (*goquery.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	tctx, tcancel := context.WithTimeout(cctx, r.timeout)
	defer tcancel()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
