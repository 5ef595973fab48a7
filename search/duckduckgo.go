package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/c360studio/facultyatlas/fetch"
)

// defaultEndpoint is DuckDuckGo's HTML-only results page, which needs no
// API key and parses cleanly.
const defaultEndpoint = "https://html.duckduckgo.com/html/"

// WebClient searches the public web for lab websites via DuckDuckGo's
// HTML endpoint. It is the inner client behind RateLimitedClient in
// production wiring.
type WebClient struct {
	client   *fetch.Client
	endpoint string
	logger   *slog.Logger
}

// NewWebClient builds a web search client over the shared fetch layer.
func NewWebClient(client *fetch.Client, logger *slog.Logger) *WebClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebClient{
		client:   client,
		endpoint: defaultEndpoint,
		logger:   logger.With("component", "websearch"),
	}
}

// SetEndpoint overrides the search endpoint. Used by tests.
func (c *WebClient) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// SearchLabURLs queries for the lab's website and scores each hit by how
// well its title and URL echo the lab and faculty names.
func (c *WebClient) SearchLabURLs(ctx context.Context, facultyName, labName, university string, maxResults int) ([]Result, error) {
	query := fmt.Sprintf("%q %s %s", labName, facultyName, university)
	page, err := c.client.Get(ctx, c.endpoint+"?q="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", labName, err)
	}
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		title := strings.TrimSpace(anchor.Text())
		results = append(results, Result{
			URL:        target,
			Title:      title,
			Snippet:    strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			Confidence: scoreHit(target, title, labName, facultyName),
		})
		return maxResults <= 0 || len(results) < maxResults
	})

	c.logger.Debug("web search complete", "lab", labName, "results", len(results))
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links. Direct
// links pass through unchanged; anything unparseable is dropped.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if target, err := url.QueryUnescape(uddg); err == nil {
			return target
		}
		return ""
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}

// scoreHit estimates how likely a search hit is the lab's own site: token
// overlap with the lab name carries most weight, the faculty surname and a
// .edu host add the rest.
func scoreHit(target, title, labName, facultyName string) float64 {
	lowerTitle := strings.ToLower(title)
	lowerURL := strings.ToLower(target)

	score := 0.2
	tokens := strings.Fields(strings.ToLower(labName))
	matched := 0
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(lowerTitle, tok) || strings.Contains(lowerURL, tok) {
			matched++
		}
	}
	if len(tokens) > 0 {
		score += 0.5 * float64(matched) / float64(len(tokens))
	}

	nameTokens := strings.Fields(strings.ToLower(facultyName))
	if len(nameTokens) > 0 {
		surname := nameTokens[len(nameTokens)-1]
		if strings.Contains(lowerTitle, surname) || strings.Contains(lowerURL, surname) {
			score += 0.2
		}
	}
	if strings.Contains(lowerURL, ".edu") {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}
