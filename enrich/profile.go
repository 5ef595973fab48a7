// Package enrich builds enrichment rows from faculty profile pages: readable
// profile content converted to markdown, plus outbound link discovery for
// scholar profiles, personal sites, and lab websites.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/fetch"
)

// maxBiography bounds the biography excerpt taken from the readable text.
const maxBiography = 1000

// ProfileEnricher fetches a faculty profile page and turns it into
// enrichment rows.
type ProfileEnricher struct {
	client    *fetch.Client
	converter *md.Converter
	logger    *slog.Logger
}

// NewProfileEnricher builds an enricher over the fetch client.
func NewProfileEnricher(client *fetch.Client, logger *slog.Logger) *ProfileEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileEnricher{
		client:    client,
		converter: md.NewConverter("", true, nil),
		logger:    logger.With("component", "enricher"),
	}
}

// EnrichProfile fetches the profile URL and returns a profile enrichment
// plus any link enrichments found on the page. The profile enrichment is
// always first when present.
func (e *ProfileEnricher) EnrichProfile(ctx context.Context, profileURL string) ([]*entity.Enrichment, error) {
	page, err := e.client.Get(ctx, profileURL)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	parsed, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing profile URL: %w", err)
	}

	now := time.Now()
	var out []*entity.Enrichment

	article, err := readability.FromReader(bytes.NewReader(page.Body), parsed)
	if err != nil {
		e.logger.Debug("profile not readable", "url", profileURL, "error", err)
	} else {
		markdown, convErr := e.converter.ConvertString(article.Content)
		if convErr != nil {
			e.logger.Debug("markdown conversion failed", "url", profileURL, "error", convErr)
		}
		out = append(out, &entity.Enrichment{
			Type:        entity.EnrichmentProfile,
			Status:      entity.EnrichmentFresh,
			ExtractedAt: now,
			UpdatedAt:   now,
			Profile: &entity.ProfileEnrichment{
				SourceURL: page.URL,
				Markdown:  markdown,
				Excerpt:   article.Excerpt,
				Biography: clipText(article.TextContent, maxBiography),
				Interests: scanInterests(article.TextContent),
			},
		})
	}

	doc, err := page.Document()
	if err != nil {
		return out, nil
	}
	out = append(out, ScanLinks(doc, parsed, now)...)
	return out, nil
}

// ScanLinks walks a profile page's outbound links and emits link enrichments
// for scholar profiles, lab websites, and off-site personal pages.
func ScanLinks(doc *goquery.Document, base *url.URL, now time.Time) []*entity.Enrichment {
	var out []*entity.Enrichment
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		target := abs.String()
		if seen[target] {
			return
		}

		kind, confidence := classifyLink(abs, sel.Text())
		if kind == "" {
			return
		}
		seen[target] = true

		enrType := entity.EnrichmentLink
		var scholar *entity.GoogleScholarEnrichment
		if kind == "scholar_profile" {
			enrType = entity.EnrichmentGoogleScholar
			scholar = &entity.GoogleScholarEnrichment{ProfileURL: target}
		}
		enr := &entity.Enrichment{
			Type:        enrType,
			Status:      entity.EnrichmentFresh,
			ExtractedAt: now,
			UpdatedAt:   now,
			Scholar:     scholar,
		}
		if scholar == nil {
			enr.Link = &entity.LinkEnrichment{
				URL:        target,
				Kind:       kind,
				Source:     base.String(),
				Confidence: confidence,
			}
		}
		out = append(out, enr)
	})
	return out
}

// classifyLink tags an outbound link, returning an empty kind for links that
// are not enrichment-worthy.
func classifyLink(u *url.URL, text string) (kind string, confidence float64) {
	host := strings.ToLower(u.Hostname())
	lowerText := strings.ToLower(text)

	switch {
	case strings.Contains(host, "scholar.google"):
		return "scholar_profile", 0.9
	case strings.Contains(host, "github.io"), strings.Contains(host, "people.") && strings.Contains(u.Path, "~"):
		return "personal_site", 0.7
	case strings.Contains(lowerText, "lab") && strings.Contains(lowerText, "website"):
		return "lab_website", 0.6
	case strings.Contains(host, "lab") || strings.Contains(u.Path, "/lab"):
		return "lab_website", 0.5
	case strings.Contains(lowerText, "personal") || strings.Contains(lowerText, "homepage"):
		return "personal_site", 0.6
	}
	return "", 0
}

var interestMarkers = []string{"research interests", "areas of interest", "research areas"}

// scanInterests pulls a comma/semicolon list following a research-interests
// marker phrase.
func scanInterests(text string) []string {
	lower := strings.ToLower(text)
	for _, marker := range interestMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(marker):]
		rest = strings.TrimLeft(rest, ":– \t")
		if end := strings.IndexAny(rest, ".\n"); end > 0 {
			rest = rest[:end]
		}
		var interests []string
		for _, part := range strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ';' }) {
			if p := strings.TrimSpace(part); p != "" && len(p) < 80 {
				interests = append(interests, p)
			}
		}
		if len(interests) > 0 {
			return interests
		}
	}
	return nil
}

func clipText(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	clipped := text[:max]
	if idx := strings.LastIndex(clipped, " "); idx > 0 {
		clipped = clipped[:idx]
	}
	return clipped
}
