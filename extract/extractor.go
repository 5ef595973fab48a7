package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/c360studio/facultyatlas/department"
	"github.com/c360studio/facultyatlas/fetch"
	"github.com/c360studio/facultyatlas/search"
)

// ErrValidationRejected marks a candidate item that failed the name/profile
// heuristics. Rejected candidates are dropped and counted, never fatal.
var ErrValidationRejected = errors.New("candidate failed name/profile validation")

// DefaultMaxPages bounds pagination beyond the first directory page.
const DefaultMaxPages = 5

// minLabSearchConfidence gates adopting a searched lab URL.
const minLabSearchConfidence = 0.5

// LabClassifier scores whether a text span names a research lab.
type LabClassifier interface {
	Predict(text string) (isLabName bool, confidence float64)
}

// Searcher finds lab websites for a faculty/lab pair. Implementations may
// rate-limit and return an empty slice when throttled.
type Searcher interface {
	SearchLabURLs(ctx context.Context, facultyName, labName, university string, maxResults int) ([]search.Result, error)
}

var labPhraseRe = regexp.MustCompile(`\b((?:[A-Z][A-Za-z'&\-]+\s+){1,5}Lab(?:oratory)?)\b`)

// Extractor scrapes raw faculty records from department directory pages.
// Classifier and Search are optional collaborators for secondary lab
// signals; either may be nil.
type Extractor struct {
	renderer fetch.Renderer
	logger   *slog.Logger
	maxPages int

	Classifier LabClassifier
	Search     Searcher
}

// NewExtractor builds an extractor over the given renderer. Directories are
// frequently client-rendered, so production callers should pass a dynamic
// renderer; a static one is fine for server-rendered sites and tests.
func NewExtractor(renderer fetch.Renderer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		renderer: renderer,
		logger:   logger.With("component", "extractor"),
		maxPages: DefaultMaxPages,
	}
}

// SetMaxPages bounds how many pages beyond the first are followed.
func (e *Extractor) SetMaxPages(n int) {
	if n >= 0 {
		e.maxPages = n
	}
}

// Scrape extracts faculty records from the department's directory, following
// pagination sequentially up to the page bound or until maxFaculty records
// (0 means unlimited) are collected. A failed first-page render is an error;
// later page failures and per-item failures are logged and skipped.
func (e *Extractor) Scrape(ctx context.Context, dept department.Info, universityName string, maxFaculty int) ([]RawFaculty, error) {
	var records []RawFaculty
	seen := make(map[string]bool)
	rejected := 0

	current := dept.URL
	for page := 0; page <= e.maxPages; page++ {
		doc, err := e.renderer.Render(ctx, current)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("rendering department page %s: %w", dept.URL, err)
			}
			e.logger.Warn("page render failed, stopping pagination",
				"department", dept.Name, "page", page, "error", err)
			break
		}

		layout := dept.Structure
		if layout == department.StructureUnknown || layout == "" {
			layout = ClassifyLayout(doc)
		}
		items, method := selectItems(doc, layout)
		if items == nil {
			if page == 0 {
				e.logger.Info("no faculty items found", "department", dept.Name, "url", dept.URL)
			}
			break
		}

		added := 0
		items.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			rec, err := e.parseItem(ctx, sel, dept, universityName, method)
			if err != nil {
				if errors.Is(err, ErrValidationRejected) {
					rejected++
				} else {
					e.logger.Debug("item extraction failed", "department", dept.Name, "error", err)
				}
				return true
			}
			key := strings.ToLower(rec.ProfileURL)
			if seen[key] {
				return true
			}
			seen[key] = true
			records = append(records, rec)
			added++
			return maxFaculty <= 0 || len(records) < maxFaculty
		})

		if maxFaculty > 0 && len(records) >= maxFaculty {
			break
		}
		if added == 0 {
			break
		}
		current = nextPageURL(doc, dept.URL, page+1)
	}

	e.logger.Info("department extracted",
		"department", dept.Name, "records", len(records), "rejected", rejected)
	return records, nil
}

var nextLinkRe = regexp.MustCompile(`(?i)^(next|more|older)\b|^(›|»|→)$`)

// nextPageURL finds the next pagination target: an explicit rel=next link,
// an anchor whose text reads as "next", or the synthesized ?page=N guess.
func nextPageURL(doc *goquery.Document, baseURL string, page int) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return pageURL(baseURL, page)
	}

	if href, ok := doc.Find("a[rel='next'], link[rel='next']").First().Attr("href"); ok {
		if abs := resolveURL(base, href); abs != "" {
			return abs
		}
	}

	found := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !nextLinkRe.MatchString(strings.TrimSpace(sel.Text())) {
			return true
		}
		href, _ := sel.Attr("href")
		if abs := resolveURL(base, href); abs != "" && abs != baseURL {
			found = abs
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	return pageURL(baseURL, page)
}

// pageURL appends a sequential page parameter; page 0 is the base URL.
func pageURL(base string, page int) string {
	if page == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}

// parseItem turns one directory item into a record. It requires a qualifying
// personal name and a resolvable profile URL; anything less is rejected.
func (e *Extractor) parseItem(ctx context.Context, sel *goquery.Selection, dept department.Info, universityName string, method Method) (RawFaculty, error) {
	base, err := url.Parse(dept.URL)
	if err != nil {
		return RawFaculty{}, fmt.Errorf("parsing department URL: %w", err)
	}

	name, profile := bestAnchor(sel, base)
	if name == "" {
		name, profile = fallbackNameAndLink(sel, base)
	}
	if name == "" || profile == "" {
		return RawFaculty{}, ErrValidationRejected
	}

	text := sel.Text()
	rec := RawFaculty{
		Name:       name,
		Title:      ExtractTitle(text, name),
		Email:      ExtractEmail(mailtoHref(sel), text),
		Department: dept.Name,
		University: universityName,
		ProfileURL: profile,
		SourceURL:  dept.URL,
		Method:     method,
	}
	e.attachLabSignals(ctx, &rec, sel, text)
	return rec, nil
}

// bestAnchor discards mailto/tel/fragment/short/boilerplate links, then picks
// the candidate with the longest visible text that parses as a personal name.
func bestAnchor(sel *goquery.Selection, base *url.URL) (name, profile string) {
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.Join(strings.Fields(a.Text()), " ")
		if !usableHref(href) || len(text) < 4 {
			return
		}
		if !IsPersonalName(text) {
			return
		}
		if len(text) > len(name) {
			if abs := resolveURL(base, href); abs != "" {
				name, profile = text, abs
			}
		}
	})
	return name, profile
}

// fallbackNameAndLink pairs nearby heading or bold text with the nearest
// valid link when no anchor text qualifies as a name.
func fallbackNameAndLink(sel *goquery.Selection, base *url.URL) (name, profile string) {
	sel.Find("h1, h2, h3, h4, strong, b, .name").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.Join(strings.Fields(h.Text()), " ")
		if IsPersonalName(text) {
			name = text
			return false
		}
		return true
	})
	if name == "" {
		return "", ""
	}
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !usableHref(href) {
			return true
		}
		if abs := resolveURL(base, href); abs != "" {
			profile = abs
			return false
		}
		return true
	})
	return name, profile
}

// attachLabSignals scans the item text for a lab-shaped phrase, optionally
// confirms it with the classifier, and resolves a lab URL from a link in the
// item or from the search collaborator. Search throttling yields no URL and
// is not an error.
func (e *Extractor) attachLabSignals(ctx context.Context, rec *RawFaculty, sel *goquery.Selection, text string) {
	match := labPhraseRe.FindString(text)
	if match == "" {
		return
	}
	if e.Classifier != nil {
		if ok, _ := e.Classifier.Predict(match); !ok {
			return
		}
	}
	rec.LabName = strings.TrimSpace(match)

	base, _ := url.Parse(rec.SourceURL)
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(a.Text()), "lab") {
			return true
		}
		href, _ := a.Attr("href")
		if !usableHref(href) {
			return true
		}
		if abs := resolveURL(base, href); abs != "" {
			rec.LabURL = abs
			return false
		}
		return true
	})

	if rec.LabURL == "" && e.Search != nil {
		results, err := e.Search.SearchLabURLs(ctx, rec.Name, rec.LabName, rec.University, 3)
		if err != nil {
			e.logger.Debug("lab URL search failed", "lab", rec.LabName, "error", err)
			return
		}
		for _, r := range results {
			if r.Confidence >= minLabSearchConfidence {
				rec.LabURL = r.URL
				break
			}
		}
	}
}

func mailtoHref(sel *goquery.Selection) string {
	href := ""
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, _ := a.Attr("href")
		if strings.HasPrefix(strings.ToLower(h), "mailto:") {
			href = h
			return false
		}
		return true
	})
	return href
}

func usableHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	switch {
	case lower == "", strings.HasPrefix(lower, "#"):
		return false
	case strings.HasPrefix(lower, "mailto:"), strings.HasPrefix(lower, "tel:"):
		return false
	case strings.HasPrefix(lower, "javascript:"):
		return false
	}
	return true
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}
