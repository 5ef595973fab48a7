package department

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/facultyatlas/discovery"
	"github.com/c360studio/facultyatlas/fetch"
)

const (
	overrideConfidence  = 0.95
	scannedConfidence   = 0.6
	subdomainConfidence = 0.7

	defaultProbeConcurrency = 5

	// minimum faculty-indicator hits for a subdomain page to count as a
	// faculty directory
	indicatorThreshold = 3
)

// Text fragments that disqualify a link from being a department. Matched
// case-insensitively against the anchor text.
var rejectFragments = []string{
	"news", "event", "calendar", "contact", "admission", "apply",
	"giving", "donate", "alumni", "login", "sign in", "privacy",
	"careers", "jobs", "twitter", "facebook", "instagram", "linkedin",
	"youtube", "sitemap", "accessibility",
}

// Academic keywords that let short anchor text through the filter.
var academicKeywords = []string{
	"department", "school", "college", "institute", "center", "program",
	"science", "sciences", "engineering", "studies", "mathematics",
	"physics", "chemistry", "biology", "economics", "history", "english",
	"psychology", "sociology", "philosophy", "linguistics", "medicine",
	"nursing", "law", "business", "education", "music", "art",
}

var facultyIndicatorRe = regexp.MustCompile(`(?i)\b(professor|faculty|ph\.?d|lecturer|emeritus|research)\b`)

var subdomainProbePaths = []string{"/people/faculty", "/faculty", "/people", "/directory"}

// Resolver turns a discovered pattern into department candidates.
type Resolver struct {
	client           *fetch.Client
	overrides        *Table
	logger           *slog.Logger
	probeConcurrency int
}

// NewResolver builds a resolver. overrides may be nil, in which case only
// built-in overrides apply.
func NewResolver(client *fetch.Client, overrides *Table, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if overrides == nil {
		overrides = NewTable(logger)
	}
	return &Resolver{
		client:           client,
		overrides:        overrides,
		logger:           logger.With("component", "department_resolver"),
		probeConcurrency: defaultProbeConcurrency,
	}
}

// SetProbeConcurrency bounds parallel subdomain probes.
func (r *Resolver) SetProbeConcurrency(n int) {
	if n > 0 {
		r.probeConcurrency = n
	}
}

// Resolve produces department candidates for the pattern. targetDepartment,
// when non-empty, filters results to names containing it. Resolve never
// returns an error: fetch failures skip the affected source and resolution
// continues with the rest.
func (r *Resolver) Resolve(ctx context.Context, pattern *discovery.UniversityPattern, targetDepartment string) []Info {
	ov := r.overrides.Lookup(pattern.UniversityName)
	if ov != nil && len(ov.Departments) > 0 {
		r.logger.Info("using department overrides", "university", pattern.UniversityName, "count", len(ov.Departments))
		return filterTarget(fromOverride(ov), targetDepartment)
	}

	var out []Info
	out = append(out, r.scanFacultyPages(ctx, pattern, ov)...)
	out = append(out, r.probeSubdomains(ctx, pattern)...)

	out = dedupByURL(out)
	out = filterTarget(out, targetDepartment)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	r.logger.Info("resolved departments",
		"university", pattern.UniversityName, "count", len(out))
	return out
}

func fromOverride(ov *Override) []Info {
	out := make([]Info, 0, len(ov.Departments))
	for _, d := range ov.Departments {
		structure := StructureType(d.Structure)
		if structure == "" {
			structure = StructureUnknown
		}
		out = append(out, Info{
			Name:       d.Name,
			URL:        d.URL,
			Structure:  structure,
			Confidence: overrideConfidence,
		})
	}
	return out
}

// scanFacultyPages fetches each discovered faculty path and harvests links
// whose anchor text plausibly names a department.
func (r *Resolver) scanFacultyPages(ctx context.Context, pattern *discovery.UniversityPattern, ov *Override) []Info {
	var out []Info
	for _, path := range pattern.FacultyPaths {
		pageURL := strings.TrimRight(pattern.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
		doc, err := r.client.GetDocument(ctx, pageURL)
		if err != nil {
			r.logger.Debug("faculty page fetch failed", "url", pageURL, "error", err)
			continue
		}
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			href, _ := sel.Attr("href")
			if !IsDepartmentCandidate(text) {
				return
			}
			abs := resolveRef(pageURL, href)
			if abs == "" {
				return
			}
			if u, err := url.Parse(abs); err == nil && !ov.AllowsPath(u.Path) {
				return
			}
			out = append(out, Info{
				Name:       cleanName(text),
				URL:        abs,
				Structure:  StructureUnknown,
				Confidence: scannedConfidence,
			})
		})
	}
	return out
}

// probeSubdomains checks each department subdomain for a faculty page and
// accepts the first path whose body shows enough faculty indicators.
func (r *Resolver) probeSubdomains(ctx context.Context, pattern *discovery.UniversityPattern) []Info {
	if len(pattern.DepartmentSubdomains) == 0 {
		return nil
	}
	type probe struct {
		label string
		base  string
	}
	probes := make([]probe, 0, len(pattern.DepartmentSubdomains))
	for label, base := range pattern.DepartmentSubdomains {
		probes = append(probes, probe{label: label, base: base})
	}
	sort.Slice(probes, func(i, j int) bool { return probes[i].label < probes[j].label })

	results := make([]Info, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.probeConcurrency)
	for i, p := range probes {
		g.Go(func() error {
			for _, path := range subdomainProbePaths {
				target := strings.TrimRight(p.base, "/") + path
				page, err := r.client.Get(gctx, target)
				if err != nil || page.StatusCode != 200 {
					continue
				}
				doc, err := page.Document()
				if err != nil {
					continue
				}
				body := doc.Find("body").Text()
				if hits := len(facultyIndicatorRe.FindAllString(body, indicatorThreshold)); hits < indicatorThreshold {
					continue
				}
				results[i] = Info{
					Name:          strings.ToUpper(p.label),
					URL:           target,
					Structure:     StructureUnknown,
					Confidence:    subdomainConfidence,
					IsSubdomain:   true,
					SubdomainBase: p.base,
				}
				return nil
			}
			return nil
		})
	}
	g.Wait()

	out := make([]Info, 0, len(results))
	for _, info := range results {
		if info.URL != "" {
			out = append(out, info)
		}
	}
	return out
}

// IsDepartmentCandidate applies the anchor-text filters: length bounds,
// rejection fragments, URL-shaped or address-shaped text, and an academic
// keyword requirement for short text.
func IsDepartmentCandidate(text string) bool {
	if len(text) < 3 || len(text) > 150 {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "@") {
		return false
	}
	if strings.Contains(lower, "://") || strings.HasPrefix(lower, "www.") {
		return false
	}
	for _, frag := range rejectFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	if len(text) < 20 {
		for _, kw := range academicKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
	return true
}

func cleanName(text string) string {
	name := strings.Join(strings.Fields(text), " ")
	name = strings.TrimPrefix(name, "Department of ")
	name = strings.TrimPrefix(name, "School of ")
	return name
}

func resolveRef(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

func dedupByURL(in []Info) []Info {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, info := range in {
		key := strings.TrimRight(strings.ToLower(info.URL), "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, info)
	}
	return out
}

func filterTarget(in []Info, target string) []Info {
	if target == "" {
		return in
	}
	lower := strings.ToLower(target)
	out := in[:0]
	for _, info := range in {
		if strings.Contains(strings.ToLower(info.Name), lower) {
			out = append(out, info)
		}
	}
	return out
}
