package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"
)

// knownEntry is a hand-maintained pattern for a university whose structure
// has already been mapped.
type knownEntry struct {
	baseURL      string
	facultyPaths []string
	subdomains   map[string]string
}

// knownPatterns covers institutions that show up constantly in faculty
// datasets. Keyed by normalized institution name.
var knownPatterns = map[string]knownEntry{
	"stanford university": {
		baseURL:      "https://www.stanford.edu",
		facultyPaths: []string{"faculty", "people"},
		subdomains:   map[string]string{"cs": "https://cs.stanford.edu"},
	},
	"massachusetts institute technology": {
		baseURL:      "https://www.mit.edu",
		facultyPaths: []string{"people", "faculty"},
		subdomains:   map[string]string{"eecs": "https://www.eecs.mit.edu"},
	},
	"carnegie mellon university": {
		baseURL:      "https://www.cmu.edu",
		facultyPaths: []string{"directory", "people"},
		subdomains:   map[string]string{"cs": "https://csd.cmu.edu", "hcii": "https://hcii.cmu.edu"},
	},
	"university california berkeley": {
		baseURL:      "https://www.berkeley.edu",
		facultyPaths: []string{"faculty", "people"},
		subdomains:   map[string]string{"eecs": "https://eecs.berkeley.edu"},
	},
	"university michigan": {
		baseURL:      "https://umich.edu",
		facultyPaths: []string{"faculty", "people"},
	},
}

// knownTableConfidence is assigned to hand-maintained entries.
const knownTableConfidence = 0.9

// fromCache returns a cached pattern when one is recent and confident
// enough to reuse directly.
func (e *Engine) fromCache(ctx context.Context, s *session) (*UniversityPattern, error) {
	if e.cache == nil {
		return nil, nil
	}
	p, ok := e.cache.Get(ctx, s.name)
	if !ok || p.Confidence <= cacheReuseConfidence {
		return nil, nil
	}
	return p, nil
}

// fromKnownTable consults the static table of already-mapped universities.
func (e *Engine) fromKnownTable(_ context.Context, s *session) (*UniversityPattern, error) {
	entry, ok := knownPatterns[cacheKey(s.name)]
	if !ok {
		return nil, nil
	}
	return &UniversityPattern{
		UniversityName:       s.name,
		BaseURL:              entry.baseURL,
		FacultyPaths:         append([]string(nil), entry.facultyPaths...),
		DepartmentSubdomains: copyMap(entry.subdomains),
		Confidence:           knownTableConfidence,
	}, nil
}

// guessDomain probes templated domain variants derived from the university
// name. It fills in the session base URL for downstream strategies.
func (e *Engine) guessDomain(ctx context.Context, s *session) (*UniversityPattern, error) {
	if s.baseURL != "" {
		// A base URL was supplied; confirm it lives.
		if ok, finalURL := e.client.Head(ctx, s.baseURL); ok {
			s.baseURL = finalURL
			return &UniversityPattern{
				UniversityName: s.name,
				BaseURL:        finalURL,
				Confidence:     Score(Candidate{URL: finalURL, Reachable: true}, Query{UniversityName: s.name}),
			}, nil
		}
		return nil, nil
	}

	for _, domain := range domainVariants(s.name) {
		for _, candidate := range []string{"https://www." + domain, "https://" + domain} {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ok, finalURL := e.client.Head(ctx, candidate)
			if !ok {
				continue
			}
			// Reject redirects that left the guessed registrable domain.
			finalHost := hostOf(finalURL)
			if etld, err := publicsuffix.EffectiveTLDPlusOne(finalHost); err == nil && etld != domain {
				continue
			}
			s.baseURL = finalURL
			return &UniversityPattern{
				UniversityName: s.name,
				BaseURL:        finalURL,
				Confidence:     Score(Candidate{URL: finalURL, Reachable: true}, Query{UniversityName: s.name}),
			}, nil
		}
	}
	return nil, nil
}

// domainVariants generates domain guesses from a university name:
// "University of Michigan" yields michigan.edu, umich.edu, uofmichigan.edu.
func domainVariants(name string) []string {
	toks := nameTokens(name)
	if len(toks) == 0 {
		return nil
	}

	var variants []string
	add := func(v string) {
		if v != "" {
			variants = unionStrings(variants, []string{v + ".edu"})
		}
	}

	// Single distinguishing token.
	if len(toks) == 1 {
		add(toks[0])
	}

	// Concatenation and hyphenation of all tokens.
	add(strings.Join(toks, ""))
	add(strings.Join(toks, "-"))

	// "u" + name for "University of X" forms.
	lowered := strings.ToLower(name)
	if strings.HasPrefix(lowered, "university of ") {
		add(toks[0])
		add("u" + toks[0])
		if len(toks[0]) > 4 {
			add("u" + toks[0][:4])
		}
	}

	// Initials for three or more tokens (e.g. mit, ucla).
	if len(toks) >= 2 {
		var initials strings.Builder
		for _, tok := range toks {
			initials.WriteByte(tok[0])
		}
		add(initials.String())
	}

	return variants
}

// departmentAbbrevs crossed with subdomain templates during enumeration.
var departmentAbbrevs = []string{
	"cs", "eecs", "ee", "ece", "math", "physics", "chem", "chemistry",
	"bio", "biology", "engineering", "med", "medicine", "law", "business",
	"econ", "psych", "psychology", "stat",
}

// subdomainTemplates take (abbrev, domain).
var subdomainTemplates = []string{
	"%s.%s",
	"%s-dept.%s",
	"www.%s.%s",
}

// subdomainProbePaths are checked on a live subdomain to confirm it
// carries a faculty directory.
var subdomainProbePaths = []string{"/faculty", "/people", "/directory"}

// enumerateSubdomains crosses a fixed department-abbreviation list with
// subdomain naming templates, probing each candidate.
func (e *Engine) enumerateSubdomains(ctx context.Context, s *session) (*UniversityPattern, error) {
	if s.baseURL == "" {
		return nil, nil
	}
	domain, err := registrableDomain(s.baseURL)
	if err != nil {
		return nil, nil
	}

	found := make(map[string]string)
	var facultyPaths []string
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probeConcurrency)

	for _, abbrev := range departmentAbbrevs {
		for _, tmpl := range subdomainTemplates {
			candidate := fmt.Sprintf("https://"+tmpl, abbrev, domain)
			g.Go(func() error {
				ok, finalURL := e.client.Head(gctx, candidate)
				if !ok {
					return nil
				}
				base := strings.TrimRight(finalURL, "/")

				// Confirm a faculty path before trusting the subdomain.
				for _, p := range subdomainProbePaths {
					if pathOK, _ := e.client.Head(gctx, base+p); pathOK {
						mu.Lock()
						found[abbrev] = base
						facultyPaths = unionStrings(facultyPaths, []string{strings.Trim(p, "/")})
						mu.Unlock()
						return nil
					}
				}

				mu.Lock()
				if _, exists := found[abbrev]; !exists {
					found[abbrev] = base
				}
				mu.Unlock()
				return nil
			})
		}
	}
	g.Wait()

	if len(found) == 0 {
		return nil, nil
	}
	return &UniversityPattern{
		UniversityName:       s.name,
		BaseURL:              s.baseURL,
		FacultyPaths:         facultyPaths,
		DepartmentSubdomains: found,
		Confidence:           0.7,
	}, nil
}

// scanNavLinks fetches the homepage and matches navigation anchor text
// against faculty keywords.
func (e *Engine) scanNavLinks(ctx context.Context, s *session) (*UniversityPattern, error) {
	if s.baseURL == "" {
		return nil, nil
	}
	doc, err := e.client.GetDocument(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch homepage: %w", err)
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, nil
	}

	pattern := &UniversityPattern{UniversityName: s.name, BaseURL: s.baseURL}
	var bestScore float64

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if !ContainsFacultyKeyword(text) {
			return
		}
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}

		path := strings.Trim(resolved.Path, "/")
		if path == "" {
			return
		}
		pattern.FacultyPaths = unionStrings(pattern.FacultyPaths, []string{path})

		if sc := Score(Candidate{URL: resolved.String(), Text: text, Reachable: true}, Query{UniversityName: s.name}); sc > bestScore {
			bestScore = sc
		}
	})

	if len(pattern.FacultyPaths) == 0 {
		return nil, nil
	}
	pattern.Confidence = bestScore
	return pattern, nil
}

// commonFacultyPaths probed as the last resort before the fallback pattern.
var commonFacultyPaths = []string{
	"faculty",
	"people",
	"directory",
	"staff",
	"about/faculty",
	"academics/faculty",
	"faculty-staff",
	"faculty-directory",
	"our-people",
}

// probeCommonPaths issues HEAD probes for a fixed faculty path list.
func (e *Engine) probeCommonPaths(ctx context.Context, s *session) (*UniversityPattern, error) {
	if s.baseURL == "" {
		return nil, nil
	}
	base := strings.TrimRight(s.baseURL, "/")

	var live []string
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probeConcurrency)
	for _, p := range commonFacultyPaths {
		g.Go(func() error {
			if ok, _ := e.client.Head(gctx, base+"/"+p); ok {
				mu.Lock()
				live = append(live, p)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if len(live) == 0 {
		return nil, nil
	}
	return &UniversityPattern{
		UniversityName: s.name,
		BaseURL:        s.baseURL,
		FacultyPaths:   live,
		Confidence: Score(Candidate{
			URL:       base + "/" + live[0],
			Reachable: true,
		}, Query{UniversityName: s.name}),
	}, nil
}

// fromAssistant consults the optional discovery assistant. Its findings are
// the lowest-trust signal, so confidence is capped.
func (e *Engine) fromAssistant(ctx context.Context, s *session) (*UniversityPattern, error) {
	if e.Assistant == nil {
		return nil, nil
	}
	finding, err := e.Assistant.DiscoverFacultyDirectories(ctx, s.name, s.baseURL, "")
	if err != nil {
		return nil, fmt.Errorf("assistant discovery: %w", err)
	}
	if finding == nil || (len(finding.FacultyPaths) == 0 && len(finding.DepartmentPaths) == 0) {
		return nil, nil
	}

	confidence := finding.Confidence
	if confidence > assistantTrustCap {
		confidence = assistantTrustCap
	}
	return &UniversityPattern{
		UniversityName:       s.name,
		BaseURL:              s.baseURL,
		FacultyPaths:         finding.FacultyPaths,
		DepartmentSubdomains: copyMap(finding.DepartmentPaths),
		Confidence:           confidence,
	}, nil
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func registrableDomain(rawURL string) (string, error) {
	host := hostOf(rawURL)
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Bare hosts (e.g. test servers) have no public suffix.
		return host, nil
	}
	return domain, nil
}
