package discovery

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"
)

// maxChildSitemaps bounds recursion into sitemap index children.
const maxChildSitemaps = 10

// sitemapVariants are tried against the base URL in order.
var sitemapVariants = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemap/sitemap.xml",
}

// sitemapIndex is a sitemap index document pointing at child sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// urlSet is a flat sitemap document.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// discoverSitemap fetches the site's sitemap, recursing into index children,
// and collects faculty-keyword URLs. URLs hosted off the base host become
// department subdomain candidates.
func (e *Engine) discoverSitemap(ctx context.Context, s *session) (*UniversityPattern, error) {
	if s.baseURL == "" {
		return nil, nil
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, nil
	}

	var locs []string
	for _, variant := range sitemapVariants {
		page, err := e.client.Get(ctx, strings.TrimRight(s.baseURL, "/")+variant)
		if err != nil {
			continue
		}
		locs = e.collectSitemapURLs(ctx, page.Body, 0)
		if len(locs) > 0 {
			break
		}
	}
	if len(locs) == 0 {
		return nil, nil
	}

	pattern := &UniversityPattern{
		UniversityName: s.name,
		BaseURL:        s.baseURL,
	}

	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil {
			continue
		}
		if !ContainsFacultyKeyword(u.Path) {
			continue
		}

		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if host != baseHost {
			// A faculty URL on a different host is a department subdomain
			// candidate.
			label := strings.TrimSuffix(host, "."+baseHost)
			if label == host {
				if i := strings.IndexByte(host, '.'); i > 0 {
					label = host[:i]
				}
			}
			if pattern.DepartmentSubdomains == nil {
				pattern.DepartmentSubdomains = make(map[string]string)
			}
			pattern.DepartmentSubdomains[label] = u.Scheme + "://" + u.Host
		}

		path := strings.Trim(u.Path, "/")
		if path != "" {
			pattern.FacultyPaths = unionStrings(pattern.FacultyPaths, []string{path})
		}
	}

	if len(pattern.FacultyPaths) == 0 && len(pattern.DepartmentSubdomains) == 0 {
		return nil, nil
	}

	pattern.Confidence = Score(Candidate{
		URL:       s.baseURL,
		Reachable: true,
		Text:      strings.Join(pattern.FacultyPaths, " "),
	}, Query{UniversityName: s.name})
	// Sitemap evidence is strong: paths come from the site itself.
	pattern.Confidence += 0.15
	return pattern, nil
}

// collectSitemapURLs parses a sitemap document, recursing one level into
// index children, and returns all page URLs found.
func (e *Engine) collectSitemapURLs(ctx context.Context, body []byte, depth int) []string {
	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		if depth > 0 {
			// Index-of-indexes: stop here.
			return nil
		}
		var urls []string
		children := index.Sitemaps
		if len(children) > maxChildSitemaps {
			children = children[:maxChildSitemaps]
		}
		for _, child := range children {
			if ctx.Err() != nil {
				break
			}
			page, err := e.client.Get(ctx, strings.TrimSpace(child.Loc))
			if err != nil {
				continue
			}
			urls = append(urls, e.collectSitemapURLs(ctx, page.Body, depth+1)...)
		}
		return urls
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil
	}
	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		urls = append(urls, strings.TrimSpace(u.Loc))
	}
	return urls
}
