package discovery

import (
	"net/url"
	"strings"
)

// Scoring bonuses. Kept explicit so thresholds are pinned rather than
// re-derived from call sites.
const (
	scoreBase        = 0.30
	bonusEduDomain   = 0.20
	bonusHTTPS       = 0.05
	bonusStatusOK    = 0.15
	bonusKeywordPath = 0.15
	bonusNameToken   = 0.05
	nameTokenCap     = 0.15
)

// Candidate is a URL being scored against a university query.
type Candidate struct {
	// URL is the candidate location.
	URL string
	// Text is surrounding anchor text, if any.
	Text string
	// Reachable marks candidates that answered a liveness probe.
	Reachable bool
}

// Query is the university the candidate is scored for.
type Query struct {
	UniversityName string
}

// Score estimates how likely a candidate URL belongs to the queried
// university's faculty structure. The result is a heuristic in [0,1],
// not a calibrated probability.
func Score(c Candidate, q Query) float64 {
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return 0
	}

	score := scoreBase

	host := strings.ToLower(parsed.Hostname())
	if strings.HasSuffix(host, ".edu") {
		score += bonusEduDomain
	}
	if parsed.Scheme == "https" {
		score += bonusHTTPS
	}
	if c.Reachable {
		score += bonusStatusOK
	}
	if ContainsFacultyKeyword(parsed.Path) || ContainsFacultyKeyword(c.Text) {
		score += bonusKeywordPath
	}

	// Each university-name token found in the host raises confidence a
	// little, capped so long names don't dominate.
	var nameBonus float64
	for _, tok := range nameTokens(q.UniversityName) {
		if strings.Contains(host, tok) {
			nameBonus += bonusNameToken
		}
	}
	if nameBonus > nameTokenCap {
		nameBonus = nameTokenCap
	}
	score += nameBonus

	if score > 1 {
		score = 1
	}
	return score
}

// institutionFiller is skipped when tokenizing university names for
// host matching.
var institutionFiller = map[string]bool{
	"the":        true,
	"of":         true,
	"at":         true,
	"and":        true,
	"university": true,
	"college":    true,
	"institute":  true,
	"school":     true,
}

// nameTokens returns the distinguishing tokens of a university name.
func nameTokens(name string) []string {
	var toks []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,&-")
		if len(tok) < 3 || institutionFiller[tok] {
			continue
		}
		toks = append(toks, tok)
	}
	return toks
}
