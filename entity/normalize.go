package entity

import (
	"regexp"
	"strings"
)

// Honorifics and suffixes stripped during name normalization.
var nameNoise = map[string]bool{
	"dr":        true,
	"dr.":       true,
	"prof":      true,
	"prof.":     true,
	"professor": true,
	"mr":        true,
	"mr.":       true,
	"ms":        true,
	"ms.":       true,
	"mrs":       true,
	"mrs.":      true,
	"phd":       true,
	"ph.d":      true,
	"ph.d.":     true,
	"md":        true,
	"m.d.":      true,
	"jr":        true,
	"jr.":       true,
	"sr":        true,
	"sr.":       true,
	"ii":        true,
	"iii":       true,
	"iv":        true,
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	namePunctRe  = regexp.MustCompile(`[,;:()\[\]"']`)
)

// NormalizeName converts a display name into the dedup key used for entity
// resolution: lower-cased, honorifics and degree suffixes stripped,
// punctuation removed, whitespace collapsed.
//
// NormalizeName("Dr. Jane A. Smith") == NormalizeName("jane a smith").
func NormalizeName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	lowered = namePunctRe.ReplaceAllString(lowered, " ")

	var kept []string
	for _, tok := range strings.Fields(lowered) {
		if nameNoise[tok] {
			continue
		}
		// "a." → "a": trailing periods carry no identity.
		tok = strings.TrimSuffix(tok, ".")
		if tok == "" || nameNoise[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	return whitespaceRe.ReplaceAllString(strings.Join(kept, " "), " ")
}

// Institution words ignored when normalizing university and department names.
var institutionNoise = map[string]bool{
	"the": true,
	"of":  true,
	"at":  true,
	"and": true,
	"&":   true,
}

// NormalizeInstitution produces a dedup key for university and department
// names. Filler words are dropped so "The University of Michigan" and
// "University Michigan" resolve to the same key.
func NormalizeInstitution(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	lowered = namePunctRe.ReplaceAllString(lowered, " ")

	var kept []string
	for _, tok := range strings.Fields(lowered) {
		if institutionNoise[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// InstitutionsMatch reports whether two institution names loosely refer to
// the same institution: either normalized form contains the other. This is
// the deliberately loose match used by the dedup rule.
func InstitutionsMatch(a, b string) bool {
	na, nb := NormalizeInstitution(a), NormalizeInstitution(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
