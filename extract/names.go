package extract

import (
	"regexp"
	"strings"
)

// Words that never appear in a personal name; anchor text containing one is
// boilerplate, not a person.
var genericNameWords = map[string]bool{
	"faculty": true, "directory": true, "staff": true, "people": true,
	"department": true, "profile": true, "view": true, "more": true,
	"read": true, "email": true, "home": true, "contact": true,
	"website": true, "page": true, "bio": true, "all": true,
	"list": true, "search": true, "next": true, "previous": true,
}

var titleKeywords = []string{
	"professor", "lecturer", "instructor", "dean", "director", "chair",
	"fellow", "scientist", "researcher", "emeritus", "adjunct",
	"postdoctoral", "scholar",
}

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

var nameTokenRe = regexp.MustCompile(`^[A-Z][a-zA-Z'\-]*\.?$|^[A-Z]\.$`)

// IsPersonalName reports whether text parses as a 2-6 token personal name:
// every token capitalized or an initial, none of them a generic directory
// word.
func IsPersonalName(text string) bool {
	text = strings.TrimSpace(text)
	// strip a trailing credential like ", PhD"
	if i := strings.Index(text, ","); i > 0 {
		text = text[:i]
	}
	tokens := strings.Fields(text)
	if len(tokens) < 2 || len(tokens) > 6 {
		return false
	}
	for _, tok := range tokens {
		if genericNameWords[strings.ToLower(strings.Trim(tok, ".,"))] {
			return false
		}
		if !nameTokenRe.MatchString(tok) {
			return false
		}
	}
	return true
}

// ExtractEmail prefers a mailto target and falls back to regex-scanning the
// text.
func ExtractEmail(mailto, text string) string {
	if mailto != "" {
		addr := strings.TrimPrefix(mailto, "mailto:")
		if i := strings.Index(addr, "?"); i > 0 {
			addr = addr[:i]
		}
		if emailRe.MatchString(addr) {
			return strings.ToLower(addr)
		}
	}
	if m := emailRe.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// ExtractTitle returns the first text segment that carries a title keyword
// and is not the name itself.
func ExtractTitle(text, name string) string {
	for _, line := range splitSegments(text) {
		if line == name {
			continue
		}
		line = strings.TrimLeft(strings.TrimPrefix(line, name), " ,-")
		lower := strings.ToLower(line)
		for _, kw := range titleKeywords {
			if strings.Contains(lower, kw) {
				return line
			}
		}
	}
	return ""
}

func splitSegments(text string) []string {
	var out []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '|' || r == ';'
	}) {
		if seg := strings.Join(strings.Fields(raw), " "); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
