// Package discovery guesses a university's URL structure without per-site
// configuration. A cascade of heuristic strategies produces a
// UniversityPattern with a confidence score; successful patterns are cached.
package discovery

import (
	"strings"
	"time"
)

// UniversityPattern describes the discovered URL structure of one
// university: candidate faculty-directory paths, department subdomains,
// and a confidence score.
type UniversityPattern struct {
	UniversityName       string            `json:"university_name"`
	BaseURL              string            `json:"base_url"`
	FacultyPaths         []string          `json:"faculty_paths"`
	DepartmentPatterns   []string          `json:"department_patterns,omitempty"`
	PaginationPatterns   []string          `json:"pagination_patterns,omitempty"`
	Confidence           float64           `json:"confidence"`
	DepartmentSubdomains map[string]string `json:"department_subdomains,omitempty"`
	UpdatedAt            time.Time         `json:"updated_at"`
	SuccessRate          float64           `json:"success_rate"`
}

// Clamp forces the confidence into [0,1].
func (p *UniversityPattern) Clamp() {
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
}

// Merge folds another pattern's findings into this one: paths and
// subdomains are unioned, confidence keeps the maximum.
func (p *UniversityPattern) Merge(other *UniversityPattern) {
	if other == nil {
		return
	}
	if p.BaseURL == "" {
		p.BaseURL = other.BaseURL
	}
	p.FacultyPaths = unionStrings(p.FacultyPaths, other.FacultyPaths)
	p.DepartmentPatterns = unionStrings(p.DepartmentPatterns, other.DepartmentPatterns)
	p.PaginationPatterns = unionStrings(p.PaginationPatterns, other.PaginationPatterns)
	if len(other.DepartmentSubdomains) > 0 {
		if p.DepartmentSubdomains == nil {
			p.DepartmentSubdomains = make(map[string]string)
		}
		for k, v := range other.DepartmentSubdomains {
			if _, ok := p.DepartmentSubdomains[k]; !ok {
				p.DepartmentSubdomains[k] = v
			}
		}
	}
	if other.Confidence > p.Confidence {
		p.Confidence = other.Confidence
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := a
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FallbackConfidence is assigned when every strategy comes up empty.
const FallbackConfidence = 0.3

// FallbackPattern returns the low-confidence generic pattern used when no
// strategy finds anything. Discovery always returns a pattern, never nil.
func FallbackPattern(universityName, baseURL string) *UniversityPattern {
	return &UniversityPattern{
		UniversityName: universityName,
		BaseURL:        baseURL,
		FacultyPaths:   []string{"faculty", "people", "directory"},
		Confidence:     FallbackConfidence,
		UpdatedAt:      time.Now(),
	}
}

// facultyKeywords flags URLs and anchor text that likely lead to a faculty
// directory.
var facultyKeywords = []string{
	"faculty",
	"people",
	"staff",
	"directory",
	"professors",
	"our-people",
	"personnel",
	"academic-staff",
}

// ContainsFacultyKeyword reports whether the string mentions any faculty
// directory keyword.
func ContainsFacultyKeyword(s string) bool {
	lowered := strings.ToLower(s)
	for _, kw := range facultyKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
