package entity

import "time"

// EnrichmentType identifies the enrichment pool a row belongs to.
type EnrichmentType string

const (
	EnrichmentLink          EnrichmentType = "link"
	EnrichmentProfile       EnrichmentType = "profile"
	EnrichmentResearch      EnrichmentType = "research"
	EnrichmentGoogleScholar EnrichmentType = "google_scholar"
)

// Enrichment is an independently timestamped enrichment row. Exactly one
// payload field is set, matching Type. Rows live in their own pool and are
// linked to faculty via FacultyEnrichmentAssociation.
type Enrichment struct {
	ID          string           `json:"id"`
	Type        EnrichmentType   `json:"type"`
	Status      EnrichmentStatus `json:"status"`
	ExtractedAt time.Time        `json:"extracted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Link     *LinkEnrichment          `json:"link,omitempty"`
	Profile  *ProfileEnrichment       `json:"profile,omitempty"`
	Research *ResearchEnrichment      `json:"research,omitempty"`
	Scholar  *GoogleScholarEnrichment `json:"google_scholar,omitempty"`
}

// LinkEnrichment records an outbound link discovered for a faculty member.
type LinkEnrichment struct {
	URL        string  `json:"url"`
	Kind       string  `json:"kind,omitempty"` // lab_website, personal_site, scholar_profile
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ProfileEnrichment is readable content extracted from a profile page.
type ProfileEnrichment struct {
	SourceURL string   `json:"source_url"`
	Markdown  string   `json:"markdown,omitempty"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Biography string   `json:"biography,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// ResearchEnrichment captures research areas and keywords.
type ResearchEnrichment struct {
	Interests []string `json:"interests,omitempty"`
	Areas     []string `json:"areas,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
}

// GoogleScholarEnrichment captures a scholar profile snapshot.
type GoogleScholarEnrichment struct {
	ProfileURL string   `json:"profile_url"`
	Citations  int      `json:"citations,omitempty"`
	HIndex     int      `json:"h_index,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// staleAfter is the age at which a fresh enrichment decays to stale.
const staleAfter = 30 * 24 * time.Hour

// IsStale reports whether the enrichment has aged past the freshness window.
func (e *Enrichment) IsStale(now time.Time) bool {
	return now.Sub(e.ExtractedAt) > staleAfter
}
