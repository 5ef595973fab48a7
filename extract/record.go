// Package extract pulls raw faculty records out of rendered department
// directory pages. Records are ephemeral: they carry no identity and are
// consumed once by the entity store.
package extract

import "github.com/c360studio/facultyatlas/entity"

// Method tags how a record was obtained.
type Method string

const (
	MethodSelector Method = "selector_cascade"
	MethodGeneric  Method = "generic_fallback"
)

// RawFaculty is one extracted directory entry before entity resolution.
type RawFaculty struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
	University string `json:"university"`
	ProfileURL string `json:"profile_url"`
	SourceURL  string `json:"source_url"`
	Method     Method `json:"extraction_method"`

	// Secondary lab signals picked up from the item text, if any.
	LabName string `json:"lab_name,omitempty"`
	LabURL  string `json:"lab_url,omitempty"`

	// Enrichment payloads attached before ingestion. The store turns these
	// into independent enrichment rows, never entity fields.
	Enrichments []*entity.Enrichment `json:"enrichments,omitempty"`
}
