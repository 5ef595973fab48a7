// Package entity defines the resolved entity graph: faculty, labs,
// universities, departments, the fault-tolerant associations between them,
// and the enrichment pools attached to faculty.
//
// Entities are identity-bearing and merged, never hard-deleted. Associations
// may be superseded or disputed, but removing an association never removes
// either endpoint entity.
package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType distinguishes the entity kinds stored in the graph.
type EntityType string

const (
	TypeFaculty    EntityType = "faculty"
	TypeLab        EntityType = "lab"
	TypeUniversity EntityType = "university"
	TypeDepartment EntityType = "department"
)

// NewID generates a unique entity ID for the given type.
// Format: "<type>:<uuid>".
func NewID(t EntityType) string {
	return fmt.Sprintf("%s:%s", t, uuid.New().String())
}

// Faculty is a deduplicated faculty member entity.
type Faculty struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalized_name"`
	Title          string       `json:"title,omitempty"`
	UniversityID   string       `json:"university_id,omitempty"`
	DepartmentID   string       `json:"department_id,omitempty"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Office         string       `json:"office,omitempty"`
	ProfileURL     string       `json:"profile_url,omitempty"`
	PersonalSite   string       `json:"personal_site,omitempty"`
	Confidence     float64      `json:"confidence"`
	Status         EntityStatus `json:"status"`
	DuplicateOf    string       `json:"duplicate_of,omitempty"`
	MergedIDs      []string     `json:"merged_ids,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	ScrapeID       string       `json:"scrape_id,omitempty"`
}

// Lab is a research lab or group entity. It mirrors Faculty's dedup shape.
type Lab struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalized_name"`
	Type           string       `json:"type,omitempty"` // lab, group, center, institute
	UniversityID   string       `json:"university_id,omitempty"`
	DepartmentID   string       `json:"department_id,omitempty"`
	Website        string       `json:"website,omitempty"`
	Description    string       `json:"description,omitempty"`
	Location       string       `json:"location,omitempty"`
	Confidence     float64      `json:"confidence"`
	Status         EntityStatus `json:"status"`
	DuplicateOf    string       `json:"duplicate_of,omitempty"`
	MergedIDs      []string     `json:"merged_ids,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	ScrapeID       string       `json:"scrape_id,omitempty"`
}

// University is a simple reference entity created idempotently by
// normalized institution name.
type University struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Domain         string    `json:"domain,omitempty"`
	Website        string    `json:"website,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Department is a simple reference entity scoped to a university.
type Department struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	UniversityID   string    `json:"university_id"`
	Website        string    `json:"website,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
