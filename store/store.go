// Package store implements entity resolution over raw faculty records:
// deduplicated ID-addressed entities, fault-tolerant associations,
// independent enrichment rows, and aggregated single-entity views.
package store

import (
	"context"
	"time"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/extract"
)

// IngestReport summarizes one ingestion batch. Conflicts and issues are
// informational: they never block ingestion.
type IngestReport struct {
	Processed           int      `json:"processed"`
	Created             int      `json:"created"`
	Merged              int      `json:"merged"`
	LabsCreated         int      `json:"labs_created"`
	AssociationsCreated int      `json:"associations_created"`
	EnrichmentsCreated  int      `json:"enrichments_created"`
	Conflicts           int      `json:"conflicts"`
	Issues              []string `json:"issues"`
}

// LabAssociationView pairs an association with its live lab entity.
type LabAssociationView struct {
	Association entity.FacultyLabAssociation `json:"association"`
	Lab         *entity.Lab                  `json:"lab,omitempty"`
}

// DepartmentAssociationView pairs an association with its live department.
type DepartmentAssociationView struct {
	Association entity.FacultyDepartmentAssociation `json:"association"`
	Department  *entity.Department                  `json:"department,omitempty"`
}

// FacultyMemberView pairs a lab association with its faculty entity.
type FacultyMemberView struct {
	Association entity.FacultyLabAssociation `json:"association"`
	Faculty     *entity.Faculty              `json:"faculty,omitempty"`
}

// ViewMetrics are computed per aggregated view at read time.
type ViewMetrics struct {
	EnrichmentCount   int     `json:"enrichment_count"`
	LabCount          int     `json:"lab_count"`
	DepartmentCount   int     `json:"department_count"`
	FreshnessScore    float64 `json:"freshness_score"`
	CompletenessScore float64 `json:"completeness_score"`
}

// FacultyView is the denormalized "one entity, everything linked" snapshot.
type FacultyView struct {
	Faculty     entity.Faculty                                 `json:"faculty"`
	University  *entity.University                             `json:"university,omitempty"`
	Department  *entity.Department                             `json:"department,omitempty"`
	Departments []DepartmentAssociationView                    `json:"departments"`
	Labs        []LabAssociationView                           `json:"labs"`
	Enrichments map[entity.EnrichmentType][]*entity.Enrichment `json:"enrichments"`
	Metrics     ViewMetrics                                    `json:"metrics"`
}

// LabView mirrors FacultyView for labs.
type LabView struct {
	Lab         entity.Lab          `json:"lab"`
	Members     []FacultyMemberView `json:"members"`
	MemberCount int                 `json:"member_count"`
	PICount     int                 `json:"pi_count"`
}

// RelationshipMap is the global graph summary.
type RelationshipMap struct {
	FacultyCount      int       `json:"faculty_count"`
	LabCount          int       `json:"lab_count"`
	UniversityCount   int       `json:"university_count"`
	DepartmentCount   int       `json:"department_count"`
	AssociationCount  int       `json:"association_count"`
	OrphanedFaculty   []string  `json:"orphaned_faculty"`
	OrphanedLabs      []string  `json:"orphaned_labs"`
	AverageConfidence float64   `json:"average_confidence"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Store is the entity-resolution contract. The bundled implementation keeps
// entities in process memory; a datastore-backed implementation must honor
// the same semantics.
type Store interface {
	Ingest(ctx context.Context, records []extract.RawFaculty, scrapeID string) (*IngestReport, error)

	GetFaculty(id string) (*entity.Faculty, bool)
	GetLab(id string) (*entity.Lab, bool)
	ListFaculty() []*entity.Faculty
	ListLabs() []*entity.Lab

	FacultyAggregatedView(id string) (*FacultyView, bool)
	LabAggregatedView(id string) (*LabView, bool)
	GenerateRelationshipMap() *RelationshipMap

	RemoveAssociation(id string) error
	DisputeAssociation(id string, reason string) error
	ResolveDispute(id string, to entity.AssociationStatus) error

	AddEnrichment(facultyID string, enr *entity.Enrichment) (string, error)
	SetEnrichmentStatus(id string, to entity.EnrichmentStatus) error

	MergeFaculty(primaryID, duplicateID string) error

	Close() error
}
