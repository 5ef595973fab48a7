package entity

import "time"

// FacultyLabAssociation links a faculty member to a lab. Deleting it never
// deletes either endpoint.
type FacultyLabAssociation struct {
	ID               string            `json:"id"`
	FacultyID        string            `json:"faculty_id"`
	LabID            string            `json:"lab_id"`
	Role             string            `json:"role,omitempty"` // principal_investigator, member
	RelationshipType string            `json:"relationship_type,omitempty"`
	ConfidenceScore  float64           `json:"confidence_score"`
	ConfidenceLevel  ConfidenceLevel   `json:"confidence_level"`
	EvidenceSources  []string          `json:"evidence_sources,omitempty"`
	Status           AssociationStatus `json:"status"`
	StartDate        *time.Time        `json:"start_date,omitempty"`
	EndDate          *time.Time        `json:"end_date,omitempty"`
	IsCurrent        bool              `json:"is_current"`
	ConflictsWith    []string          `json:"conflicts_with,omitempty"`
	Supersedes       string            `json:"supersedes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// FacultyDepartmentAssociation links a faculty member to a department
// appointment.
type FacultyDepartmentAssociation struct {
	ID              string            `json:"id"`
	FacultyID       string            `json:"faculty_id"`
	DepartmentID    string            `json:"department_id"`
	AppointmentType string            `json:"appointment_type,omitempty"` // primary, joint, courtesy
	Title           string            `json:"title,omitempty"`
	Percentage      float64           `json:"percentage,omitempty"`
	ConfidenceScore float64           `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel   `json:"confidence_level"`
	EvidenceSources []string          `json:"evidence_sources,omitempty"`
	Status          AssociationStatus `json:"status"`
	IsCurrent       bool              `json:"is_current"`
	ConflictsWith   []string          `json:"conflicts_with,omitempty"`
	Supersedes      string            `json:"supersedes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FacultyEnrichmentAssociation links a faculty member to an independent
// enrichment row. Enrichment payloads are never folded into the entity.
type FacultyEnrichmentAssociation struct {
	ID                string            `json:"id"`
	FacultyID         string            `json:"faculty_id"`
	EnrichmentID      string            `json:"enrichment_id"`
	EnrichmentType    EnrichmentType    `json:"enrichment_type"`
	ConfidenceScore   float64           `json:"confidence_score"`
	QualityScore      float64           `json:"quality_score,omitempty"`
	CompletenessScore float64           `json:"completeness_score,omitempty"`
	Status            AssociationStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// LabDepartmentAssociation links a lab to its hosting department.
type LabDepartmentAssociation struct {
	ID              string            `json:"id"`
	LabID           string            `json:"lab_id"`
	DepartmentID    string            `json:"department_id"`
	ConfidenceScore float64           `json:"confidence_score"`
	ConfidenceLevel ConfidenceLevel   `json:"confidence_level"`
	EvidenceSources []string          `json:"evidence_sources,omitempty"`
	Status          AssociationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Association roles inferred during ingestion.
const (
	RolePrincipalInvestigator = "principal_investigator"
	RoleMember                = "member"
)
