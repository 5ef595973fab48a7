// Package graph publishes resolved entities and scrape outcomes to the
// knowledge graph over NATS.
package graph

import (
	"fmt"
	"time"

	"github.com/c360studio/facultyatlas/store"
)

// Triple is one graph assertion about an entity.
type Triple struct {
	Subject    string    `json:"subject"`
	Predicate  string    `json:"predicate"`
	Object     any       `json:"object"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// EntityIngestMessage is the wire format for graph ingestion.
type EntityIngestMessage struct {
	ID        string    `json:"id"`
	Triples   []Triple  `json:"triples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Predicates asserted for faculty entities.
const (
	PredicateName           = "faculty.name"
	PredicateTitle          = "faculty.title"
	PredicateEmail          = "faculty.email"
	PredicateUniversity     = "faculty.university"
	PredicateDepartment     = "faculty.department"
	PredicateMemberOfLab    = "faculty.member_of_lab"
	PredicateLeadsLab       = "faculty.leads_lab"
	PredicateEnrichmentKind = "faculty.enrichment"
)

const publishSource = "facultyatlas.scrape"

// EntityID generates the graph-wide entity ID for a store entity ID.
// Format: facultyatlas.entity.<store id>.
func EntityID(storeID string) string {
	return fmt.Sprintf("facultyatlas.entity.%s", storeID)
}

// facultyMessage flattens an aggregated view into an ingest message.
func facultyMessage(view *store.FacultyView) EntityIngestMessage {
	now := time.Now()
	subject := EntityID(view.Faculty.ID)

	add := func(triples []Triple, predicate string, object any, confidence float64) []Triple {
		return append(triples, Triple{
			Subject:    subject,
			Predicate:  predicate,
			Object:     object,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: confidence,
		})
	}

	triples := add(nil, PredicateName, view.Faculty.Name, view.Faculty.Confidence)
	if view.Faculty.Title != "" {
		triples = add(triples, PredicateTitle, view.Faculty.Title, view.Faculty.Confidence)
	}
	if view.Faculty.Email != "" {
		triples = add(triples, PredicateEmail, view.Faculty.Email, view.Faculty.Confidence)
	}
	if view.University != nil {
		triples = add(triples, PredicateUniversity, view.University.Name, 1.0)
	}
	for _, dav := range view.Departments {
		if dav.Department != nil {
			triples = add(triples, PredicateDepartment, dav.Department.Name, dav.Association.ConfidenceScore)
		}
	}
	for _, lav := range view.Labs {
		if lav.Lab == nil {
			continue
		}
		predicate := PredicateMemberOfLab
		if lav.Association.Role == "principal_investigator" {
			predicate = PredicateLeadsLab
		}
		triples = add(triples, predicate, lav.Lab.Name, lav.Association.ConfidenceScore)
	}
	for enrType, pool := range view.Enrichments {
		triples = add(triples, PredicateEnrichmentKind, map[string]any{
			"type":  enrType,
			"count": len(pool),
		}, 1.0)
	}

	return EntityIngestMessage{ID: subject, Triples: triples, UpdatedAt: now}
}
