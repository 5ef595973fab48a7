package entity

// EntityStatus is the lifecycle status of a faculty or lab entity.
type EntityStatus string

const (
	EntityActive   EntityStatus = "active"
	EntityInactive EntityStatus = "inactive"
	EntityPending  EntityStatus = "pending"
	EntityMerged   EntityStatus = "merged"
)

// AssociationStatus is the verification status of an association.
type AssociationStatus string

const (
	AssociationActive              AssociationStatus = "active"
	AssociationInactive            AssociationStatus = "inactive"
	AssociationDisputed            AssociationStatus = "disputed"
	AssociationPendingVerification AssociationStatus = "pending_verification"
	AssociationVerified            AssociationStatus = "verified"
)

// CanTransition reports whether an association may move from its current
// status to the target status. Any status may move to disputed when
// conflicting evidence arrives; leaving disputed is an explicit external
// decision, so disputed may move anywhere.
func (s AssociationStatus) CanTransition(to AssociationStatus) bool {
	if s == to {
		return false
	}
	if to == AssociationDisputed {
		return true
	}
	switch s {
	case AssociationPendingVerification:
		return to == AssociationVerified || to == AssociationInactive || to == AssociationActive
	case AssociationActive:
		return to == AssociationInactive || to == AssociationVerified
	case AssociationVerified:
		return to == AssociationInactive
	case AssociationDisputed:
		return true
	case AssociationInactive:
		return to == AssociationActive
	}
	return false
}

// EnrichmentStatus is the freshness status of an enrichment row.
type EnrichmentStatus string

const (
	EnrichmentFresh      EnrichmentStatus = "fresh"
	EnrichmentStale      EnrichmentStatus = "stale"
	EnrichmentFailed     EnrichmentStatus = "failed"
	EnrichmentProcessing EnrichmentStatus = "processing"
	EnrichmentValidated  EnrichmentStatus = "validated"
)

// CanTransition reports whether an enrichment may move between statuses.
// fresh decays to stale on age, stale returns to fresh via re-extraction,
// any status may fail on extraction error or become validated on manual
// confirmation.
func (s EnrichmentStatus) CanTransition(to EnrichmentStatus) bool {
	if s == to {
		return false
	}
	if to == EnrichmentFailed || to == EnrichmentValidated {
		return true
	}
	switch s {
	case EnrichmentFresh:
		return to == EnrichmentStale || to == EnrichmentProcessing
	case EnrichmentStale:
		return to == EnrichmentProcessing || to == EnrichmentFresh
	case EnrichmentProcessing:
		return to == EnrichmentFresh || to == EnrichmentStale
	case EnrichmentFailed:
		return to == EnrichmentProcessing || to == EnrichmentFresh
	case EnrichmentValidated:
		return to == EnrichmentStale
	}
	return false
}

// ConfidenceLevel buckets a [0,1] confidence score into a coarse label.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelForScore maps a confidence score to its coarse level.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
