package store

import (
	"sort"
	"time"

	"github.com/c360studio/facultyatlas/entity"
)

// freshnessWindow is the linear decay horizon for enrichment freshness.
const freshnessWindow = 30 * 24 * time.Hour

// completenessTarget is the enrichment count at which completeness hits 1.0.
const completenessTarget = 5

// FacultyAggregatedView assembles the full snapshot for one faculty ID:
// core entity, primary university/department, every association paired with
// its live target, enrichments grouped by type, and computed metrics.
// Returns false for an unknown ID.
func (s *MemoryStore) FacultyAggregatedView(id string) (*FacultyView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.faculty[id]
	if !ok {
		return nil, false
	}
	view := &FacultyView{
		Faculty:     *f,
		Enrichments: make(map[entity.EnrichmentType][]*entity.Enrichment),
	}
	if u, ok := s.universities[f.UniversityID]; ok {
		cp := *u
		view.University = &cp
	}
	if d, ok := s.departments[f.DepartmentID]; ok {
		cp := *d
		view.Department = &cp
	}

	for _, a := range s.deptAssocs {
		if a.FacultyID != id {
			continue
		}
		dav := DepartmentAssociationView{Association: *a}
		if d, ok := s.departments[a.DepartmentID]; ok {
			cp := *d
			dav.Department = &cp
		}
		view.Departments = append(view.Departments, dav)
	}
	for _, a := range s.labAssocs {
		if a.FacultyID != id {
			continue
		}
		lav := LabAssociationView{Association: *a}
		if lab, ok := s.labs[a.LabID]; ok {
			cp := *lab
			lav.Lab = &cp
		}
		view.Labs = append(view.Labs, lav)
	}
	sort.Slice(view.Departments, func(i, j int) bool {
		return view.Departments[i].Association.ID < view.Departments[j].Association.ID
	})
	sort.Slice(view.Labs, func(i, j int) bool {
		return view.Labs[i].Association.ID < view.Labs[j].Association.ID
	})

	var enrichments []*entity.Enrichment
	for _, a := range s.enrichAssocs {
		if a.FacultyID != id {
			continue
		}
		if enr, ok := s.enrichments[a.EnrichmentID]; ok {
			cp := *enr
			view.Enrichments[cp.Type] = append(view.Enrichments[cp.Type], &cp)
			enrichments = append(enrichments, &cp)
		}
	}

	view.Metrics = ViewMetrics{
		EnrichmentCount:   len(enrichments),
		LabCount:          len(view.Labs),
		DepartmentCount:   len(view.Departments),
		FreshnessScore:    freshness(enrichments, s.nowFunc()),
		CompletenessScore: completeness(len(enrichments)),
	}
	return view, true
}

// LabAggregatedView mirrors the faculty view for a lab, including member and
// principal-investigator counts.
func (s *MemoryStore) LabAggregatedView(id string) (*LabView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lab, ok := s.labs[id]
	if !ok {
		return nil, false
	}
	view := &LabView{Lab: *lab}
	for _, a := range s.labAssocs {
		if a.LabID != id {
			continue
		}
		fmv := FacultyMemberView{Association: *a}
		if f, ok := s.faculty[a.FacultyID]; ok {
			cp := *f
			fmv.Faculty = &cp
		}
		view.Members = append(view.Members, fmv)
		view.MemberCount++
		if a.Role == entity.RolePrincipalInvestigator {
			view.PICount++
		}
	}
	sort.Slice(view.Members, func(i, j int) bool {
		return view.Members[i].Association.ID < view.Members[j].Association.ID
	})
	return view, true
}

// GenerateRelationshipMap reports global counts, orphaned entities, and the
// average association confidence.
func (s *MemoryStore) GenerateRelationshipMap() *RelationshipMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := &RelationshipMap{
		FacultyCount:     len(s.faculty),
		LabCount:         len(s.labs),
		UniversityCount:  len(s.universities),
		DepartmentCount:  len(s.departments),
		AssociationCount: len(s.labAssocs) + len(s.deptAssocs) + len(s.enrichAssocs),
		GeneratedAt:      s.nowFunc(),
	}

	linkedFaculty := make(map[string]bool)
	linkedLabs := make(map[string]bool)
	var confidenceSum float64
	var confidenceN int
	for _, a := range s.labAssocs {
		linkedFaculty[a.FacultyID] = true
		linkedLabs[a.LabID] = true
		confidenceSum += a.ConfidenceScore
		confidenceN++
	}
	for _, a := range s.deptAssocs {
		linkedFaculty[a.FacultyID] = true
		confidenceSum += a.ConfidenceScore
		confidenceN++
	}
	for _, a := range s.enrichAssocs {
		linkedFaculty[a.FacultyID] = true
	}

	for id := range s.faculty {
		if !linkedFaculty[id] {
			m.OrphanedFaculty = append(m.OrphanedFaculty, id)
		}
	}
	for id := range s.labs {
		if !linkedLabs[id] {
			m.OrphanedLabs = append(m.OrphanedLabs, id)
		}
	}
	sort.Strings(m.OrphanedFaculty)
	sort.Strings(m.OrphanedLabs)
	if confidenceN > 0 {
		m.AverageConfidence = confidenceSum / float64(confidenceN)
	}
	return m
}

// freshness is the mean linear decay of enrichment ages over the 30-day
// window: a just-extracted row scores 1, a 30-day-old row 0. An empty pool
// scores 0.
func freshness(enrichments []*entity.Enrichment, now time.Time) float64 {
	if len(enrichments) == 0 {
		return 0
	}
	var sum float64
	for _, enr := range enrichments {
		age := now.Sub(enr.ExtractedAt)
		if age < 0 {
			age = 0
		}
		score := 1 - float64(age)/float64(freshnessWindow)
		if score < 0 {
			score = 0
		}
		sum += score
	}
	return sum / float64(len(enrichments))
}

// completeness is min(1, n/completenessTarget).
func completeness(n int) float64 {
	score := float64(n) / float64(completenessTarget)
	if score > 1 {
		return 1
	}
	return score
}
