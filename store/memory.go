package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/extract"
)

// ErrClosed is returned when an operation reaches a closed store.
var ErrClosed = errors.New("store is closed")

// ErrNotFound is returned for unknown entity or association IDs.
var ErrNotFound = errors.New("not found")

// Record confidence assigned by extraction method.
const (
	selectorRecordConfidence = 0.8
	genericRecordConfidence  = 0.6
	labAssociationConfidence = 0.5
)

// MemoryStore keeps the entity graph in process memory. Ingestion is
// serialized through a single writer goroutine: dedup is a read-then-write
// sequence that is unsafe under concurrent ingestion of the same normalized
// name. Reads take the lock directly and may interleave between batches.
type MemoryStore struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	nowFunc func() time.Time

	faculty      map[string]*entity.Faculty
	labs         map[string]*entity.Lab
	universities map[string]*entity.University
	departments  map[string]*entity.Department

	labAssocs    map[string]*entity.FacultyLabAssociation
	deptAssocs   map[string]*entity.FacultyDepartmentAssociation
	enrichAssocs map[string]*entity.FacultyEnrichmentAssociation
	enrichments  map[string]*entity.Enrichment

	facultyByName    map[string][]string
	labByName        map[string]string
	labBySite        map[string]string
	universityByName map[string]string
	departmentByKey  map[string]string
	deptAssocByKey   map[string]string
	labAssocByKey    map[string]string

	jobs chan ingestJob
	done chan struct{}
	once sync.Once
}

type ingestJob struct {
	ctx      context.Context
	records  []extract.RawFaculty
	scrapeID string
	result   chan *IngestReport
}

// NewMemoryStore builds an empty store and starts its writer goroutine.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MemoryStore{
		logger:  logger.With("component", "store"),
		nowFunc: time.Now,

		faculty:      make(map[string]*entity.Faculty),
		labs:         make(map[string]*entity.Lab),
		universities: make(map[string]*entity.University),
		departments:  make(map[string]*entity.Department),

		labAssocs:    make(map[string]*entity.FacultyLabAssociation),
		deptAssocs:   make(map[string]*entity.FacultyDepartmentAssociation),
		enrichAssocs: make(map[string]*entity.FacultyEnrichmentAssociation),
		enrichments:  make(map[string]*entity.Enrichment),

		facultyByName:    make(map[string][]string),
		labByName:        make(map[string]string),
		labBySite:        make(map[string]string),
		universityByName: make(map[string]string),
		departmentByKey:  make(map[string]string),
		deptAssocByKey:   make(map[string]string),
		labAssocByKey:    make(map[string]string),

		jobs: make(chan ingestJob),
		done: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Close stops the writer goroutine. In-flight batches finish first.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) writeLoop() {
	for {
		select {
		case job := <-s.jobs:
			job.result <- s.applyIngest(job.ctx, job.records, job.scrapeID)
		case <-s.done:
			return
		}
	}
}

// Ingest queues the batch on the writer and waits for its report. A
// cancelled context abandons the wait; records already applied remain valid
// entities.
func (s *MemoryStore) Ingest(ctx context.Context, records []extract.RawFaculty, scrapeID string) (*IngestReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job := ingestJob{ctx: ctx, records: records, scrapeID: scrapeID, result: make(chan *IngestReport, 1)}
	select {
	case s.jobs <- job:
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rep := <-job.result:
		return rep, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MemoryStore) applyIngest(ctx context.Context, records []extract.RawFaculty, scrapeID string) *IngestReport {
	rep := &IngestReport{}
	for i := range records {
		if ctx.Err() != nil {
			rep.Issues = append(rep.Issues, fmt.Sprintf("ingest cancelled after %d of %d records", i, len(records)))
			break
		}
		s.mu.Lock()
		s.applyRecord(&records[i], scrapeID, rep)
		s.mu.Unlock()
	}
	s.logger.Info("ingest batch complete", "scrape_id", scrapeID,
		"processed", rep.Processed, "created", rep.Created, "merged", rep.Merged,
		"conflicts", rep.Conflicts)
	return rep
}

// applyRecord resolves one raw record into the graph. Caller holds the lock.
func (s *MemoryStore) applyRecord(rec *extract.RawFaculty, scrapeID string, rep *IngestReport) {
	rep.Processed++

	normalized := entity.NormalizeName(rec.Name)
	if normalized == "" {
		rep.Issues = append(rep.Issues, fmt.Sprintf("record with empty name skipped (source %s)", rec.SourceURL))
		return
	}

	now := s.nowFunc()
	univID := s.ensureUniversity(rec.University, now)
	deptID := s.ensureDepartment(rec.Department, univID, now)

	fac := s.findMatch(normalized, rec, univID)
	if fac != nil {
		s.mergeRecord(fac, rec, now, rep)
		rep.Merged++
	} else {
		fac = &entity.Faculty{
			ID:             entity.NewID(entity.TypeFaculty),
			Name:           strings.TrimSpace(rec.Name),
			NormalizedName: normalized,
			Title:          rec.Title,
			UniversityID:   univID,
			DepartmentID:   deptID,
			Email:          rec.Email,
			ProfileURL:     rec.ProfileURL,
			Confidence:     recordConfidence(rec),
			Status:         entity.EntityActive,
			CreatedAt:      now,
			UpdatedAt:      now,
			ScrapeID:       scrapeID,
		}
		s.faculty[fac.ID] = fac
		s.facultyByName[normalized] = append(s.facultyByName[normalized], fac.ID)
		rep.Created++
	}

	s.ensureDeptAssoc(fac, deptID, rec, now, rep)
	s.resolveLab(fac, rec, univID, deptID, scrapeID, now, rep)

	for _, enr := range rec.Enrichments {
		if enr == nil {
			continue
		}
		if _, err := s.addEnrichmentLocked(fac.ID, enr, now); err != nil {
			rep.Issues = append(rep.Issues, fmt.Sprintf("enrichment for %s: %v", fac.ID, err))
			continue
		}
		rep.EnrichmentsCreated++
	}
}

// findMatch returns an existing faculty entity sharing the dedup key and
// either the email or a loose university match. Merged tombstones are
// skipped.
func (s *MemoryStore) findMatch(normalized string, rec *extract.RawFaculty, univID string) *entity.Faculty {
	for _, id := range s.facultyByName[normalized] {
		f, ok := s.faculty[id]
		if !ok || f.Status == entity.EntityMerged {
			continue
		}
		if rec.Email != "" && f.Email != "" && strings.EqualFold(rec.Email, f.Email) {
			return f
		}
		if univID != "" && f.UniversityID == univID {
			return f
		}
		if u, ok := s.universities[f.UniversityID]; ok && entity.InstitutionsMatch(u.Name, rec.University) {
			return f
		}
	}
	return nil
}

// mergeRecord folds a raw record into an existing entity: fill blanks, keep
// the longer title, average confidence. Populated fields are never
// discarded; disagreements are reported as conflicts.
func (s *MemoryStore) mergeRecord(f *entity.Faculty, rec *extract.RawFaculty, now time.Time, rep *IngestReport) {
	if rec.Email != "" {
		if f.Email == "" {
			f.Email = rec.Email
		} else if !strings.EqualFold(f.Email, rec.Email) {
			rep.Conflicts++
			rep.Issues = append(rep.Issues, fmt.Sprintf("email conflict for %s: %q vs %q", f.ID, f.Email, rec.Email))
		}
	}
	if len(rec.Title) > len(f.Title) {
		f.Title = rec.Title
	}
	if f.ProfileURL == "" {
		f.ProfileURL = rec.ProfileURL
	}
	f.Confidence = (f.Confidence + recordConfidence(rec)) / 2
	f.UpdatedAt = now
}

func recordConfidence(rec *extract.RawFaculty) float64 {
	if rec.Method == extract.MethodGeneric {
		return genericRecordConfidence
	}
	return selectorRecordConfidence
}

// ensureUniversity creates the reference entity idempotently by normalized
// institution name.
func (s *MemoryStore) ensureUniversity(name string, now time.Time) string {
	normalized := entity.NormalizeInstitution(name)
	if normalized == "" {
		return ""
	}
	if id, ok := s.universityByName[normalized]; ok {
		return id
	}
	u := &entity.University{
		ID:             entity.NewID(entity.TypeUniversity),
		Name:           strings.TrimSpace(name),
		NormalizedName: normalized,
		CreatedAt:      now,
	}
	s.universities[u.ID] = u
	s.universityByName[normalized] = u.ID
	return u.ID
}

func (s *MemoryStore) ensureDepartment(name, univID string, now time.Time) string {
	normalized := entity.NormalizeInstitution(name)
	if normalized == "" {
		return ""
	}
	key := univID + "|" + normalized
	if id, ok := s.departmentByKey[key]; ok {
		return id
	}
	d := &entity.Department{
		ID:             entity.NewID(entity.TypeDepartment),
		Name:           strings.TrimSpace(name),
		NormalizedName: normalized,
		UniversityID:   univID,
		CreatedAt:      now,
	}
	s.departments[d.ID] = d
	s.departmentByKey[key] = d.ID
	return d.ID
}

// ensureDeptAssoc creates or confirms the faculty-department appointment.
func (s *MemoryStore) ensureDeptAssoc(f *entity.Faculty, deptID string, rec *extract.RawFaculty, now time.Time, rep *IngestReport) {
	if deptID == "" {
		return
	}
	key := f.ID + "|" + deptID
	if id, ok := s.deptAssocByKey[key]; ok {
		s.deptAssocs[id].UpdatedAt = now
		return
	}
	score := recordConfidence(rec)
	a := &entity.FacultyDepartmentAssociation{
		ID:              entity.NewID("association"),
		FacultyID:       f.ID,
		DepartmentID:    deptID,
		AppointmentType: "primary",
		Title:           rec.Title,
		ConfidenceScore: score,
		ConfidenceLevel: entity.LevelForScore(score),
		EvidenceSources: []string{rec.SourceURL},
		Status:          entity.AssociationActive,
		IsCurrent:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(s.deptAssocsFor(f.ID)) > 0 {
		a.AppointmentType = "joint"
	}
	s.deptAssocs[a.ID] = a
	s.deptAssocByKey[key] = a.ID
	rep.AssociationsCreated++
}

// resolveLab handles lab signals on the record: dedup the lab by normalized
// name or site URL, infer the role, and create or confirm the association.
// Conflicting role evidence disputes the existing association instead of
// overwriting it.
func (s *MemoryStore) resolveLab(f *entity.Faculty, rec *extract.RawFaculty, univID, deptID, scrapeID string, now time.Time, rep *IngestReport) {
	if rec.LabName == "" && rec.LabURL == "" {
		return
	}
	labName := rec.LabName
	if labName == "" {
		labName = rec.Name + " Lab"
	}
	normalized := entity.NormalizeName(labName)

	labID := s.labByName[normalized]
	if labID == "" && rec.LabURL != "" {
		labID = s.labBySite[strings.ToLower(rec.LabURL)]
	}
	if labID == "" {
		lab := &entity.Lab{
			ID:             entity.NewID(entity.TypeLab),
			Name:           labName,
			NormalizedName: normalized,
			Type:           "lab",
			UniversityID:   univID,
			DepartmentID:   deptID,
			Website:        rec.LabURL,
			Confidence:     labAssociationConfidence,
			Status:         entity.EntityActive,
			CreatedAt:      now,
			UpdatedAt:      now,
			ScrapeID:       scrapeID,
		}
		s.labs[lab.ID] = lab
		s.labByName[normalized] = lab.ID
		if rec.LabURL != "" {
			s.labBySite[strings.ToLower(rec.LabURL)] = lab.ID
		}
		labID = lab.ID
		rep.LabsCreated++
	} else if lab := s.labs[labID]; lab.Website == "" && rec.LabURL != "" {
		lab.Website = rec.LabURL
		lab.UpdatedAt = now
		s.labBySite[strings.ToLower(rec.LabURL)] = labID
	}

	role := entity.RoleMember
	if surname := lastNameToken(rec.Name); surname != "" &&
		strings.Contains(strings.ToLower(labName), surname) {
		role = entity.RolePrincipalInvestigator
	}

	key := f.ID + "|" + labID
	if id, ok := s.labAssocByKey[key]; ok {
		a := s.labAssocs[id]
		if a.Role != role && a.Status.CanTransition(entity.AssociationDisputed) {
			a.Status = entity.AssociationDisputed
			a.UpdatedAt = now
			rep.Conflicts++
			rep.Issues = append(rep.Issues, fmt.Sprintf("role conflict for association %s: %s vs %s", a.ID, a.Role, role))
		} else {
			a.UpdatedAt = now
			a.EvidenceSources = appendUnique(a.EvidenceSources, rec.SourceURL)
		}
		return
	}
	a := &entity.FacultyLabAssociation{
		ID:               entity.NewID("association"),
		FacultyID:        f.ID,
		LabID:            labID,
		Role:             role,
		RelationshipType: "research",
		ConfidenceScore:  labAssociationConfidence,
		ConfidenceLevel:  entity.LevelForScore(labAssociationConfidence),
		EvidenceSources:  []string{rec.SourceURL},
		Status:           entity.AssociationPendingVerification,
		IsCurrent:        true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.labAssocs[a.ID] = a
	s.labAssocByKey[key] = a.ID
	rep.AssociationsCreated++
}

func lastNameToken(name string) string {
	fields := strings.Fields(entity.NormalizeName(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// GetFaculty returns a copy of the entity.
func (s *MemoryStore) GetFaculty(id string) (*entity.Faculty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faculty[id]
	if !ok {
		return nil, false
	}
	cp := *f
	return &cp, true
}

// GetLab returns a copy of the entity.
func (s *MemoryStore) GetLab(id string) (*entity.Lab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lab, ok := s.labs[id]
	if !ok {
		return nil, false
	}
	cp := *lab
	return &cp, true
}

// ListFaculty returns copies of all non-merged faculty entities.
func (s *MemoryStore) ListFaculty() []*entity.Faculty {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Faculty, 0, len(s.faculty))
	for _, f := range s.faculty {
		if f.Status == entity.EntityMerged {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	return out
}

// ListLabs returns copies of all lab entities.
func (s *MemoryStore) ListLabs() []*entity.Lab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Lab, 0, len(s.labs))
	for _, lab := range s.labs {
		cp := *lab
		out = append(out, &cp)
	}
	return out
}

// RemoveAssociation deletes an association of any type. Both endpoint
// entities remain retrievable and unchanged.
func (s *MemoryStore) RemoveAssociation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.labAssocs[id]; ok {
		delete(s.labAssocs, id)
		delete(s.labAssocByKey, a.FacultyID+"|"+a.LabID)
		return nil
	}
	if a, ok := s.deptAssocs[id]; ok {
		delete(s.deptAssocs, id)
		delete(s.deptAssocByKey, a.FacultyID+"|"+a.DepartmentID)
		return nil
	}
	if _, ok := s.enrichAssocs[id]; ok {
		delete(s.enrichAssocs, id)
		return nil
	}
	return fmt.Errorf("association %s: %w", id, ErrNotFound)
}

// DisputeAssociation flags conflicting evidence on an association. Any
// status may be disputed; resolution is a separate explicit call.
func (s *MemoryStore) DisputeAssociation(id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	if a, ok := s.labAssocs[id]; ok {
		a.Status = entity.AssociationDisputed
		a.UpdatedAt = now
		s.logger.Info("association disputed", "id", id, "reason", reason)
		return nil
	}
	if a, ok := s.deptAssocs[id]; ok {
		a.Status = entity.AssociationDisputed
		a.UpdatedAt = now
		s.logger.Info("association disputed", "id", id, "reason", reason)
		return nil
	}
	return fmt.Errorf("association %s: %w", id, ErrNotFound)
}

// ResolveDispute moves a disputed association to an explicit final status.
func (s *MemoryStore) ResolveDispute(id string, to entity.AssociationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	if a, ok := s.labAssocs[id]; ok {
		return resolveDispute(&a.Status, &a.UpdatedAt, to, now, id)
	}
	if a, ok := s.deptAssocs[id]; ok {
		return resolveDispute(&a.Status, &a.UpdatedAt, to, now, id)
	}
	return fmt.Errorf("association %s: %w", id, ErrNotFound)
}

func resolveDispute(status *entity.AssociationStatus, updatedAt *time.Time, to entity.AssociationStatus, now time.Time, id string) error {
	if *status != entity.AssociationDisputed {
		return fmt.Errorf("association %s is %s, not disputed", id, *status)
	}
	if !status.CanTransition(to) {
		return fmt.Errorf("association %s: invalid transition %s -> %s", id, *status, to)
	}
	*status = to
	*updatedAt = now
	return nil
}

// AddEnrichment stores an enrichment row and links it to the faculty entity.
// Returns the association ID.
func (s *MemoryStore) AddEnrichment(facultyID string, enr *entity.Enrichment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEnrichmentLocked(facultyID, enr, s.nowFunc())
}

func (s *MemoryStore) addEnrichmentLocked(facultyID string, enr *entity.Enrichment, now time.Time) (string, error) {
	if _, ok := s.faculty[facultyID]; !ok {
		return "", fmt.Errorf("faculty %s: %w", facultyID, ErrNotFound)
	}
	cp := *enr
	if cp.ID == "" {
		cp.ID = entity.NewID("enrichment")
	}
	if cp.Status == "" {
		cp.Status = entity.EnrichmentFresh
	}
	if cp.ExtractedAt.IsZero() {
		cp.ExtractedAt = now
	}
	cp.UpdatedAt = now
	s.enrichments[cp.ID] = &cp

	a := &entity.FacultyEnrichmentAssociation{
		ID:              entity.NewID("association"),
		FacultyID:       facultyID,
		EnrichmentID:    cp.ID,
		EnrichmentType:  cp.Type,
		ConfidenceScore: selectorRecordConfidence,
		Status:          entity.AssociationActive,
		CreatedAt:       now,
	}
	s.enrichAssocs[a.ID] = a
	return a.ID, nil
}

// SetEnrichmentStatus applies the enrichment state machine.
func (s *MemoryStore) SetEnrichmentStatus(id string, to entity.EnrichmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enr, ok := s.enrichments[id]
	if !ok {
		return fmt.Errorf("enrichment %s: %w", id, ErrNotFound)
	}
	if !enr.Status.CanTransition(to) {
		return fmt.Errorf("enrichment %s: invalid transition %s -> %s", id, enr.Status, to)
	}
	enr.Status = to
	enr.UpdatedAt = s.nowFunc()
	if to == entity.EnrichmentFresh {
		enr.ExtractedAt = enr.UpdatedAt
	}
	return nil
}

// MergeFaculty folds the duplicate into the primary: blanks filled,
// associations reassigned, and the duplicate left as a merged tombstone
// pointing at the primary. Nothing is deleted.
func (s *MemoryStore) MergeFaculty(primaryID, duplicateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if primaryID == duplicateID {
		return errors.New("cannot merge an entity into itself")
	}
	primary, ok := s.faculty[primaryID]
	if !ok {
		return fmt.Errorf("faculty %s: %w", primaryID, ErrNotFound)
	}
	dup, ok := s.faculty[duplicateID]
	if !ok {
		return fmt.Errorf("faculty %s: %w", duplicateID, ErrNotFound)
	}
	if dup.Status == entity.EntityMerged {
		return fmt.Errorf("faculty %s is already merged into %s", duplicateID, dup.DuplicateOf)
	}
	now := s.nowFunc()

	if primary.Email == "" {
		primary.Email = dup.Email
	}
	if len(dup.Title) > len(primary.Title) {
		primary.Title = dup.Title
	}
	if primary.ProfileURL == "" {
		primary.ProfileURL = dup.ProfileURL
	}
	if primary.PersonalSite == "" {
		primary.PersonalSite = dup.PersonalSite
	}
	primary.Confidence = (primary.Confidence + dup.Confidence) / 2
	primary.MergedIDs = append(primary.MergedIDs, duplicateID)
	primary.UpdatedAt = now

	for _, a := range s.deptAssocs {
		if a.FacultyID != duplicateID {
			continue
		}
		delete(s.deptAssocByKey, duplicateID+"|"+a.DepartmentID)
		key := primaryID + "|" + a.DepartmentID
		if _, exists := s.deptAssocByKey[key]; exists {
			a.Status = entity.AssociationInactive
			a.IsCurrent = false
		} else {
			s.deptAssocByKey[key] = a.ID
		}
		a.FacultyID = primaryID
		a.UpdatedAt = now
	}
	for _, a := range s.labAssocs {
		if a.FacultyID != duplicateID {
			continue
		}
		delete(s.labAssocByKey, duplicateID+"|"+a.LabID)
		key := primaryID + "|" + a.LabID
		if _, exists := s.labAssocByKey[key]; exists {
			a.Status = entity.AssociationInactive
			a.IsCurrent = false
		} else {
			s.labAssocByKey[key] = a.ID
		}
		a.FacultyID = primaryID
		a.UpdatedAt = now
	}
	for _, a := range s.enrichAssocs {
		if a.FacultyID == duplicateID {
			a.FacultyID = primaryID
		}
	}

	dup.Status = entity.EntityMerged
	dup.DuplicateOf = primaryID
	dup.UpdatedAt = now
	s.logger.Info("merged faculty entity", "primary", primaryID, "duplicate", duplicateID)
	return nil
}

func (s *MemoryStore) deptAssocsFor(facultyID string) []*entity.FacultyDepartmentAssociation {
	var out []*entity.FacultyDepartmentAssociation
	for _, a := range s.deptAssocs {
		if a.FacultyID == facultyID {
			out = append(out, a)
		}
	}
	return out
}
