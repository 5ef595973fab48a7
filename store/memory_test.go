package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/extract"
)

func record(name string) extract.RawFaculty {
	return extract.RawFaculty{
		Name:       name,
		Title:      "Professor",
		Email:      "",
		Department: "Computer Science",
		University: "Example University",
		ProfileURL: "https://cs.example.edu/people/x",
		SourceURL:  "https://cs.example.edu/faculty",
		Method:     extract.MethodSelector,
	}
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestCreatesEntities(t *testing.T) {
	s := newTestStore(t)
	rec := record("Jane Smith")
	rec.Email = "jane@example.edu"

	rep, err := s.Ingest(context.Background(), []extract.RawFaculty{rec}, "scrape-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Processed)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 0, rep.Merged)
	assert.Equal(t, 1, rep.AssociationsCreated)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1)
	f := faculty[0]
	assert.Equal(t, "Jane Smith", f.Name)
	assert.Equal(t, "jane smith", f.NormalizedName)
	assert.Equal(t, "jane@example.edu", f.Email)
	assert.Equal(t, "scrape-1", f.ScrapeID)
	assert.NotEmpty(t, f.UniversityID)
	assert.NotEmpty(t, f.DepartmentID)
}

func TestReIngestMergesNotDuplicates(t *testing.T) {
	s := newTestStore(t)
	rec := record("Dr. Jane Smith")
	rec.Email = "jane@example.edu"

	ctx := context.Background()
	_, err := s.Ingest(ctx, []extract.RawFaculty{rec}, "scrape-1")
	require.NoError(t, err)

	rep, err := s.Ingest(ctx, []extract.RawFaculty{rec}, "scrape-2")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Created)
	assert.Equal(t, 1, rep.Merged)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1, "re-ingesting an identical record must not create a second entity")
	assert.Equal(t, "jane@example.edu", faculty[0].Email, "populated fields survive re-ingest")
	assert.Equal(t, "Professor", faculty[0].Title)
}

func TestMergeKeepsLongerTitleAndFillsBlanks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := record("Jane Smith")
	first.Title = "Professor"
	first.Email = ""
	_, err := s.Ingest(ctx, []extract.RawFaculty{first}, "scrape-1")
	require.NoError(t, err)

	second := record("Jane Smith")
	second.Title = "Professor of Computer Science"
	second.Email = "jane@example.edu"
	_, err = s.Ingest(ctx, []extract.RawFaculty{second}, "scrape-2")
	require.NoError(t, err)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1)
	assert.Equal(t, "Professor of Computer Science", faculty[0].Title)
	assert.Equal(t, "jane@example.edu", faculty[0].Email)
}

func TestEmailConflictReportedNotBlocking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := record("Jane Smith")
	first.Email = "jane@example.edu"
	_, err := s.Ingest(ctx, []extract.RawFaculty{first}, "scrape-1")
	require.NoError(t, err)

	second := record("Jane Smith")
	second.Email = "j.smith@example.edu"
	rep, err := s.Ingest(ctx, []extract.RawFaculty{second}, "scrape-2")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Conflicts)
	assert.NotEmpty(t, rep.Issues)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1)
	assert.Equal(t, "jane@example.edu", faculty[0].Email, "original email kept on conflict")
}

func TestSameNameDifferentUniversityStaysSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := record("Jane Smith")
	b := record("Jane Smith")
	b.University = "Other Institute"
	_, err := s.Ingest(ctx, []extract.RawFaculty{a, b}, "scrape-1")
	require.NoError(t, err)

	assert.Len(t, s.ListFaculty(), 2)
}

func TestTwoDepartmentsOneEntityTwoAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := record("Jane Smith")
	a.Email = "jane@example.edu"
	b := record("Jane Smith")
	b.Email = "jane@example.edu"
	b.Department = "Electrical Engineering"

	rep, err := s.Ingest(ctx, []extract.RawFaculty{a, b}, "scrape-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Merged)
	assert.Equal(t, 2, rep.AssociationsCreated)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1)
	view, ok := s.FacultyAggregatedView(faculty[0].ID)
	require.True(t, ok)
	assert.Len(t, view.Departments, 2, "joint appointment keeps both department associations")
}

func TestLabResolutionAndRoleInference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pi := record("Jane Smith")
	pi.Email = "jane@example.edu"
	pi.LabName = "Smith Vision Lab"
	pi.LabURL = "https://visionlab.example.edu"

	member := record("John Roe")
	member.Email = "roe@example.edu"
	member.LabName = "Smith Vision Lab"

	rep, err := s.Ingest(ctx, []extract.RawFaculty{pi, member}, "scrape-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.LabsCreated, "lab deduped by normalized name")

	faculty := s.ListFaculty()
	require.Len(t, faculty, 2)
	for _, f := range faculty {
		view, ok := s.FacultyAggregatedView(f.ID)
		require.True(t, ok)
		require.Len(t, view.Labs, 1)
		a := view.Labs[0].Association
		assert.Equal(t, entity.AssociationPendingVerification, a.Status)
		if f.NormalizedName == "jane smith" {
			assert.Equal(t, entity.RolePrincipalInvestigator, a.Role)
		} else {
			assert.Equal(t, entity.RoleMember, a.Role)
		}
	}
}

func TestRemoveAssociationLeavesEndpoints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := record("Jane Smith")
	rec.LabName = "Smith Vision Lab"
	_, err := s.Ingest(ctx, []extract.RawFaculty{rec}, "scrape-1")
	require.NoError(t, err)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 1)
	view, ok := s.FacultyAggregatedView(faculty[0].ID)
	require.True(t, ok)
	require.Len(t, view.Labs, 1)
	assocID := view.Labs[0].Association.ID
	labID := view.Labs[0].Association.LabID
	before := *faculty[0]

	require.NoError(t, s.RemoveAssociation(assocID))

	f, ok := s.GetFaculty(before.ID)
	require.True(t, ok, "faculty survives association removal")
	assert.Equal(t, before.Name, f.Name)
	assert.Equal(t, before.Email, f.Email)
	lab, ok := s.GetLab(labID)
	require.True(t, ok, "lab survives association removal")
	assert.Equal(t, "Smith Vision Lab", lab.Name)

	assert.Error(t, s.RemoveAssociation(assocID))
}

func TestDisputeAndResolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := record("Jane Smith")
	rec.LabName = "Smith Vision Lab"
	_, err := s.Ingest(ctx, []extract.RawFaculty{rec}, "scrape-1")
	require.NoError(t, err)

	faculty := s.ListFaculty()
	view, _ := s.FacultyAggregatedView(faculty[0].ID)
	assocID := view.Labs[0].Association.ID

	require.NoError(t, s.DisputeAssociation(assocID, "conflicting directory listing"))

	// resolution is explicit, never automatic: re-ingesting does not undo it
	_, err = s.Ingest(ctx, []extract.RawFaculty{rec}, "scrape-2")
	require.NoError(t, err)
	view, _ = s.FacultyAggregatedView(faculty[0].ID)
	assert.Equal(t, entity.AssociationDisputed, view.Labs[0].Association.Status)

	require.NoError(t, s.ResolveDispute(assocID, entity.AssociationVerified))
	view, _ = s.FacultyAggregatedView(faculty[0].ID)
	assert.Equal(t, entity.AssociationVerified, view.Labs[0].Association.Status)

	// not disputed anymore
	assert.Error(t, s.ResolveDispute(assocID, entity.AssociationInactive))
}

func TestMergeFaculty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := record("Jane Smith")
	a.Email = "jane@example.edu"
	b := record("Jane E. Smith")
	b.Department = "Electrical Engineering"
	b.Title = "Professor of Electrical Engineering"
	_, err := s.Ingest(ctx, []extract.RawFaculty{a, b}, "scrape-1")
	require.NoError(t, err)

	faculty := s.ListFaculty()
	require.Len(t, faculty, 2, "different normalized names stay separate")
	var primary, dup *entity.Faculty
	for _, f := range faculty {
		if f.NormalizedName == "jane smith" {
			primary = f
		} else {
			dup = f
		}
	}
	require.NotNil(t, primary)
	require.NotNil(t, dup)

	require.NoError(t, s.MergeFaculty(primary.ID, dup.ID))

	merged, ok := s.GetFaculty(dup.ID)
	require.True(t, ok, "tombstone remains retrievable")
	assert.Equal(t, entity.EntityMerged, merged.Status)
	assert.Equal(t, primary.ID, merged.DuplicateOf)

	view, ok := s.FacultyAggregatedView(primary.ID)
	require.True(t, ok)
	assert.Len(t, view.Departments, 2, "duplicate's department association reassigned")
	assert.Contains(t, view.Faculty.MergedIDs, dup.ID)
	assert.Len(t, s.ListFaculty(), 1)

	assert.Error(t, s.MergeFaculty(primary.ID, dup.ID), "double merge rejected")
	assert.Error(t, s.MergeFaculty(primary.ID, primary.ID))
}

func TestIngestCancellationKeepsApplied(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Ingest(ctx, []extract.RawFaculty{record("Jane Smith")}, "scrape-1")
	require.Error(t, err)

	// store still usable after a cancelled call
	rep, err := s.Ingest(context.Background(), []extract.RawFaculty{record("Jane Smith")}, "scrape-2")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)
}

func TestIngestAfterClose(t *testing.T) {
	s := NewMemoryStore(nil)
	require.NoError(t, s.Close())
	_, err := s.Ingest(context.Background(), []extract.RawFaculty{record("Jane Smith")}, "scrape-1")
	assert.ErrorIs(t, err, ErrClosed)
}
