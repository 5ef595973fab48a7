package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/extract"
	"github.com/c360studio/facultyatlas/store"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore(nil)
	t.Cleanup(func() { s.Close() })

	_, err := s.Ingest(context.Background(), []extract.RawFaculty{{
		Name:       "Jane Smith",
		Title:      "Professor",
		Email:      "jane@example.edu",
		Department: "Computer Science",
		University: "Example University",
		ProfileURL: "https://cs.example.edu/people/smith",
		SourceURL:  "https://cs.example.edu/faculty",
		Method:     extract.MethodSelector,
		LabName:    "Smith Vision Lab",
	}}, "scrape-1")
	require.NoError(t, err)
	return s
}

func TestExportFacultyJSON(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)
	id := s.ListFaculty()[0].ID

	var buf bytes.Buffer
	require.NoError(t, e.ExportFaculty(&buf, id, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	faculty := decoded["faculty"].(map[string]any)
	assert.Equal(t, "Jane Smith", faculty["name"])
	assert.Equal(t, "jane smith", faculty["normalized_name"])
	assert.Contains(t, decoded, "metrics")
	assert.Contains(t, decoded, "labs")
}

func TestExportFacultyTurtle(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)
	id := s.ListFaculty()[0].ID

	var buf bytes.Buffer
	require.NoError(t, e.ExportFaculty(&buf, id, FormatTurtle))
	out := buf.String()
	assert.Contains(t, out, "@prefix foaf:")
	assert.Contains(t, out, ClassPerson)
	assert.Contains(t, out, `"Jane Smith"`)
	assert.Contains(t, out, "leadsLab")
}

func TestExportFacultyNTriples(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)
	id := s.ListFaculty()[0].ID

	var buf bytes.Buffer
	require.NoError(t, e.ExportFaculty(&buf, id, FormatNTriples))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Greater(t, len(lines), 3)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), "line %q terminated", line)
	}
}

func TestExportFacultyJSONLD(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)
	id := s.ListFaculty()[0].ID

	var buf bytes.Buffer
	require.NoError(t, e.ExportFaculty(&buf, id, FormatJSONLD))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "@context")
	graph := doc["@graph"].([]any)
	require.Len(t, graph, 1)
	node := graph[0].(map[string]any)
	assert.Equal(t, "Jane Smith", node[predName])
}

func TestExportUnknownIDAndFormat(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)

	var buf bytes.Buffer
	assert.Error(t, e.ExportFaculty(&buf, "faculty:nope", FormatJSON))
	assert.Error(t, e.ExportFaculty(&buf, s.ListFaculty()[0].ID, Format("csv")))
}

func TestExportRelationshipMapAndLab(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)

	var buf bytes.Buffer
	require.NoError(t, e.ExportRelationshipMap(&buf))
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, float64(1), m["faculty_count"])
	assert.Equal(t, float64(1), m["lab_count"])

	view, ok := s.FacultyAggregatedView(s.ListFaculty()[0].ID)
	require.True(t, ok)
	require.NotEmpty(t, view.Labs)

	buf.Reset()
	require.NoError(t, e.ExportLab(&buf, view.Labs[0].Association.LabID))
	var lab map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &lab))
	assert.Equal(t, float64(1), lab["member_count"])
}

func TestExportAllFaculty(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)

	var buf bytes.Buffer
	require.NoError(t, e.ExportAllFaculty(&buf))
	var views []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	assert.Len(t, views, 1)
}

func TestExportAllLabs(t *testing.T) {
	s := seededStore(t)
	e := NewExporter(s, nil)

	var buf bytes.Buffer
	require.NoError(t, e.ExportAllLabs(&buf))
	var views []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 1)
	lab, ok := views[0]["lab"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Smith Vision Lab", lab["name"])
}
