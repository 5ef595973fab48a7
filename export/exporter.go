package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/store"
)

// NamespaceFacultyAtlas is the IRI namespace for exported entities.
const NamespaceFacultyAtlas = "https://facultyatlas.dev/ns#"

// Ontology classes exported entities are typed with.
const (
	ClassPerson       = "http://xmlns.com/foaf/0.1/Person"
	ClassOrganization = "http://www.w3.org/ns/org#OrganizationalUnit"
)

// Exported predicates under the facultyatlas namespace.
const (
	predName       = NamespaceFacultyAtlas + "name"
	predTitle      = NamespaceFacultyAtlas + "title"
	predEmail      = NamespaceFacultyAtlas + "email"
	predUniversity = NamespaceFacultyAtlas + "university"
	predDepartment = NamespaceFacultyAtlas + "memberOfDepartment"
	predMemberOf   = NamespaceFacultyAtlas + "memberOfLab"
	predLeads      = NamespaceFacultyAtlas + "leadsLab"
	predWebsite    = NamespaceFacultyAtlas + "website"
	predConfidence = NamespaceFacultyAtlas + "confidence"
)

// ViewSource provides the aggregated views the exporter serializes.
type ViewSource interface {
	ListFaculty() []*entity.Faculty
	ListLabs() []*entity.Lab
	FacultyAggregatedView(id string) (*store.FacultyView, bool)
	LabAggregatedView(id string) (*store.LabView, bool)
	GenerateRelationshipMap() *store.RelationshipMap
}

// Exporter serializes aggregated views.
type Exporter struct {
	source ViewSource
	logger *slog.Logger
}

// NewExporter builds an exporter over a view source.
func NewExporter(source ViewSource, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, logger: logger.With("component", "export")}
}

// ExportFaculty writes one faculty aggregated view in the given format.
func (e *Exporter) ExportFaculty(w io.Writer, id string, format Format) error {
	view, ok := e.source.FacultyAggregatedView(id)
	if !ok {
		return fmt.Errorf("faculty %s not found", id)
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, view)
	case FormatTurtle:
		tw := NewTurtleWriter()
		tw.WritePrefixes()
		writeFacultyTurtle(tw, view)
		_, err := io.WriteString(w, tw.String())
		return err
	case FormatNTriples:
		nw := NewNTriplesWriter()
		writeFacultyNTriples(nw, view)
		_, err := io.WriteString(w, nw.String())
		return err
	case FormatJSONLD:
		jw := NewJSONLDWriter()
		addFacultyNode(jw, view)
		_, err := io.WriteString(w, jw.String())
		return err
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportAllFaculty writes every non-merged faculty view as one JSON array.
func (e *Exporter) ExportAllFaculty(w io.Writer) error {
	var views []*store.FacultyView
	for _, f := range e.source.ListFaculty() {
		if view, ok := e.source.FacultyAggregatedView(f.ID); ok {
			views = append(views, view)
		}
	}
	e.logger.Info("exporting faculty views", "count", len(views))
	return writeJSON(w, views)
}

// ExportLab writes one lab aggregated view as JSON.
func (e *Exporter) ExportLab(w io.Writer, id string) error {
	view, ok := e.source.LabAggregatedView(id)
	if !ok {
		return fmt.Errorf("lab %s not found", id)
	}
	return writeJSON(w, view)
}

// ExportAllLabs writes every lab view as one JSON array.
func (e *Exporter) ExportAllLabs(w io.Writer) error {
	var views []*store.LabView
	for _, lab := range e.source.ListLabs() {
		if view, ok := e.source.LabAggregatedView(lab.ID); ok {
			views = append(views, view)
		}
	}
	e.logger.Info("exporting lab views", "count", len(views))
	return writeJSON(w, views)
}

// ExportRelationshipMap writes the global graph summary as JSON.
func (e *Exporter) ExportRelationshipMap(w io.Writer) error {
	return writeJSON(w, e.source.GenerateRelationshipMap())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// subjectIRI places a store entity ID under the export namespace.
func subjectIRI(id string) string {
	return NamespaceFacultyAtlas + id
}

// facultyPredicates flattens a view into ordered predicate-object pairs
// shared by the RDF serializations.
func facultyPredicates(view *store.FacultyView) [][2]any {
	pairs := [][2]any{
		{predName, view.Faculty.Name},
		{predConfidence, view.Faculty.Confidence},
	}
	if view.Faculty.Title != "" {
		pairs = append(pairs, [2]any{predTitle, view.Faculty.Title})
	}
	if view.Faculty.Email != "" {
		pairs = append(pairs, [2]any{predEmail, view.Faculty.Email})
	}
	if view.Faculty.ProfileURL != "" {
		pairs = append(pairs, [2]any{predWebsite, view.Faculty.ProfileURL})
	}
	if view.University != nil {
		pairs = append(pairs, [2]any{predUniversity, view.University.Name})
	}
	for _, dav := range view.Departments {
		if dav.Department != nil {
			pairs = append(pairs, [2]any{predDepartment, subjectIRI(dav.Department.ID)})
		}
	}
	for _, lav := range view.Labs {
		if lav.Lab == nil {
			continue
		}
		pred := predMemberOf
		if lav.Association.Role == entity.RolePrincipalInvestigator {
			pred = predLeads
		}
		pairs = append(pairs, [2]any{pred, subjectIRI(lav.Lab.ID)})
	}
	return pairs
}

func writeFacultyTurtle(tw *TurtleWriter, view *store.FacultyView) {
	tw.WriteSubject(subjectIRI(view.Faculty.ID))
	tw.WriteType(ClassPerson, false)
	pairs := facultyPredicates(view)
	for i, pair := range pairs {
		tw.WritePredicate(pair[0].(string), pair[1], i == len(pairs)-1)
	}
	tw.WriteBlank()
}

func writeFacultyNTriples(nw *NTriplesWriter, view *store.FacultyView) {
	subject := subjectIRI(view.Faculty.ID)
	nw.WriteTypeTriple(subject, ClassPerson)
	for _, pair := range facultyPredicates(view) {
		nw.WriteTriple(subject, pair[0].(string), pair[1])
	}
}

func addFacultyNode(jw *JSONLDWriter, view *store.FacultyView) {
	props := make(map[string]any, 8)
	for _, pair := range facultyPredicates(view) {
		key := pair[0].(string)
		if existing, ok := props[key]; ok {
			switch list := existing.(type) {
			case []any:
				props[key] = append(list, pair[1])
			default:
				props[key] = []any{existing, pair[1]}
			}
			continue
		}
		props[key] = pair[1]
	}
	jw.AddNode(subjectIRI(view.Faculty.ID), []string{ClassPerson}, props)
}
