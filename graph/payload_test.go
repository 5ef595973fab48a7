package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/facultyatlas/entity"
	"github.com/c360studio/facultyatlas/store"
)

func TestFacultyMessage(t *testing.T) {
	view := &store.FacultyView{
		Faculty: entity.Faculty{
			ID:         "faculty:abc",
			Name:       "Jane Smith",
			Title:      "Professor",
			Email:      "jane@example.edu",
			Confidence: 0.8,
		},
		University: &entity.University{Name: "Example University"},
		Departments: []store.DepartmentAssociationView{{
			Association: entity.FacultyDepartmentAssociation{ConfidenceScore: 0.8},
			Department:  &entity.Department{Name: "Computer Science"},
		}},
		Labs: []store.LabAssociationView{{
			Association: entity.FacultyLabAssociation{Role: entity.RolePrincipalInvestigator, ConfidenceScore: 0.5},
			Lab:         &entity.Lab{Name: "Smith Vision Lab"},
		}},
	}

	msg := facultyMessage(view)
	assert.Equal(t, "facultyatlas.entity.faculty:abc", msg.ID)

	predicates := make(map[string]any)
	for _, triple := range msg.Triples {
		require.Equal(t, msg.ID, triple.Subject)
		require.Equal(t, publishSource, triple.Source)
		predicates[triple.Predicate] = triple.Object
	}
	assert.Equal(t, "Jane Smith", predicates[PredicateName])
	assert.Equal(t, "Professor", predicates[PredicateTitle])
	assert.Equal(t, "Example University", predicates[PredicateUniversity])
	assert.Equal(t, "Computer Science", predicates[PredicateDepartment])
	assert.Equal(t, "Smith Vision Lab", predicates[PredicateLeadsLab])
	assert.NotContains(t, predicates, PredicateMemberOfLab)
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishFaculty(context.Background(), &store.FacultyView{}))
	assert.NoError(t, p.Close())

	p2, err := Connect("", "faculty.graph", nil)
	require.NoError(t, err)
	assert.Nil(t, p2)
	assert.NoError(t, p2.PublishFaculty(context.Background(), &store.FacultyView{}))
}
