package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/openlearn-labs/students-api/internal/types"
)

func intPtr(v int) *int { return &v }

func TestClauseRendering(t *testing.T) {
	t.Run("eq", func(t *testing.T) {
		doc := bson.M{}
		Eq("city", "Mumbai").apply(doc)
		assert.Equal(t, bson.M{"city": "Mumbai"}, doc)
	})

	t.Run("gte", func(t *testing.T) {
		doc := bson.M{}
		Gte("marks", 50).apply(doc)
		assert.Equal(t, bson.M{"marks": bson.M{"$gte": 50}}, doc)
	})

	t.Run("in", func(t *testing.T) {
		doc := bson.M{}
		In("course", []string{"Math", "CS"}).apply(doc)
		assert.Equal(t, bson.M{"course": bson.M{"$in": []string{"Math", "CS"}}}, doc)
	})

	t.Run("or", func(t *testing.T) {
		doc := bson.M{}
		Or(Eq("city", "Mumbai"), Gte("marks", 50)).apply(doc)
		assert.Equal(t, bson.M{"$or": []bson.M{
			{"city": "Mumbai"},
			{"marks": bson.M{"$gte": 50}},
		}}, doc)
	})
}

func TestPredicateDescription(t *testing.T) {
	var p Predicate
	assert.Equal(t, "no filters applied", p.Description())

	p.Add(In("course", []string{"Math"}))
	p.Add(Or(Eq("city", "Mumbai"), Gte("marks", 50)))
	assert.Equal(t,
		"$in on course AND $or of (equality on city, $gte on marks)",
		p.Description())
}

// The composition rules of the filter endpoint, including the exact
// city/minMarks interaction existing callers depend on.
func TestStudentFilterPredicate(t *testing.T) {
	tests := []struct {
		name    string
		filter  types.StudentFilter
		wantDoc bson.M
	}{
		{
			name:    "no parameters matches everything",
			filter:  types.StudentFilter{},
			wantDoc: bson.M{},
		},
		{
			name:    "minMarks alone becomes a gte clause",
			filter:  types.StudentFilter{MinMarks: intPtr(50)},
			wantDoc: bson.M{"marks": bson.M{"$gte": 50}},
		},
		{
			name:    "zero threshold is still a present threshold",
			filter:  types.StudentFilter{MinMarks: intPtr(0)},
			wantDoc: bson.M{"marks": bson.M{"$gte": 0}},
		},
		{
			name:    "courses alone becomes an in clause",
			filter:  types.StudentFilter{Courses: []string{"Math", "CS"}},
			wantDoc: bson.M{"course": bson.M{"$in": []string{"Math", "CS"}}},
		},
		{
			name:    "city alone becomes an equality clause",
			filter:  types.StudentFilter{City: "Mumbai"},
			wantDoc: bson.M{"city": "Mumbai"},
		},
		{
			name:   "minMarks and courses are AND-ed",
			filter: types.StudentFilter{MinMarks: intPtr(50), Courses: []string{"Math", "CS"}},
			wantDoc: bson.M{
				"course": bson.M{"$in": []string{"Math", "CS"}},
				"marks":  bson.M{"$gte": 50},
			},
		},
		{
			// The compatibility contract: the marks-only clause is
			// dropped and replaced by the two-branch $or.
			name:   "city plus minMarks becomes an or, no standalone marks clause",
			filter: types.StudentFilter{MinMarks: intPtr(50), City: "Mumbai"},
			wantDoc: bson.M{
				"$or": []bson.M{
					{"city": "Mumbai"},
					{"marks": bson.M{"$gte": 50}},
				},
			},
		},
		{
			name: "courses stay AND-ed alongside the or",
			filter: types.StudentFilter{
				MinMarks: intPtr(50),
				Courses:  []string{"Math"},
				City:     "Mumbai",
			},
			wantDoc: bson.M{
				"course": bson.M{"$in": []string{"Math"}},
				"$or": []bson.M{
					{"city": "Mumbai"},
					{"marks": bson.M{"$gte": 50}},
				},
			},
		},
		{
			name:   "city and courses without minMarks are AND-ed, no or",
			filter: types.StudentFilter{Courses: []string{"Math"}, City: "Mumbai"},
			wantDoc: bson.M{
				"course": bson.M{"$in": []string{"Math"}},
				"city":   "Mumbai",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := studentFilterPredicate(tt.filter)
			assert.Equal(t, tt.wantDoc, p.Document())
		})
	}
}

func TestStudentFilterPredicateNeverEmitsMarksNextToOr(t *testing.T) {
	p := studentFilterPredicate(types.StudentFilter{
		MinMarks: intPtr(75),
		City:     "Pune",
	})

	doc := p.Document()
	require.Contains(t, doc, "$or")
	assert.NotContains(t, doc, "marks",
		"marks must only appear inside the $or branch when city is present")
}
