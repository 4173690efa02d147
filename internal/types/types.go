// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student represents one student document in the store.
//
// Struct tags serve three purposes here:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON
//     (lowercase names match REST API conventions).
//
//  2. bson:"..."  — controls how the field is stored in MongoDB.
//     "_id,omitempty" maps ID onto the document's primary key; omitempty
//     lets the driver generate the ObjectID when we insert with a zero ID.
//
//  3. validate:"..." — rules checked by the go-playground/validator
//     package. "required" means the field must be non-zero / non-empty.
//
// ID and CreatedAt carry no validate tag on purpose: both are assigned by
// the storage layer at insert time and never accepted from a client body.
type Student struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Name      string             `json:"name"      bson:"name"   validate:"required"`
	Marks     int                `json:"marks"     bson:"marks"  validate:"required"`
	Course    string             `json:"course"    bson:"course" validate:"required"`
	City      string             `json:"city"      bson:"city"   validate:"required"`
	Subjects  []string           `json:"subjects"  bson:"subjects"`
	Enrolled  bool               `json:"enrolled"  bson:"enrolled"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// StudentFilter carries the optional query parameters of the filter
// endpoint. MinMarks is a pointer so we can distinguish "parameter absent"
// from an explicit threshold of 0 — that difference changes which
// predicate the storage layer builds.
type StudentFilter struct {
	MinMarks *int
	Courses  []string
	City     string
}

// CourseStats is one row of the grouped aggregation: summary statistics
// over every student sharing the same course.
//
// The bson tag on Course is "_id" because a $group stage stores the
// grouping key under _id; the JSON name stays "course" for API consumers.
type CourseStats struct {
	Course   string  `json:"course"   bson:"_id"`
	Count    int     `json:"count"    bson:"count"`
	AvgMarks float64 `json:"avgMarks" bson:"avgMarks"`
	MaxMarks int     `json:"maxMarks" bson:"maxMarks"`
	MinMarks int     `json:"minMarks" bson:"minMarks"`
}
