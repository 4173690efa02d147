// Predicate builder for the filter endpoint.
//
// Instead of assembling a loosely-typed bson.M field-by-field inside the
// query method, the optional filter parameters are composed from small
// typed clause values (equality, $gte range, $in membership, $or
// disjunction). Two things fall out of that for free:
//
//   - the composition rules are unit-testable without a running store
//   - every clause knows how to describe itself, so the API's
//     "description" field lists exactly the operators that were applied
package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/openlearn-labs/students-api/internal/types"
)

// Clause is one condition of a query predicate. A clause renders itself
// into a filter document and into a short human-readable description.
type Clause interface {
	// apply merges the clause into the filter document.
	apply(doc bson.M)
	// describe returns the operator summary, e.g. "$gte on marks".
	describe() string
}

type eqClause struct {
	field string
	value any
}

func (c eqClause) apply(doc bson.M) { doc[c.field] = c.value }
func (c eqClause) describe() string { return fmt.Sprintf("equality on %s", c.field) }

type gteClause struct {
	field string
	value any
}

func (c gteClause) apply(doc bson.M) { doc[c.field] = bson.M{"$gte": c.value} }
func (c gteClause) describe() string { return fmt.Sprintf("$gte on %s", c.field) }

type inClause struct {
	field  string
	values []string
}

func (c inClause) apply(doc bson.M) { doc[c.field] = bson.M{"$in": c.values} }
func (c inClause) describe() string { return fmt.Sprintf("$in on %s", c.field) }

type orClause struct {
	branches []Clause
}

func (c orClause) apply(doc bson.M) {
	branchDocs := make([]bson.M, 0, len(c.branches))
	for _, b := range c.branches {
		d := bson.M{}
		b.apply(d)
		branchDocs = append(branchDocs, d)
	}
	doc["$or"] = branchDocs
}

func (c orClause) describe() string {
	parts := make([]string, 0, len(c.branches))
	for _, b := range c.branches {
		parts = append(parts, b.describe())
	}
	return fmt.Sprintf("$or of (%s)", strings.Join(parts, ", "))
}

// Eq matches documents whose field equals value exactly.
func Eq(field string, value any) Clause { return eqClause{field: field, value: value} }

// Gte matches documents whose field is greater than or equal to value.
func Gte(field string, value any) Clause { return gteClause{field: field, value: value} }

// In matches documents whose field is any of the given values.
func In(field string, values []string) Clause { return inClause{field: field, values: values} }

// Or matches documents satisfying at least one of the given clauses.
func Or(branches ...Clause) Clause { return orClause{branches: branches} }

// Predicate is an AND-combination of clauses.
type Predicate struct {
	clauses []Clause
}

// Add appends one more AND-ed clause.
func (p *Predicate) Add(c Clause) { p.clauses = append(p.clauses, c) }

// Empty reports whether no clause was added — i.e. match everything.
func (p *Predicate) Empty() bool { return len(p.clauses) == 0 }

// Document renders the predicate as the filter document handed to Find.
// All clauses are merged into one bson.M, which MongoDB treats as an
// implicit AND.
func (p *Predicate) Document() bson.M {
	doc := bson.M{}
	for _, c := range p.clauses {
		c.apply(doc)
	}
	return doc
}

// Description summarises the applied operators for the API response,
// e.g. "$in on course AND $or of (equality on city, $gte on marks)".
func (p *Predicate) Description() string {
	if p.Empty() {
		return "no filters applied"
	}
	parts := make([]string, 0, len(p.clauses))
	for _, c := range p.clauses {
		parts = append(parts, c.describe())
	}
	return strings.Join(parts, " AND ")
}

// studentFilterPredicate translates the filter endpoint's optional
// parameters into a predicate.
//
// COMPATIBILITY CONTRACT — do not "clean up" without versioning the API:
// when BOTH city and minMarks are supplied, the marks-only clause is
// dropped entirely and replaced by $or(city equality, marks $gte); a
// course $in clause, if present, stays AND-ed alongside that $or. Only
// when city is absent does minMarks become a plain AND-ed $gte clause.
// Existing callers rely on this exact shape.
func studentFilterPredicate(f types.StudentFilter) Predicate {
	var p Predicate

	if len(f.Courses) > 0 {
		p.Add(In("course", f.Courses))
	}

	switch {
	case f.City != "" && f.MinMarks != nil:
		p.Add(Or(Eq("city", f.City), Gte("marks", *f.MinMarks)))
	case f.City != "":
		p.Add(Eq("city", f.City))
	case f.MinMarks != nil:
		p.Add(Gte("marks", *f.MinMarks))
	}

	return p
}
