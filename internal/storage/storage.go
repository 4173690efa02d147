// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero handler changes.
//
//   - Writing tests = pass a fake/mock that satisfies the interface.
//     No real database needed for unit tests.
//
// This is the Dependency Inversion Principle in practice.
package storage

import (
	"context"
	"errors"

	"github.com/openlearn-labs/students-api/internal/types"
)

// Sentinel errors every backend must return for the two failure classes
// the HTTP layer maps to specific status codes. Handlers test with
// errors.Is, so backends may wrap these with extra context.
var (
	// ErrStudentNotFound — a lookup by identifier matched nothing (404).
	ErrStudentNotFound = errors.New("student not found")

	// ErrInvalidStudentID — the identifier is not a valid ObjectID hex
	// string; no store round-trip was made (400).
	ErrInvalidStudentID = errors.New("invalid student id")

	// ErrInvalidNamePattern — the search fragment is not a valid regular
	// expression (400).
	ErrInvalidNamePattern = errors.New("invalid name search pattern")
)

// Storage is the database contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface — Go does this implicitly (no "implements"
// keyword required).
//
// Every method takes a context.Context so a client disconnect can cancel
// the single store call a request issues. Each method issues exactly one
// store operation; none of them holds state between calls.
type Storage interface {
	// CreateStudent inserts one student. The backend assigns the ID and
	// the CreatedAt timestamp and returns the persisted document.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// CreateStudents inserts a batch of students in one call. IDs and
	// timestamps are assigned per document; the inserted documents are
	// returned in input order.
	CreateStudents(ctx context.Context, students []types.Student) ([]types.Student, error)

	// GetStudents returns every student, newest first (CreatedAt
	// descending). Returns an empty slice (not nil) when there are none.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single student by its hex ObjectID.
	// Returns ErrInvalidStudentID or ErrStudentNotFound accordingly.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// FilterStudents returns students matching the predicate built from
	// the optional filter parameters, together with a human-readable
	// description of which query operators were applied.
	FilterStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, string, error)

	// SearchStudentsByName returns students whose name matches the given
	// fragment case-insensitively (regex match on the store side).
	// Returns ErrInvalidNamePattern if the fragment is not a valid regex.
	SearchStudentsByName(ctx context.Context, name string) ([]types.Student, error)

	// UpdateStudentByID replaces the mutable fields of an existing
	// student and returns the post-update document.
	UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error)

	// ApplyStudentOperators applies the fixed operator update — increment
	// marks by 5, append "AI" to subjects, set enrolled to true — and
	// returns the post-update document.
	ApplyStudentOperators(ctx context.Context, id string) (types.Student, error)

	// DeleteStudentByID removes a student permanently and returns the
	// document as it was just before deletion.
	DeleteStudentByID(ctx context.Context, id string) (types.Student, error)

	// GetCourseStats groups all students by course and returns per-course
	// count/average/max/min of marks, sorted by average descending.
	GetCourseStats(ctx context.Context) ([]types.CourseStats, error)

	// Ping verifies the store is reachable; used by the health endpoint.
	Ping(ctx context.Context) error

	// Close releases the underlying client; called once at shutdown.
	Close(ctx context.Context) error
}
