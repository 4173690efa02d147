// Package mongodb provides a MongoDB-backed implementation of the
// storage.Storage interface using the official mongo-driver.
//
// WHY MongoDB?
// ────────────
// Every "hard" operation this API offers — case-insensitive regex
// search, $gte/$in/$or filtering, grouped aggregation with avg/max/min —
// is something MongoDB's query engine does natively. This layer only
// translates parameters into filter documents and pipelines and hands
// them over; it never re-implements matching or grouping itself.
//
// One *mongo.Client holds a connection pool and is safe for concurrent
// use by every request goroutine, the same way *sql.DB is.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/openlearn-labs/students-api/internal/config"
	"github.com/openlearn-labs/students-api/internal/storage"
	"github.com/openlearn-labs/students-api/internal/types"
)

// Fixed values of the operator-update endpoint. The endpoint takes no
// body: it always increments marks by 5, appends "AI" to subjects, and
// flips enrolled on.
const (
	operatorMarksIncrement = 5
	operatorSubjectAppend  = "AI"
)

// MongoDB is the concrete implementation of storage.Storage.
type MongoDB struct {
	client   *mongo.Client
	students *mongo.Collection
}

// New connects to the MongoDB deployment named in cfg, verifies the
// connection with a ping, and returns a ready-to-use *MongoDB.
//
// Naming convention: New() acts as a constructor. Go has no constructors,
// so the community convention is a package-level New() function that
// returns an initialised instance (and an error as the second value).
func New(ctx context.Context, cfg *config.Config) (*MongoDB, error) {
	// mongo.Connect starts the driver's connection pool but does not
	// guarantee the server is reachable — that is what the Ping is for.
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	// Fail at startup, not on the first request, if the URI is wrong or
	// the server is down.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	return &MongoDB{
		client:   client,
		students: client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
	}, nil
}

// CreateStudent inserts one document. The identifier and the creation
// timestamp are assigned here — never taken from the request body — so
// the "immutable once assigned" invariant holds by construction.
func (m *MongoDB) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	student.ID = primitive.NewObjectID()
	student.CreatedAt = time.Now().UTC()

	if _, err := m.students.InsertOne(ctx, student); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}

	return student, nil
}

// CreateStudents inserts a batch in a single InsertMany call (ordered,
// the driver default). IDs and timestamps are assigned per document
// before the call so the returned slice is complete without a re-read.
func (m *MongoDB) CreateStudents(ctx context.Context, students []types.Student) ([]types.Student, error) {
	now := time.Now().UTC()

	docs := make([]interface{}, 0, len(students))
	for i := range students {
		students[i].ID = primitive.NewObjectID()
		students[i].CreatedAt = now
		docs = append(docs, students[i])
	}

	if _, err := m.students.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("CreateStudents: insert many: %w", err)
	}

	return students, nil
}

// GetStudents returns every document, newest first.
func (m *MongoDB) GetStudents(ctx context.Context) ([]types.Student, error) {
	// -1 = descending; newest CreatedAt comes first.
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.students.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}

	return drain(ctx, cursor, "GetStudents")
}

// GetStudentByID fetches exactly one document matched by primary key.
func (m *MongoDB) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	var student types.Student
	err = m.students.FindOne(ctx, bson.M{"_id": oid}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrStudentNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return student, nil
}

// FilterStudents runs the predicate built from the optional parameters
// (see studentFilterPredicate in filter.go for the exact composition
// rules) and reports which operators were applied.
func (m *MongoDB) FilterStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, string, error) {
	predicate := studentFilterPredicate(filter)

	cursor, err := m.students.Find(ctx, predicate.Document())
	if err != nil {
		return nil, "", fmt.Errorf("FilterStudents: find: %w", err)
	}

	students, err := drain(ctx, cursor, "FilterStudents")
	if err != nil {
		return nil, "", err
	}

	return students, predicate.Description(), nil
}

// SearchStudentsByName matches the name field against the fragment as a
// case-insensitive regular expression, evaluated by the store.
//
// The fragment is pre-compiled with Go's regexp purely as a validity
// check: an unparsable pattern becomes a clean 400 instead of a driver
// error from the server. Go's syntax is a close subset of the server's
// PCRE, so anything that compiles here passes through unchanged.
func (m *MongoDB) SearchStudentsByName(ctx context.Context, name string) ([]types.Student, error) {
	if _, err := regexp.Compile(name); err != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrInvalidNamePattern, name)
	}

	filter := bson.M{"name": primitive.Regex{Pattern: name, Options: "i"}}

	cursor, err := m.students.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("SearchStudentsByName: find: %w", err)
	}

	return drain(ctx, cursor, "SearchStudentsByName")
}

// UpdateStudentByID replaces every mutable field of an existing document
// with the validated payload and returns the post-update document.
// _id and createdAt are deliberately absent from the $set — they are
// assigned once at creation and never modified.
func (m *MongoDB) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	update := bson.M{"$set": bson.M{
		"name":     student.Name,
		"marks":    student.Marks,
		"course":   student.Course,
		"city":     student.City,
		"subjects": student.Subjects,
		"enrolled": student.Enrolled,
	}}

	return m.findOneAndUpdate(ctx, "UpdateStudentByID", oid, update)
}

// ApplyStudentOperators applies the fixed three-operator update in one
// atomic store call: $inc marks, $push onto subjects, $set enrolled.
func (m *MongoDB) ApplyStudentOperators(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	update := bson.M{
		"$inc":  bson.M{"marks": operatorMarksIncrement},
		"$push": bson.M{"subjects": operatorSubjectAppend},
		"$set":  bson.M{"enrolled": true},
	}

	return m.findOneAndUpdate(ctx, "ApplyStudentOperators", oid, update)
}

// DeleteStudentByID removes a document permanently. FindOneAndDelete
// gives us the document as it was just before deletion, which the API
// echoes back in the confirmation response.
func (m *MongoDB) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	var student types.Student
	err = m.students.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrStudentNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}

	return student, nil
}

// GetCourseStats hands one fixed pipeline to the aggregation engine:
//
//	$group by course → count, $avg/$max/$min of marks
//	$sort by average marks, highest first
//
// No post-processing happens here; the shape of types.CourseStats maps
// straight onto the pipeline's output documents.
func (m *MongoDB) GetCourseStats(ctx context.Context) ([]types.CourseStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgMarks", Value: bson.D{{Key: "$avg", Value: "$marks"}}},
			{Key: "maxMarks", Value: bson.D{{Key: "$max", Value: "$marks"}}},
			{Key: "minMarks", Value: bson.D{{Key: "$min", Value: "$marks"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgMarks", Value: -1}}}},
	}

	cursor, err := m.students.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("GetCourseStats: aggregate: %w", err)
	}

	stats := make([]types.CourseStats, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("GetCourseStats: decode: %w", err)
	}

	return stats, nil
}

// Ping verifies the deployment is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Called once during graceful shutdown.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// findOneAndUpdate runs the shared update-and-return-after flow used by
// both update endpoints.
func (m *MongoDB) findOneAndUpdate(ctx context.Context, op string, oid primitive.ObjectID, update bson.M) (types.Student, error) {
	// ReturnDocument(After) makes the call return the document as it
	// looks after the update, so the handler can echo the new state.
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var student types.Student
	err := m.students.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrStudentNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("%s: update: %w", op, err)
	}

	return student, nil
}

// parseID converts the hex identifier from the URL into an ObjectID,
// mapping a malformed value onto the sentinel the HTTP layer turns
// into a 400.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", storage.ErrInvalidStudentID, id)
	}
	return oid, nil
}

// drain reads every remaining document off a cursor into a slice.
// Always returns a non-nil slice so empty results encode as [] in JSON,
// never null.
func drain(ctx context.Context, cursor *mongo.Cursor, op string) ([]types.Student, error) {
	students := make([]types.Student, 0)
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	return students, nil
}
