// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a database.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (storage)
//  2. Returns a function with the exact signature the router needs
//
// Because the inner function "closes over" the outer parameters, it can
// access `storage` even after the factory call has returned.
// This is called a closure. Example:
//
//	router.HandleFunc("POST /api/v1/students/create", student.Create(storage))
//	//                                               ^^^^^^^^^^^^^^^^^^^^^^^
//	//                        Create(storage) is called ONCE at startup.
//	//                        It returns a handler func which is called
//	//                        on EVERY incoming request.
//
// Every handler follows the same flow: read parameters, issue exactly one
// storage call with the request's context, translate the outcome into the
// JSON envelope. Failures are classified at this boundary and nowhere else:
//
//	storage.ErrStudentNotFound                    → 404
//	storage.ErrInvalidStudentID / invalid input   → 400
//	anything else                                 → 500
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openlearn-labs/students-api/internal/storage"
	"github.com/openlearn-labs/students-api/internal/types"
	"github.com/openlearn-labs/students-api/internal/utils/response"
)

// Fixed description strings for the endpoints that report which query
// operators they delegated to the store. The filter endpoint is the one
// exception — its description is built per request by the predicate.
const (
	searchDescription    = "case-insensitive $regex match on name"
	operatorsDescription = "$inc marks by 5, $push \"AI\" to subjects, $set enrolled to true"
	statsDescription     = "$group by course with $sum/$avg/$max/$min on marks, $sort by avgMarks descending"
)

// ─────────────────────────────────────────────────────────────────────────────
// Create handles POST /api/v1/students/create
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Anna", "marks": 82, "course": "CS", "city": "Mumbai",
//	  "subjects": ["Algorithms"], "enrolled": false }
//
// Success response (201 Created): the persisted entity, with the
// store-assigned id and createdAt echoed back.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	500 Internal     — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func Create(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		created, err := store.CreateStudent(r.Context(), student)
		if err != nil {
			writeStorageError(w, "create student", err)
			return
		}

		slog.Info("student created", slog.String("id", created.ID.Hex()))
		response.WriteJSON(w, http.StatusCreated, response.Entity(created))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateBulk handles POST /api/v1/students/create/bulk
// Inserts a JSON array of students in a single store call.
//
// Validation runs over every element BEFORE anything is inserted — one
// bad element rejects the whole batch with a 400 naming its position.
//
// Success response (201 Created): count + the inserted entities.
// ─────────────────────────────────────────────────────────────────────────────
func CreateBulk(store storage.Storage) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating students in bulk")

		var students []types.Student
		err := json.NewDecoder(r.Body).Decode(&students)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if len(students) == 0 {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body must be a non-empty array")))
			return
		}

		// Validate every element up front; the batch is all-or-nothing
		// at this layer.
		for i, s := range students {
			if err := validate.Struct(s); err != nil {
				validateErrs := err.(validator.ValidationErrors)
				resp := response.ValidationError(validateErrs)
				resp.Error = "student[" + strconv.Itoa(i) + "]: " + resp.Error
				response.WriteJSON(w, http.StatusBadRequest, resp)
				return
			}
		}

		created, err := store.CreateStudents(r.Context(), students)
		if err != nil {
			writeStorageError(w, "create students in bulk", err)
			return
		}

		slog.Info("students created", slog.Int("count", len(created)))
		response.WriteJSON(w, http.StatusCreated, response.Listing(created, len(created)))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/v1/students/get
// Returns every student, newest first (createdAt descending), together
// with the total count.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			writeStorageError(w, "get students", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Listing(students, len(students)))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/v1/students/get/{id}
// Fetches a single student by its ObjectID hex string.
//
// Error responses:
//
//	400 Bad Request  — id is not a valid 24-char ObjectID hex string
//	404 Not Found    — no student with that id
//	500 Internal     — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.PathValue("id") extracts the {id} segment from the URL.
		// This works because Go 1.22+ supports named path parameters in
		// the ServeMux pattern: "GET /api/v1/students/get/{id}"
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, "get student", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Entity(student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Filter handles GET /api/v1/students/filter?minMarks=&courses=&city=
// All three query parameters are optional:
//
//	minMarks — integer threshold: marks ≥ minMarks
//	courses  — comma-separated list: course must be one of them ($in)
//	city     — exact city name
//
// The predicate composition (including the city/minMarks $or
// substitution) lives in the storage layer's predicate builder; the
// response's "description" field reports exactly which operators were
// applied.
// ─────────────────────────────────────────────────────────────────────────────
func Filter(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("filtering students", slog.String("query", r.URL.RawQuery))

		filter, err := parseFilterQuery(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		students, description, err := store.FilterStudents(r.Context(), filter)
		if err != nil {
			writeStorageError(w, "filter students", err)
			return
		}

		resp := response.Listing(students, len(students))
		resp.Description = description
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Search handles GET /api/v1/students/search/{name}
// Case-insensitive pattern match on the name field, evaluated by the
// store's $regex. "ann" matches both "Anna" and "ANNE".
//
// Error responses:
//
//	400 Bad Request  — the fragment is not a valid pattern
//	500 Internal     — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func Search(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		slog.Info("searching students by name", slog.String("name", name))

		students, err := store.SearchStudentsByName(r.Context(), name)
		if err != nil {
			writeStorageError(w, "search students", err)
			return
		}

		resp := response.Listing(students, len(students))
		resp.Description = searchDescription
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/v1/students/update/{id}
// Replaces the mutable fields of an existing student with the request
// body. The payload is validated with the same rules as creation; id
// and createdAt are never touched.
//
// Success response (200 OK): the post-update entity.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty body, or validation failure
//	404 Not Found    — no student with that id
//	500 Internal     — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, student)
		if err != nil {
			writeStorageError(w, "update student", err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Entity(updated))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateOperators handles PUT /api/v1/students/update/{id}/operators
// Takes no body. Applies the fixed operator update in one atomic store
// call: marks += 5, subjects gets "AI" appended, enrolled becomes true.
// Calling it twice therefore adds 10 marks and two "AI" entries.
//
// Success response (200 OK): the post-update entity + a description of
// the operators applied.
// ─────────────────────────────────────────────────────────────────────────────
func UpdateOperators(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("applying operator update", slog.String("id", id))

		updated, err := store.ApplyStudentOperators(r.Context(), id)
		if err != nil {
			writeStorageError(w, "apply operator update", err)
			return
		}

		slog.Info("operator update applied", slog.String("id", id))
		resp := response.Entity(updated)
		resp.Description = operatorsDescription
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/v1/students/delete/{id}
// Permanently removes a student and echoes back the deleted entity with
// a confirmation message. Deleting the same id twice yields a 404 the
// second time.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		deleted, err := store.DeleteStudentByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, "delete student", err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		resp := response.Entity(deleted)
		resp.Message = "student deleted successfully"
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Stats handles GET /api/v1/students/stats
// Groups all students by course and returns per-course count, average,
// max and min marks, sorted by average descending. The whole computation
// is one aggregation pipeline on the store side.
// ─────────────────────────────────────────────────────────────────────────────
func Stats(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("computing course statistics")

		stats, err := store.GetCourseStats(r.Context())
		if err != nil {
			writeStorageError(w, "compute course statistics", err)
			return
		}

		resp := response.Listing(stats, len(stats))
		resp.Description = statsDescription
		response.WriteJSON(w, http.StatusOK, resp)
	}
}

// decodeStudent reads and validates a single student payload. On any
// problem it writes the 400 response itself and returns ok=false, so
// callers can simply bail out.
func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	// json.NewDecoder reads from r.Body (the raw bytes sent by the client).
	// Fields in the JSON are matched to struct fields via json:"..." tags.
	err := json.NewDecoder(r.Body).Decode(&student)

	if errors.Is(err, io.EOF) {
		// io.EOF means the body was completely empty — nothing to decode.
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	if err != nil {
		// Any other decode error: malformed JSON, wrong types, etc.
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	// validator.New().Struct(v) checks all validate:"..." tags on v.
	if err := validator.New().Struct(student); err != nil {
		validateErrs := err.(validator.ValidationErrors)
		response.WriteJSON(w, http.StatusBadRequest,
			response.ValidationError(validateErrs))
		return types.Student{}, false
	}

	return student, true
}

// parseFilterQuery extracts the three optional filter parameters.
// A non-integer minMarks is the only rejectable input; absent
// parameters stay absent (MinMarks nil, Courses nil, City "").
func parseFilterQuery(r *http.Request) (types.StudentFilter, error) {
	var filter types.StudentFilter
	q := r.URL.Query()

	if raw := q.Get("minMarks"); raw != "" {
		min, err := strconv.Atoi(raw)
		if err != nil {
			return types.StudentFilter{}, errors.New("invalid minMarks: must be an integer")
		}
		filter.MinMarks = &min
	}

	if raw := q.Get("courses"); raw != "" {
		for _, course := range strings.Split(raw, ",") {
			if course = strings.TrimSpace(course); course != "" {
				filter.Courses = append(filter.Courses, course)
			}
		}
	}

	filter.City = q.Get("city")

	return filter, nil
}

// writeStorageError maps a storage-layer error onto the HTTP status
// taxonomy. Every handler funnels its storage failures through here so
// the mapping lives in exactly one place.
func writeStorageError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrStudentNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	case errors.Is(err, storage.ErrInvalidStudentID),
		errors.Is(err, storage.ErrInvalidNamePattern):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	default:
		slog.Error("storage failure",
			slog.String("op", op),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}
