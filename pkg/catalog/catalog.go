// Package catalog defines the course-catalog boundary consumed by the engine.
// The catalog is an external collaborator; the engine only reads from it.
package catalog

import (
	"context"
	"errors"

	"github.com/campuskit/coursecycle/pkg/models"
)

// ErrCourseNotFound indicates a course id resolves to no catalog entry.
var ErrCourseNotFound = errors.New("course not found")

// Filter is a narrowing predicate contributed by a trigger to the
// candidate query. Where/Params compose conjunctively in SQL-backed
// catalogs ("?" placeholders); Match is the in-memory equivalent used
// by catalogs that cannot evaluate SQL fragments.
type Filter struct {
	Where  string
	Params []any
	Match  func(course *models.Course) bool
}

// Query narrows the candidate recordset for one workflow's selection pass.
type Query struct {
	ExcludeIDs []int64
	Filters    []Filter
}

// Catalog provides read access to the external course inventory.
type Catalog interface {
	// GetCourse returns ErrCourseNotFound when the id resolves to nothing.
	GetCourse(ctx context.Context, id int64) (*models.Course, error)

	// Candidates returns all courses matching every filter and none of
	// the excluded ids, in stable id order.
	Candidates(ctx context.Context, query Query) ([]*models.Course, error)

	// SiteCourseID identifies the site root course, excluded from
	// selection unless a workflow opts in.
	SiteCourseID() int64
}

// IsCourseNotFound reports whether err wraps ErrCourseNotFound.
func IsCourseNotFound(err error) bool {
	return errors.Is(err, ErrCourseNotFound)
}

// SecurityContextProvider resolves a course to its authorization scope.
// The engine makes no decision on the scope; it is only attached to
// process views.
type SecurityContextProvider interface {
	ContextFor(ctx context.Context, courseID int64) (string, error)
}
