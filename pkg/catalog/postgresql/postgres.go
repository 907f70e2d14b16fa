// Package postgresql provides a course catalog reading the LMS courses
// table. The table is owned by the surrounding learning-management
// application; this catalog never writes to it.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/lib/pq"
)

// Catalog implements catalog.Catalog over PostgreSQL.
type Catalog struct {
	db           *sql.DB
	logger       *slog.Logger
	siteCourseID int64
}

// NewCatalog creates a catalog over an existing database handle.
func NewCatalog(db *sql.DB, logger *slog.Logger, siteCourseID int64) *Catalog {
	return &Catalog{
		db:           db,
		logger:       logger,
		siteCourseID: siteCourseID,
	}
}

const courseColumns = `
	id
  , full_name
  , short_name
  , category_id
  , time_created
  , time_accessed
`

func (c *Catalog) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := scanCourse(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrCourseNotFound
		}

		return nil, fmt.Errorf("failed to query course %d: %w", id, err)
	}

	return course, nil
}

// Candidates composes every filter's SQL fragment conjunctively. Filter
// fragments use "?" placeholders which are rebound to positional "$n"
// parameters here.
func (c *Catalog) Candidates(ctx context.Context, query catalog.Query) ([]*models.Course, error) {
	var (
		conditions []string
		params     []any
	)

	if len(query.ExcludeIDs) > 0 {
		params = append(params, pq.Array(query.ExcludeIDs))
		conditions = append(conditions, "id != ALL($1)")
	}

	for _, filter := range query.Filters {
		if filter.Where == "" {
			continue
		}

		where, rebound := rebind(filter.Where, filter.Params, len(params))
		params = append(params, rebound...)
		conditions = append(conditions, "("+where+")")
	}

	sqlQuery := `SELECT ` + courseColumns + ` FROM courses`
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	sqlQuery += " ORDER BY id"

	rows, err := c.db.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate courses: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	courses := make([]*models.Course, 0)

	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

func (c *Catalog) SiteCourseID() int64 {
	return c.siteCourseID
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course

	err := row.Scan(
		&course.ID,
		&course.FullName,
		&course.ShortName,
		&course.CategoryID,
		&course.TimeCreated,
		&course.TimeAccessed,
	)
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// rebind rewrites "?" placeholders to "$n" starting after offset
// already-bound parameters.
func rebind(where string, params []any, offset int) (string, []any) {
	var builder strings.Builder

	position := offset

	for _, r := range where {
		if r == '?' {
			position++
			builder.WriteString("$" + strconv.Itoa(position))

			continue
		}

		builder.WriteRune(r)
	}

	return builder.String(), params
}
