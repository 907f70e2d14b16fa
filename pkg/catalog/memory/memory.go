// Package memory provides an in-memory course catalog for tests and
// local development.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
)

// Catalog implements catalog.Catalog over an in-memory course map.
type Catalog struct {
	mu           sync.RWMutex
	courses      map[int64]*models.Course
	siteCourseID int64
}

// NewCatalog creates an empty in-memory catalog. The site course id
// defaults to 1.
func NewCatalog() *Catalog {
	return &Catalog{
		courses:      make(map[int64]*models.Course),
		siteCourseID: 1,
	}
}

// Add inserts or replaces a course.
func (c *Catalog) Add(course *models.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *course
	c.courses[course.ID] = &copied
}

// Remove deletes a course, simulating out-of-band catalog deletion.
func (c *Catalog) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.courses, id)
}

// SetSiteCourseID overrides the site root course id.
func (c *Catalog) SetSiteCourseID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.siteCourseID = id
}

func (c *Catalog) GetCourse(_ context.Context, id int64) (*models.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	course, ok := c.courses[id]
	if !ok {
		return nil, catalog.ErrCourseNotFound
	}

	copied := *course

	return &copied, nil
}

// Candidates applies the in-memory Match predicate of each filter; SQL
// fragments are ignored here since filtering happens in Go.
func (c *Catalog) Candidates(_ context.Context, query catalog.Query) ([]*models.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	excluded := make(map[int64]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	candidates := make([]*models.Course, 0, len(c.courses))

	for id, course := range c.courses {
		if _, skip := excluded[id]; skip {
			continue
		}

		if !matchesAll(course, query.Filters) {
			continue
		}

		copied := *course
		candidates = append(candidates, &copied)
	}

	slices.SortFunc(candidates, func(a, b *models.Course) int {
		return int(a.ID - b.ID)
	})

	return candidates, nil
}

func (c *Catalog) SiteCourseID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.siteCourseID
}

func matchesAll(course *models.Course, filters []catalog.Filter) bool {
	for _, filter := range filters {
		if filter.Match != nil && !filter.Match(course) {
			return false
		}
	}

	return true
}
