package models

import "time"

// Course is the external catalog entity driven through workflows. The
// catalog owns these records; the engine only reads them.
type Course struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	ShortName    string    `json:"short_name"`
	CategoryID   int64     `json:"category_id"`
	TimeCreated  time.Time `json:"time_created"`
	TimeAccessed time.Time `json:"time_accessed"`
}

// StandInCourse builds a minimal stand-in for a course that was deleted
// out-of-band while a process was in flight. Steps must tolerate the
// absent fields.
func StandInCourse(id int64) *Course {
	return &Course{ID: id}
}

// Deleted reports whether the course is a stand-in for a missing entity.
func (c *Course) Deleted() bool {
	return c.FullName == "" && c.ShortName == "" && c.CategoryID == 0
}
