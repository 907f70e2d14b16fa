package memory

import (
	"context"
	"slices"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/google/uuid"
)

type delayRepository struct {
	store *Persistence
}

func (r *delayRepository) Upsert(_ context.Context, entry *models.DelayEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := delayKey(entry.CourseID, entry.WorkflowID)

	if existing, ok := r.store.delays[key]; ok {
		entry.ID = existing.ID
	} else if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	copied := *entry
	r.store.delays[key] = &copied

	return nil
}

func (r *delayRepository) GlobalDelayedUntil(_ context.Context, courseID int64) (time.Time, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entry, ok := r.store.delays[delayKey(courseID, "")]
	if !ok {
		return time.Time{}, nil
	}

	return entry.DelayedUntil, nil
}

func (r *delayRepository) WorkflowDelayedUntil(_ context.Context, courseID int64, workflowID string) (time.Time, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entry, ok := r.store.delays[delayKey(courseID, workflowID)]
	if !ok {
		return time.Time{}, nil
	}

	return entry.DelayedUntil, nil
}

func (r *delayRepository) GloballyDelayedCourses(_ context.Context, now time.Time) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0)

	for _, entry := range r.store.delays {
		if entry.Global() && entry.DelayedUntil.After(now) {
			ids = append(ids, entry.CourseID)
		}
	}

	slices.Sort(ids)

	return ids, nil
}

func (r *delayRepository) DelayedCoursesForWorkflow(_ context.Context, workflowID string, now time.Time) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0)

	for _, entry := range r.store.delays {
		if entry.WorkflowID == workflowID && entry.DelayedUntil.After(now) {
			ids = append(ids, entry.CourseID)
		}
	}

	slices.Sort(ids)

	return ids, nil
}

func (r *delayRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64

	for key, entry := range r.store.delays {
		if !entry.DelayedUntil.After(now) {
			delete(r.store.delays, key)
			removed++
		}
	}

	return removed, nil
}
