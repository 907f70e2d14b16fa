package memory

import (
	"context"
	"slices"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/google/uuid"
)

type processRepository struct {
	store *Persistence
}

func (r *processRepository) GetAll(_ context.Context) ([]*models.Process, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	processes := make([]*models.Process, 0, len(r.store.processes))
	for _, process := range r.store.processes {
		copied := *process
		processes = append(processes, &copied)
	}

	slices.SortFunc(processes, func(a, b *models.Process) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return int(a.CourseID - b.CourseID)
	})

	return processes, nil
}

func (r *processRepository) GetByID(_ context.Context, id string) (*models.Process, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	process, ok := r.store.processes[id]
	if !ok {
		return nil, persistence.ErrProcessNotFound
	}

	copied := *process

	return &copied, nil
}

func (r *processRepository) GetByCourse(_ context.Context, courseID int64) (*models.Process, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, process := range r.store.processes {
		if process.CourseID == courseID {
			copied := *process

			return &copied, nil
		}
	}

	return nil, persistence.ErrProcessNotFound
}

func (r *processRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Process, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	processes := make([]*models.Process, 0)

	for _, process := range r.store.processes {
		if process.WorkflowID != workflowID {
			continue
		}

		copied := *process
		processes = append(processes, &copied)
	}

	slices.SortFunc(processes, func(a, b *models.Process) int {
		return int(a.CourseID - b.CourseID)
	})

	return processes, nil
}

func (r *processRepository) CountByWorkflow(_ context.Context, workflowID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0

	for _, process := range r.store.processes {
		if process.WorkflowID == workflowID {
			count++
		}
	}

	return count, nil
}

func (r *processRepository) CourseIDs(_ context.Context) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0, len(r.store.processes))
	for _, process := range r.store.processes {
		ids = append(ids, process.CourseID)
	}

	slices.Sort(ids)

	return ids, nil
}

func (r *processRepository) Save(_ context.Context, process *models.Process) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// One live process per course, enforced at the store like the
	// unique index in the SQL implementation.
	for id, existing := range r.store.processes {
		if existing.CourseID == process.CourseID && id != process.ID {
			return persistence.ErrProcessExists
		}
	}

	if process.ID == "" {
		process.ID = uuid.NewString()
	}

	if process.CreatedAt.IsZero() {
		process.CreatedAt = time.Now().UTC()
	}

	copied := *process
	r.store.processes[process.ID] = &copied

	return nil
}

func (r *processRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.processes[id]; !ok {
		return persistence.ErrProcessNotFound
	}

	delete(r.store.processes, id)

	return nil
}

type processErrorRepository struct {
	store *Persistence
}

func (r *processErrorRepository) Insert(_ context.Context, processError *models.ProcessError) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if processError.ID == "" {
		processError.ID = uuid.NewString()
	}

	if processError.CreatedAt.IsZero() {
		processError.CreatedAt = time.Now().UTC()
	}

	copied := *processError
	r.store.processErrors[processError.ID] = &copied

	return nil
}

func (r *processErrorRepository) GetAll(_ context.Context) ([]*models.ProcessError, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	processErrors := make([]*models.ProcessError, 0, len(r.store.processErrors))
	for _, processError := range r.store.processErrors {
		copied := *processError
		processErrors = append(processErrors, &copied)
	}

	slices.SortFunc(processErrors, func(a, b *models.ProcessError) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return processErrors, nil
}

func (r *processErrorRepository) CourseIDs(_ context.Context) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0, len(r.store.processErrors))
	for _, processError := range r.store.processErrors {
		ids = append(ids, processError.CourseID)
	}

	slices.Sort(ids)

	return slices.Compact(ids), nil
}

func (r *processErrorRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.processErrors[id]; !ok {
		return persistence.ErrProcessErrorNotFound
	}

	delete(r.store.processErrors, id)

	return nil
}

type processDataRepository struct {
	store *Persistence
}

func (r *processDataRepository) Get(_ context.Context, processID, key string) (string, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	data, ok := r.store.processData[processID]
	if !ok {
		return "", false, nil
	}

	value, ok := data[key]

	return value, ok, nil
}

func (r *processDataRepository) Set(_ context.Context, processID, key, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	data, ok := r.store.processData[processID]
	if !ok {
		data = make(map[string]string)
		r.store.processData[processID] = data
	}

	data[key] = value

	return nil
}

func (r *processDataRepository) DeleteByProcess(_ context.Context, processID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.processData, processID)

	return nil
}
