package memory

import (
	"context"
	"slices"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/google/uuid"
)

type triggerRepository struct {
	store *Persistence
}

func (r *triggerRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.TriggerInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	instances := make([]*models.TriggerInstance, 0)

	for _, instance := range r.store.triggers {
		if instance.WorkflowID != workflowID {
			continue
		}

		copied := *instance
		instances = append(instances, &copied)
	}

	slices.SortFunc(instances, func(a, b *models.TriggerInstance) int {
		return a.SortIndex - b.SortIndex
	})

	return instances, nil
}

func (r *triggerRepository) GetByID(_ context.Context, id string) (*models.TriggerInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	instance, ok := r.store.triggers[id]
	if !ok {
		return nil, persistence.ErrInstanceNotFound
	}

	copied := *instance

	return &copied, nil
}

func (r *triggerRepository) Save(_ context.Context, instance *models.TriggerInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}

	copied := *instance
	r.store.triggers[instance.ID] = &copied

	return nil
}

func (r *triggerRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.triggers[id]; !ok {
		return persistence.ErrInstanceNotFound
	}

	delete(r.store.triggers, id)

	return nil
}

func (r *triggerRepository) DeleteByWorkflow(_ context.Context, workflowID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, instance := range r.store.triggers {
		if instance.WorkflowID == workflowID {
			delete(r.store.triggers, id)
		}
	}

	return nil
}

type stepRepository struct {
	store *Persistence
}

func (r *stepRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.StepInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	instances := make([]*models.StepInstance, 0)

	for _, instance := range r.store.steps {
		if instance.WorkflowID != workflowID {
			continue
		}

		copied := *instance
		instances = append(instances, &copied)
	}

	slices.SortFunc(instances, func(a, b *models.StepInstance) int {
		return a.SortIndex - b.SortIndex
	})

	return instances, nil
}

func (r *stepRepository) GetByID(_ context.Context, id string) (*models.StepInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	instance, ok := r.store.steps[id]
	if !ok {
		return nil, persistence.ErrInstanceNotFound
	}

	copied := *instance

	return &copied, nil
}

func (r *stepRepository) GetAt(_ context.Context, workflowID string, sortIndex int) (*models.StepInstance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, instance := range r.store.steps {
		if instance.WorkflowID == workflowID && instance.SortIndex == sortIndex {
			copied := *instance

			return &copied, nil
		}
	}

	return nil, persistence.ErrStepNotFound
}

func (r *stepRepository) CountByWorkflow(_ context.Context, workflowID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0

	for _, instance := range r.store.steps {
		if instance.WorkflowID == workflowID {
			count++
		}
	}

	return count, nil
}

func (r *stepRepository) Save(_ context.Context, instance *models.StepInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}

	copied := *instance
	r.store.steps[instance.ID] = &copied

	return nil
}

func (r *stepRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.steps[id]; !ok {
		return persistence.ErrInstanceNotFound
	}

	delete(r.store.steps, id)

	return nil
}

func (r *stepRepository) DeleteByWorkflow(_ context.Context, workflowID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, instance := range r.store.steps {
		if instance.WorkflowID == workflowID {
			delete(r.store.steps, id)
		}
	}

	return nil
}
