package memory

import (
	"context"
	"slices"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/google/uuid"
)

type workflowRepository struct {
	store *Persistence
}

func (r *workflowRepository) GetAll(_ context.Context) ([]*models.Workflow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(r.store.workflows))
	for _, workflow := range r.store.workflows {
		copied := *workflow
		workflows = append(workflows, &copied)
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return workflows, nil
}

func (r *workflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	workflow, ok := r.store.workflows[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	copied := *workflow

	return &copied, nil
}

func (r *workflowRepository) GetActiveAutomatic(_ context.Context) ([]*models.Workflow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	workflows := make([]*models.Workflow, 0)

	for _, workflow := range r.store.workflows {
		if !workflow.IsActive() || workflow.Manual {
			continue
		}

		copied := *workflow
		workflows = append(workflows, &copied)
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		return a.SortIndex - b.SortIndex
	})

	return workflows, nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}

	copied := *workflow
	r.store.workflows[workflow.ID] = &copied

	return nil
}

func (r *workflowRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.workflows[id]; !ok {
		return persistence.ErrWorkflowNotFound
	}

	delete(r.store.workflows, id)

	return nil
}

func (r *workflowRepository) MaxSortIndex(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	maxIndex := 0

	for _, workflow := range r.store.workflows {
		if workflow.IsActive() && !workflow.Manual && workflow.SortIndex > maxIndex {
			maxIndex = workflow.SortIndex
		}
	}

	return maxIndex, nil
}
