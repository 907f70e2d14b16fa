// Package memory provides an in-memory persistence implementation used
// by tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
)

// Persistence implements persistence.Persistence with mutex-guarded maps.
type Persistence struct {
	mu sync.RWMutex

	workflows     map[string]*models.Workflow
	triggers      map[string]*models.TriggerInstance
	steps         map[string]*models.StepInstance
	processes     map[string]*models.Process
	processErrors map[string]*models.ProcessError
	processData   map[string]map[string]string
	delays        map[string]*models.DelayEntry
	settings      map[string]map[string]string
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:     make(map[string]*models.Workflow),
		triggers:      make(map[string]*models.TriggerInstance),
		steps:         make(map[string]*models.StepInstance),
		processes:     make(map[string]*models.Process),
		processErrors: make(map[string]*models.ProcessError),
		processData:   make(map[string]map[string]string),
		delays:        make(map[string]*models.DelayEntry),
		settings:      make(map[string]map[string]string),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return &workflowRepository{store: p}
}

func (p *Persistence) TriggerRepository() persistence.TriggerRepository {
	return &triggerRepository{store: p}
}

func (p *Persistence) StepRepository() persistence.StepRepository {
	return &stepRepository{store: p}
}

func (p *Persistence) ProcessRepository() persistence.ProcessRepository {
	return &processRepository{store: p}
}

func (p *Persistence) ProcessErrorRepository() persistence.ProcessErrorRepository {
	return &processErrorRepository{store: p}
}

func (p *Persistence) ProcessDataRepository() persistence.ProcessDataRepository {
	return &processDataRepository{store: p}
}

func (p *Persistence) DelayRepository() persistence.DelayRepository {
	return &delayRepository{store: p}
}

func (p *Persistence) SettingsRepository() persistence.SettingsRepository {
	return &settingsRepository{store: p}
}

// HealthCheck always succeeds for the in-memory store.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close performs no cleanup for the in-memory store.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func delayKey(courseID int64, workflowID string) string {
	return fmt.Sprintf("%d|%s", courseID, workflowID)
}

func settingsKey(instanceID string, kind models.SubpluginKind) string {
	return instanceID + "|" + string(kind)
}
