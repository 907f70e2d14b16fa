// Package postgresql provides the PostgreSQL persistence implementation
// for workflows, subplugin instances, processes, delays and settings.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/persistence/sqlbase"
	_ "github.com/lib/pq" // postgres driver
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	workflowRepo     *WorkflowRepository
	triggerRepo      *TriggerRepository
	stepRepo         *StepRepository
	processRepo      *ProcessRepository
	processErrorRepo *ProcessErrorRepository
	processDataRepo  *ProcessDataRepository
	delayRepo        *DelayRepository
	settingsRepo     *SettingsRepository
}

// NewPersistence connects, migrates and returns a PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:               database,
		logger:           logger,
		workflowRepo:     &WorkflowRepository{db: database, logger: logger},
		triggerRepo:      &TriggerRepository{db: database, logger: logger},
		stepRepo:         &StepRepository{db: database, logger: logger},
		processRepo:      &ProcessRepository{db: database, logger: logger},
		processErrorRepo: &ProcessErrorRepository{db: database, logger: logger},
		processDataRepo:  &ProcessDataRepository{db: database},
		delayRepo:        &DelayRepository{db: database, logger: logger},
		settingsRepo:     &SettingsRepository{db: database},
	}, nil
}

// DB exposes the underlying handle, e.g. to share it with the SQL
// course catalog.
func (p *Persistence) DB() *sql.DB {
	return p.db
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) TriggerRepository() persistence.TriggerRepository {
	return p.triggerRepo
}

func (p *Persistence) StepRepository() persistence.StepRepository {
	return p.stepRepo
}

func (p *Persistence) ProcessRepository() persistence.ProcessRepository {
	return p.processRepo
}

func (p *Persistence) ProcessErrorRepository() persistence.ProcessErrorRepository {
	return p.processErrorRepo
}

func (p *Persistence) ProcessDataRepository() persistence.ProcessDataRepository {
	return p.processDataRepo
}

func (p *Persistence) DelayRepository() persistence.DelayRepository {
	return p.delayRepo
}

func (p *Persistence) SettingsRepository() persistence.SettingsRepository {
	return p.settingsRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
