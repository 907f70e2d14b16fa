package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campuskit/coursecycle/pkg/models"
)

// SettingsRepository handles per-instance subplugin settings.
type SettingsRepository struct {
	db *sql.DB
}

func (r *SettingsRepository) Upsert(ctx context.Context, instanceID string, kind models.SubpluginKind, name, value string) error {
	query := `
		INSERT INTO settings (instance_id, kind, name, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id, kind, name) DO UPDATE SET value = EXCLUDED.value
	`

	_, err := r.db.ExecContext(ctx, query, instanceID, kind, name, value)
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}

	return nil
}

func (r *SettingsRepository) GetAll(ctx context.Context, instanceID string, kind models.SubpluginKind) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, value FROM settings WHERE instance_id = $1 AND kind = $2", instanceID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	settings := make(map[string]string)

	for rows.Next() {
		var name, value string

		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}

		settings[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return settings, nil
}

func (r *SettingsRepository) DeleteByInstance(ctx context.Context, instanceID string, kind models.SubpluginKind) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM settings WHERE instance_id = $1 AND kind = $2", instanceID, kind,
	)
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}

	return nil
}
