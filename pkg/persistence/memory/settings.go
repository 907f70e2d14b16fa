package memory

import (
	"context"
	"maps"

	"github.com/campuskit/coursecycle/pkg/models"
)

type settingsRepository struct {
	store *Persistence
}

func (r *settingsRepository) Upsert(_ context.Context, instanceID string, kind models.SubpluginKind, name, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := settingsKey(instanceID, kind)

	settings, ok := r.store.settings[key]
	if !ok {
		settings = make(map[string]string)
		r.store.settings[key] = settings
	}

	settings[name] = value

	return nil
}

func (r *settingsRepository) GetAll(_ context.Context, instanceID string, kind models.SubpluginKind) (map[string]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	settings, ok := r.store.settings[settingsKey(instanceID, kind)]
	if !ok {
		return map[string]string{}, nil
	}

	return maps.Clone(settings), nil
}

func (r *settingsRepository) DeleteByInstance(_ context.Context, instanceID string, kind models.SubpluginKind) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.settings, settingsKey(instanceID, kind))

	return nil
}
