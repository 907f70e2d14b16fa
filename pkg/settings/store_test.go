package settings_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence/memory"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/campuskit/coursecycle/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settingsTrigger struct{}

func (settingsTrigger) Name() string { return "idlecourses" }
func (settingsTrigger) Manual() bool { return false }

func (settingsTrigger) CheckCourse(context.Context, protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	return protocol.VerdictSelect, nil
}

func (settingsTrigger) CandidateFilter(context.Context, *models.TriggerInstance, map[string]any) (*catalog.Filter, error) {
	return nil, nil
}

func (settingsTrigger) ValidateSettings(map[string]any) []string { return nil }

func (settingsTrigger) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{Name: "days", Type: protocol.SettingTypeInt, Required: true},
		{Name: "label", Type: protocol.SettingTypeString},
		{Name: "grace", Type: protocol.SettingTypeDuration},
		{Name: "dryrun", Type: protocol.SettingTypeBool},
	}
}

func newStore(t *testing.T) *settings.Store {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterTrigger(settingsTrigger{})

	store := memory.NewPersistence()

	return settings.NewStore(store.SettingsRepository(), reg, slog.Default())
}

func TestStore_SaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days":   "120",
		"label":  "  idle \t",
		"grace":  3600,
		"dryrun": "true",
	})
	require.NoError(t, err)

	values, err := store.Get(ctx, "inst-1", models.KindTrigger, "idlecourses")
	require.NoError(t, err)

	assert.Equal(t, int64(120), values["days"])
	assert.Equal(t, "idle", values["label"])
	assert.Equal(t, time.Hour, values["grace"])
	assert.Equal(t, true, values["dryrun"])
}

func TestStore_UndeclaredKeyIgnored(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days":    7,
		"unknown": "whatever",
	})
	require.NoError(t, err)

	values, err := store.Get(ctx, "inst-1", models.KindTrigger, "idlecourses")
	require.NoError(t, err)

	assert.Equal(t, int64(7), values["days"])
	assert.NotContains(t, values, "unknown")
}

func TestStore_AbsentKeyKeepsStoredValue(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days": 30, "label": "first",
	}))

	// Second save without "label" must not null it out.
	require.NoError(t, store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days": 60,
	}))

	values, err := store.Get(ctx, "inst-1", models.KindTrigger, "idlecourses")
	require.NoError(t, err)

	assert.Equal(t, int64(60), values["days"])
	assert.Equal(t, "first", values["label"])
}

func TestStore_InvalidValueRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days": "not-a-number",
	})
	require.Error(t, err)

	err = store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{
		"days": map[string]any{"nested": true},
	})
	require.Error(t, err)
}

func TestStore_UnknownSubplugin(t *testing.T) {
	store := newStore(t)

	err := store.Save(context.Background(), "inst-1", models.KindTrigger, "missing", map[string]any{})
	require.ErrorIs(t, err, registry.ErrNotRegistered)
}

func TestStore_Remove(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "inst-1", models.KindTrigger, "idlecourses", map[string]any{"days": 10}))
	require.NoError(t, store.Remove(ctx, "inst-1", models.KindTrigger))

	values, err := store.Get(ctx, "inst-1", models.KindTrigger, "idlecourses")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStore_UnknownKindPanics(t *testing.T) {
	store := newStore(t)

	assert.Panics(t, func() {
		_ = store.Save(context.Background(), "inst-1", models.SubpluginKind("bogus"), "idlecourses", nil)
	})
}
