// Package settings stores validated per-instance configuration for
// trigger and step subplugins.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/registry"
	"github.com/xeipuuv/gojsonschema"
)

// Store cleans and persists subplugin instance settings. Only settings
// declared by the resolved strategy are stored; undeclared keys in raw
// input are silently ignored for forward compatibility.
type Store struct {
	repository persistence.SettingsRepository
	registry   *registry.Registry
	logger     *slog.Logger
}

// NewStore creates a settings store.
func NewStore(repository persistence.SettingsRepository, reg *registry.Registry, logger *slog.Logger) *Store {
	return &Store{
		repository: repository,
		registry:   reg,
		logger:     logger,
	}
}

// Save extracts every declared setting present in raw, validates the
// raw input against a schema synthesized from the declared descriptors,
// cleans each value per its declared type and upserts it. Declared keys
// absent from raw leave any previously stored value untouched.
func (s *Store) Save(ctx context.Context, instanceID string, kind models.SubpluginKind, subpluginName string, raw map[string]any) error {
	descriptors, err := s.descriptors(kind, subpluginName)
	if err != nil {
		return err
	}

	if err := validateRaw(descriptors, raw); err != nil {
		return err
	}

	for _, descriptor := range descriptors {
		value, ok := raw[descriptor.Name]
		if !ok {
			continue
		}

		cleaned, err := cleanValue(descriptor, value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", descriptor.Name, err)
		}

		err = s.repository.Upsert(ctx, instanceID, kind, descriptor.Name, cleaned)
		if err != nil {
			return fmt.Errorf("failed to store setting %q: %w", descriptor.Name, err)
		}
	}

	return nil
}

// Get returns the stored settings of an instance with the same cleaning
// re-applied on read. Stored values no longer declared by the strategy
// are dropped.
func (s *Store) Get(ctx context.Context, instanceID string, kind models.SubpluginKind, subpluginName string) (map[string]any, error) {
	descriptors, err := s.descriptors(kind, subpluginName)
	if err != nil {
		return nil, err
	}

	stored, err := s.repository.GetAll(ctx, instanceID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	values := make(map[string]any, len(stored))

	for _, descriptor := range descriptors {
		raw, ok := stored[descriptor.Name]
		if !ok {
			continue
		}

		value, err := parseValue(descriptor, raw)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping unparseable stored setting",
				"instance_id", instanceID, "setting", descriptor.Name, "error", err)

			continue
		}

		values[descriptor.Name] = value
	}

	return values, nil
}

// Remove deletes all settings of an instance, used when the instance
// itself is removed.
func (s *Store) Remove(ctx context.Context, instanceID string, kind models.SubpluginKind) error {
	return s.repository.DeleteByInstance(ctx, instanceID, kind)
}

func (s *Store) descriptors(kind models.SubpluginKind, subpluginName string) ([]protocol.SettingDescriptor, error) {
	switch kind {
	case models.KindTrigger:
		strategy, err := s.registry.ResolveTrigger(subpluginName)
		if err != nil {
			return nil, err
		}

		return strategy.Settings(), nil
	case models.KindStep:
		strategy, err := s.registry.ResolveStep(subpluginName)
		if err != nil {
			return nil, err
		}

		return strategy.Settings(), nil
	default:
		panic("settings: unknown subplugin kind " + string(kind))
	}
}

// validateRaw checks the raw input against a JSON schema built from the
// declared descriptors. Undeclared keys pass through unvalidated; they
// are ignored by Save anyway.
func validateRaw(descriptors []protocol.SettingDescriptor, raw map[string]any) error {
	if len(descriptors) == 0 {
		return nil
	}

	properties := make(map[string]any, len(descriptors))
	for _, descriptor := range descriptors {
		properties[descriptor.Name] = map[string]any{"type": schemaTypes(descriptor.Type)}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to validate settings: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, problem := range result.Errors() {
			problems = append(problems, problem.String())
		}

		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}

	return nil
}

func schemaTypes(settingType protocol.SettingType) []string {
	switch settingType {
	case protocol.SettingTypeInt, protocol.SettingTypeDuration:
		return []string{"integer", "number", "string"}
	case protocol.SettingTypeBool:
		return []string{"boolean", "string", "integer"}
	default:
		return []string{"string", "integer", "number", "boolean"}
	}
}

// cleanValue coerces a raw value into its canonical stored string form.
func cleanValue(descriptor protocol.SettingDescriptor, value any) (string, error) {
	switch descriptor.Type {
	case protocol.SettingTypeString:
		text := fmt.Sprintf("%v", value)

		return strings.TrimSpace(strings.Map(stripControl, text)), nil
	case protocol.SettingTypeText:
		return fmt.Sprintf("%v", value), nil
	case protocol.SettingTypeInt, protocol.SettingTypeDuration:
		number, err := toInt64(value)
		if err != nil {
			return "", err
		}

		return strconv.FormatInt(number, 10), nil
	case protocol.SettingTypeBool:
		truth, err := toBool(value)
		if err != nil {
			return "", err
		}

		return strconv.FormatBool(truth), nil
	default:
		return "", fmt.Errorf("unknown setting type %q", descriptor.Type)
	}
}

// parseValue converts a stored string back into its typed value.
func parseValue(descriptor protocol.SettingDescriptor, raw string) (any, error) {
	switch descriptor.Type {
	case protocol.SettingTypeString, protocol.SettingTypeText:
		return raw, nil
	case protocol.SettingTypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case protocol.SettingTypeDuration:
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}

		return time.Duration(seconds) * time.Second, nil
	case protocol.SettingTypeBool:
		return strconv.ParseBool(raw)
	default:
		return nil, fmt.Errorf("unknown setting type %q", descriptor.Type)
	}
}

func stripControl(r rune) rune {
	if r == '\n' || r == '\r' || r == '\t' || r < ' ' {
		return -1
	}

	return r
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case time.Duration:
		return int64(v / time.Second), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot coerce %T to integer", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot coerce %T to boolean", value)
	}
}
