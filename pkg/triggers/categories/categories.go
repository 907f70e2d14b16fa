// Package categories gates selection on a course's category membership.
package categories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

const (
	// Name is the subplugin type name instances reference.
	Name = "categories"

	settingCategories = "categories"
	settingExclude    = "exclude"
)

// Trigger selects courses inside the configured categories, or outside
// them when the exclude flag is set. A course in a listed category with
// exclude on is removed from the whole pass, not just this workflow.
type Trigger struct{}

func New() *Trigger {
	return &Trigger{}
}

func (t *Trigger) Name() string { return Name }
func (t *Trigger) Manual() bool { return false }

func (t *Trigger) CheckCourse(_ context.Context, req protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	ids, err := categoryIDs(req.Settings)
	if err != nil {
		return protocol.VerdictNext, err
	}

	if len(ids) == 0 {
		return protocol.VerdictNext, nil
	}

	member := ids[req.Course.CategoryID]

	if excludeFlag(req.Settings) {
		if member {
			return protocol.VerdictExclude, nil
		}

		return protocol.VerdictSelect, nil
	}

	if member {
		return protocol.VerdictSelect, nil
	}

	return protocol.VerdictNext, nil
}

func (t *Trigger) CandidateFilter(_ context.Context, _ *models.TriggerInstance, settings map[string]any) (*catalog.Filter, error) {
	// Exclusion mode still needs the course evaluated so it can veto
	// the whole pass; only inclusion mode narrows the query.
	if excludeFlag(settings) {
		return nil, nil
	}

	ids, err := categoryIDs(settings)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	placeholders := make([]string, 0, len(ids))
	params := make([]any, 0, len(ids))

	for id := range ids {
		placeholders = append(placeholders, "?")
		params = append(params, id)
	}

	return &catalog.Filter{
		Where:  fmt.Sprintf("category_id IN (%s)", strings.Join(placeholders, ", ")),
		Params: params,
		Match: func(course *models.Course) bool {
			return ids[course.CategoryID]
		},
	}, nil
}

func (t *Trigger) ValidateSettings(settings map[string]any) []string {
	raw, ok := settings[settingCategories]
	if !ok {
		return []string{fmt.Sprintf("setting %q is required", settingCategories)}
	}

	if _, err := parseCategoryList(raw); err != nil {
		return []string{err.Error()}
	}

	return nil
}

func (t *Trigger) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{
			Name:        settingCategories,
			Type:        protocol.SettingTypeString,
			Required:    true,
			Description: "Comma-separated category ids this trigger matches against.",
		},
		{
			Name:        settingExclude,
			Type:        protocol.SettingTypeBool,
			Description: "Invert the match: listed categories are excluded from the pass.",
		},
	}
}

func categoryIDs(settings map[string]any) (map[int64]bool, error) {
	raw, ok := settings[settingCategories]
	if !ok {
		return nil, nil
	}

	return parseCategoryList(raw)
}

func parseCategoryList(raw any) (map[int64]bool, error) {
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("setting %q must be a comma-separated list of category ids", settingCategories)
	}

	ids := make(map[int64]bool)

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %q", part)
		}

		ids[id] = true
	}

	return ids, nil
}

func excludeFlag(settings map[string]any) bool {
	flag, _ := settings[settingExclude].(bool)

	return flag
}
