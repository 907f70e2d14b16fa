// Package idlecourses selects courses nobody has accessed for a
// configurable number of days.
package idlecourses

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

const (
	// Name is the subplugin type name instances reference.
	Name = "idlecourses"

	settingDays = "days"
	defaultDays = 365
)

// Trigger selects courses whose last access is older than the
// configured cutoff. The cutoff also narrows the candidate query so
// busy courses never reach per-course evaluation.
type Trigger struct {
	now func() time.Time
}

func New() *Trigger {
	return &Trigger{now: time.Now}
}

// WithNow overrides the clock, for tests.
func (t *Trigger) WithNow(now func() time.Time) *Trigger {
	t.now = now

	return t
}

func (t *Trigger) Name() string { return Name }
func (t *Trigger) Manual() bool { return false }

func (t *Trigger) CheckCourse(_ context.Context, req protocol.CheckRequest) (protocol.TriggerVerdict, error) {
	cutoff := t.cutoff(req.Settings)

	// A course that has never been accessed counts from its creation.
	accessed := req.Course.TimeAccessed
	if accessed.IsZero() {
		accessed = req.Course.TimeCreated
	}

	if accessed.Before(cutoff) {
		return protocol.VerdictSelect, nil
	}

	return protocol.VerdictNext, nil
}

func (t *Trigger) CandidateFilter(_ context.Context, _ *models.TriggerInstance, settings map[string]any) (*catalog.Filter, error) {
	cutoff := t.cutoff(settings)

	return &catalog.Filter{
		Where:  "GREATEST(time_accessed, time_created) < ?",
		Params: []any{cutoff},
		Match: func(course *models.Course) bool {
			accessed := course.TimeAccessed
			if accessed.IsZero() {
				accessed = course.TimeCreated
			}

			return accessed.Before(cutoff)
		},
	}, nil
}

func (t *Trigger) ValidateSettings(settings map[string]any) []string {
	days, ok := settings[settingDays]
	if !ok {
		return nil
	}

	if parsed, valid := toDays(days); !valid || parsed < 1 {
		return []string{fmt.Sprintf("setting %q must be a positive number of days", settingDays)}
	}

	return nil
}

func (t *Trigger) Settings() []protocol.SettingDescriptor {
	return []protocol.SettingDescriptor{
		{
			Name:        settingDays,
			Type:        protocol.SettingTypeInt,
			Description: "Courses untouched for this many days are selected.",
		},
	}
}

func (t *Trigger) cutoff(settings map[string]any) time.Time {
	days := int64(defaultDays)
	if raw, ok := settings[settingDays]; ok {
		if parsed, valid := toDays(raw); valid && parsed >= 1 {
			days = parsed
		}
	}

	return t.now().UTC().AddDate(0, 0, -int(days))
}

func toDays(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
