// Package protocol defines the interfaces and contracts for pluggable
// trigger and step subplugins.
package protocol

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/models"
)

// TriggerVerdict is the outcome of one trigger's evaluation of one course.
type TriggerVerdict string

const (
	// VerdictNext passes the course through to the next workflow in
	// sort order; this workflow does not select it.
	VerdictNext TriggerVerdict = "next"
	// VerdictExclude removes the course from the rest of this selection pass.
	VerdictExclude TriggerVerdict = "exclude"
	// VerdictSelect votes for selecting the course into this workflow.
	VerdictSelect TriggerVerdict = "select"
)

// CheckRequest carries everything a trigger needs to evaluate one course.
type CheckRequest struct {
	Course   *models.Course
	Instance *models.TriggerInstance
	Settings map[string]any
}

// TriggerStrategy is the executable behavior behind a trigger instance.
// Strategies are stateless; per-instance configuration arrives through
// the request's Settings.
type TriggerStrategy interface {
	// Name is the subplugin type name instances reference.
	Name() string

	// Manual triggers are never auto-evaluated by the selection pass.
	Manual() bool

	// CheckCourse evaluates one candidate course.
	CheckCourse(ctx context.Context, req CheckRequest) (TriggerVerdict, error)

	// CandidateFilter contributes an optional narrowing filter to the
	// candidate query. Returning nil contributes nothing.
	CandidateFilter(ctx context.Context, instance *models.TriggerInstance, settings map[string]any) (*catalog.Filter, error)

	// ValidateSettings returns human-readable problems with the given
	// settings, used at import/configuration time. Empty means valid.
	ValidateSettings(settings map[string]any) []string

	// Settings declares the configuration parameters instances of this
	// trigger accept.
	Settings() []SettingDescriptor
}
