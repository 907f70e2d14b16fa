package registry

import (
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/steps/adminapprove"
	"github.com/campuskit/coursecycle/pkg/steps/logstep"
	"github.com/campuskit/coursecycle/pkg/steps/notify"
	"github.com/campuskit/coursecycle/pkg/triggers/categories"
	"github.com/campuskit/coursecycle/pkg/triggers/idlecourses"
	"github.com/campuskit/coursecycle/pkg/triggers/manual"
)

// RegisterBuiltins installs the native subplugin inventory. Deployments
// extend it with their own RegisterTrigger/RegisterStep calls before
// the engine starts.
func RegisterBuiltins(reg *Registry, publisher eventbus.EventPublisher, logger *slog.Logger) {
	reg.RegisterTrigger(idlecourses.New())
	reg.RegisterTrigger(categories.New())
	reg.RegisterTrigger(manual.New())

	reg.RegisterStep(logstep.New())
	reg.RegisterStep(notify.New(publisher, logger))
	reg.RegisterStep(adminapprove.New())
}
