package process

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/protocol"
)

// scratchData scopes the process-data repository to one process, giving
// step strategies a plain key/value view.
type scratchData struct {
	repository persistence.ProcessDataRepository
	processID  string
}

var _ protocol.ProcessData = (*scratchData)(nil)

func (d *scratchData) Get(ctx context.Context, key string) (string, bool, error) {
	return d.repository.Get(ctx, d.processID, key)
}

func (d *scratchData) Set(ctx context.Context, key, value string) error {
	return d.repository.Set(ctx, d.processID, key, value)
}

// DataFor exposes a process's scratch store to callers outside the
// manager, e.g. interactive continuation handlers.
func DataFor(repository persistence.ProcessDataRepository, processID string) protocol.ProcessData {
	return &scratchData{repository: repository, processID: processID}
}
