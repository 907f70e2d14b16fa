package adminapprove_test

import (
	"context"
	"testing"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/steps/adminapprove"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scratchData map[string]string

func (d scratchData) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := d[key]

	return value, ok, nil
}

func (d scratchData) Set(_ context.Context, key, value string) error {
	d[key] = value

	return nil
}

func request(data scratchData) protocol.StepRequest {
	return protocol.StepRequest{
		ProcessID: "p-1",
		Course:    &models.Course{ID: 42},
		Instance:  &models.StepInstance{ID: "s-1", Subplugin: adminapprove.Name},
		Data:      data,
	}
}

func TestWaitsUntilDecisionRecorded(t *testing.T) {
	step := adminapprove.New()
	data := scratchData{}

	verdict, err := step.ProcessCourse(context.Background(), request(data))
	require.NoError(t, err)
	assert.Equal(t, protocol.VerdictWaiting, verdict)

	verdict, err = step.ProcessWaitingCourse(context.Background(), request(data))
	require.NoError(t, err)
	assert.Equal(t, protocol.VerdictWaiting, verdict)
}

func TestApprovalProceeds(t *testing.T) {
	step := adminapprove.New()
	data := scratchData{}

	verdict, err := step.HandleInteraction(context.Background(), protocol.InteractionRequest{
		StepRequest: request(data),
		Action:      adminapprove.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.InteractionProceed, verdict)

	// A later batch pass reads the same decision from scratch data.
	stepVerdict, err := step.ProcessWaitingCourse(context.Background(), request(data))
	require.NoError(t, err)
	assert.Equal(t, protocol.VerdictProceed, stepVerdict)
}

func TestRejectionRollsBack(t *testing.T) {
	step := adminapprove.New()
	data := scratchData{}

	verdict, err := step.HandleInteraction(context.Background(), protocol.InteractionRequest{
		StepRequest: request(data),
		Action:      adminapprove.ActionReject,
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.InteractionRollback, verdict)

	stepVerdict, err := step.ProcessWaitingCourse(context.Background(), request(data))
	require.NoError(t, err)
	assert.Equal(t, protocol.VerdictRollback, stepVerdict)
}

func TestEmptyActionKeepsWaiting(t *testing.T) {
	step := adminapprove.New()

	verdict, err := step.HandleInteraction(context.Background(), protocol.InteractionRequest{
		StepRequest: request(scratchData{}),
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.InteractionStillProcessing, verdict)
}

func TestRollbackClearsDecision(t *testing.T) {
	step := adminapprove.New()
	data := scratchData{}

	_, err := step.HandleInteraction(context.Background(), protocol.InteractionRequest{
		StepRequest: request(data),
		Action:      adminapprove.ActionApprove,
	})
	require.NoError(t, err)

	require.NoError(t, step.RollbackCourse(context.Background(), request(data)))

	verdict, err := step.ProcessCourse(context.Background(), request(data))
	require.NoError(t, err)
	assert.Equal(t, protocol.VerdictWaiting, verdict)
}
