package categories_test

import (
	"context"
	"testing"

	"github.com/campuskit/coursecycle/pkg/models"
	"github.com/campuskit/coursecycle/pkg/protocol"
	"github.com/campuskit/coursecycle/pkg/triggers/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, settings map[string]any, categoryID int64) protocol.TriggerVerdict {
	t.Helper()

	verdict, err := categories.New().CheckCourse(context.Background(), protocol.CheckRequest{
		Course:   &models.Course{ID: 1, CategoryID: categoryID},
		Settings: settings,
	})
	require.NoError(t, err)

	return verdict
}

func TestSelectsMemberOfListedCategory(t *testing.T) {
	settings := map[string]any{"categories": "3, 7"}

	assert.Equal(t, protocol.VerdictSelect, check(t, settings, 7))
	assert.Equal(t, protocol.VerdictNext, check(t, settings, 9))
}

func TestExcludeModeVetoesListedCategory(t *testing.T) {
	settings := map[string]any{"categories": "3", "exclude": true}

	assert.Equal(t, protocol.VerdictExclude, check(t, settings, 3))
	assert.Equal(t, protocol.VerdictSelect, check(t, settings, 9))
}

func TestEmptyListPassesEverything(t *testing.T) {
	assert.Equal(t, protocol.VerdictNext, check(t, map[string]any{"categories": ""}, 3))
}

func TestCandidateFilterOnlyInInclusionMode(t *testing.T) {
	trigger := categories.New()

	filter, err := trigger.CandidateFilter(context.Background(), nil, map[string]any{"categories": "3"})
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.True(t, filter.Match(&models.Course{CategoryID: 3}))
	assert.False(t, filter.Match(&models.Course{CategoryID: 4}))

	filter, err = trigger.CandidateFilter(context.Background(), nil, map[string]any{"categories": "3", "exclude": true})
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestValidateSettings(t *testing.T) {
	trigger := categories.New()

	assert.Empty(t, trigger.ValidateSettings(map[string]any{"categories": "1,2,3"}))
	assert.NotEmpty(t, trigger.ValidateSettings(map[string]any{}))
	assert.NotEmpty(t, trigger.ValidateSettings(map[string]any{"categories": "1,x"}))
}
