package postgresql

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/triggers/categories"
	"github.com/campuskit/coursecycle/pkg/triggers/idlecourses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Identifiers in filter fragments are lowercase; SQL keywords and
// function names are uppercase.
var identifierPattern = regexp.MustCompile(`[a-z][a-z0-9_]*`)

func courseColumnSet() map[string]bool {
	columns := make(map[string]bool)

	for _, column := range strings.Split(courseColumns, ",") {
		columns[strings.TrimSpace(column)] = true
	}

	return columns
}

func TestBuiltinFilterFragmentsUseCourseColumns(t *testing.T) {
	columns := courseColumnSet()

	idleFilter, err := idlecourses.New().CandidateFilter(context.Background(), nil, nil)
	require.NoError(t, err)

	categoryFilter, err := categories.New().CandidateFilter(context.Background(), nil,
		map[string]any{"categories": "3, 9"})
	require.NoError(t, err)

	filters := map[string]*catalog.Filter{
		idlecourses.Name: idleFilter,
		categories.Name:  categoryFilter,
	}

	for name, filter := range filters {
		require.NotNil(t, filter)

		for _, identifier := range identifierPattern.FindAllString(filter.Where, -1) {
			assert.True(t, columns[identifier],
				"%s filter references %q, not a courses column", name, identifier)
		}
	}
}

func TestIdleFilterBindsTimestamp(t *testing.T) {
	filter, err := idlecourses.New().CandidateFilter(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, filter.Params, 1)
	assert.IsType(t, time.Time{}, filter.Params[0])
}
