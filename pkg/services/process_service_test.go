package services_test

import (
	"context"
	"log/slog"
	"testing"

	catalogmemory "github.com/campuskit/coursecycle/pkg/catalog/memory"
	"github.com/campuskit/coursecycle/pkg/models"
	persistencememory "github.com/campuskit/coursecycle/pkg/persistence/memory"
	"github.com/campuskit/coursecycle/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecurity struct {
	scope string
}

func (s *staticSecurity) ContextFor(_ context.Context, _ int64) (string, error) {
	return s.scope, nil
}

func TestListProcessesAttachesCourseContext(t *testing.T) {
	ctx := context.Background()
	persist := persistencememory.NewPersistence()
	courseCatalog := catalogmemory.NewCatalog()
	courseCatalog.Add(&models.Course{ID: 42, FullName: "Algebra", ShortName: "alg"})

	service := services.NewProcessService(persist, courseCatalog, &staticSecurity{scope: "category:7"}, slog.Default())

	require.NoError(t, persist.ProcessRepository().Save(ctx, &models.Process{
		WorkflowID: "wf-1", CourseID: 42, StepIndex: 2,
	}))
	require.NoError(t, persist.ProcessRepository().Save(ctx, &models.Process{
		WorkflowID: "wf-1", CourseID: 99, StepIndex: 1,
	}))

	views, err := service.ListProcesses(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byCourse := make(map[int64]*models.ProcessView, len(views))
	for _, view := range views {
		byCourse[view.CourseID] = view
	}

	assert.Equal(t, "Algebra", byCourse[42].CourseFullName)
	assert.Equal(t, "category:7", byCourse[42].SecurityContext)

	// Course 99 is gone from the catalog; the view still lists the
	// process, just without enrichment.
	assert.Empty(t, byCourse[99].CourseFullName)
	assert.Empty(t, byCourse[99].SecurityContext)
}

func TestDeleteErrorReleasesCourse(t *testing.T) {
	ctx := context.Background()
	persist := persistencememory.NewPersistence()
	courseCatalog := catalogmemory.NewCatalog()

	service := services.NewProcessService(persist, courseCatalog, nil, slog.Default())

	require.NoError(t, persist.ProcessErrorRepository().Insert(ctx, &models.ProcessError{
		CourseID: 42, WorkflowID: "wf-1", StepIndex: 3, Message: "boom",
	}))

	errors, err := service.ListErrors(ctx)
	require.NoError(t, err)
	require.Len(t, errors, 1)

	require.NoError(t, service.DeleteError(ctx, errors[0].ID))

	ids, err := persist.ProcessErrorRepository().CourseIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
