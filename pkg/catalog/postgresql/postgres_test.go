package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/campuskit/coursecycle/pkg/catalog"
	"github.com/campuskit/coursecycle/pkg/catalog/postgresql"
	"github.com/campuskit/coursecycle/pkg/triggers/categories"
	"github.com/campuskit/coursecycle/pkg/triggers/idlecourses"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func setupCatalog(t *testing.T) (*postgresql.Catalog, *sql.DB, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("coursecycle_test"),
			postgres.WithUsername("coursecycle"),
			postgres.WithPassword("coursecycle"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS courses")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		CREATE TABLE courses (
			id BIGINT PRIMARY KEY,
			full_name TEXT NOT NULL,
			short_name TEXT NOT NULL,
			category_id BIGINT NOT NULL,
			time_created TIMESTAMPTZ NOT NULL,
			time_accessed TIMESTAMPTZ NOT NULL
		)`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS courses")
		require.NoError(t, err)

		require.NoError(t, db.Close())
		cancel()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return postgresql.NewCatalog(db, logger, 1), db, ctx
}

func insertCourse(ctx context.Context, t *testing.T, db *sql.DB, id, categoryID int64, created, accessed time.Time) {
	t.Helper()

	_, err := db.ExecContext(ctx, `
		INSERT INTO courses (id, full_name, short_name, category_id, time_created, time_accessed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "Course", "C", categoryID, created, accessed)
	require.NoError(t, err)
}

func TestCandidatesAppliesIdleFilter(t *testing.T) {
	cat, db, ctx := setupCatalog(t)

	now := time.Now().UTC()
	insertCourse(ctx, t, db, 10, 7, now.AddDate(-2, 0, 0), now.AddDate(0, 0, -400))
	insertCourse(ctx, t, db, 11, 7, now.AddDate(-2, 0, 0), now.AddDate(0, 0, -2))

	filter, err := idlecourses.New().CandidateFilter(ctx, nil, nil)
	require.NoError(t, err)

	courses, err := cat.Candidates(ctx, catalog.Query{Filters: []catalog.Filter{*filter}})
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, int64(10), courses[0].ID)
}

func TestCandidatesAppliesCategoryFilterAndExclusions(t *testing.T) {
	cat, db, ctx := setupCatalog(t)

	now := time.Now().UTC()
	insertCourse(ctx, t, db, 20, 7, now, now)
	insertCourse(ctx, t, db, 21, 7, now, now)
	insertCourse(ctx, t, db, 22, 8, now, now)

	filter, err := categories.New().CandidateFilter(ctx, nil, map[string]any{"categories": "7"})
	require.NoError(t, err)

	courses, err := cat.Candidates(ctx, catalog.Query{
		ExcludeIDs: []int64{21},
		Filters:    []catalog.Filter{*filter},
	})
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, int64(20), courses[0].ID)
}

func TestGetCourseNotFound(t *testing.T) {
	cat, _, ctx := setupCatalog(t)

	_, err := cat.GetCourse(ctx, 999)
	assert.True(t, catalog.IsCourseNotFound(err))
}
