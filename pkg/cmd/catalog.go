package cmd

import (
	"context"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/catalog"
	catalogmemory "github.com/campuskit/coursecycle/pkg/catalog/memory"
	catalogpostgresql "github.com/campuskit/coursecycle/pkg/catalog/postgresql"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/persistence/postgresql"
)

// NewCatalog reads the course inventory from the same PostgreSQL
// database as the persistence layer. In-memory persistence gets an
// empty in-memory catalog.
func NewCatalog(ctx context.Context, logger *slog.Logger, persist persistence.Persistence, siteCourseID int64) catalog.Catalog {
	if pg, ok := persist.(*postgresql.Persistence); ok {
		return catalogpostgresql.NewCatalog(pg.DB(), logger, siteCourseID)
	}

	logger.WarnContext(ctx, "using empty in-memory course catalog")

	return catalogmemory.NewCatalog()
}
