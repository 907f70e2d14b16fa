package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/campuskit/coursecycle/pkg/persistence/memory"
	"github.com/campuskit/coursecycle/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL
// scheme. An empty URL runs fully in memory, for local experiments.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case databaseURL == "", strings.HasPrefix(databaseURL, "memory://"):
		logger.WarnContext(ctx, "using in-memory persistence, state is lost on exit")

		return memory.NewPersistence()
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		persist, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return persist
	default:
		panic("unsupported database URL: " + databaseURL)
	}
}
