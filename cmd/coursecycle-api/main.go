package main

import (
	"context"
	"os"

	"github.com/campuskit/coursecycle/pkg/cmd"
	"github.com/campuskit/coursecycle/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	root := &cli.Command{
		Name:                  "coursecycle-api",
		Usage:                 "Manage course-lifecycle workflows over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (postgres:// or memory://)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL backing the delay ledger (SQL ledger when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.Int64Flag{
				Name:    "site-course-id",
				Usage:   "Course id of the site root course, excluded from selection",
				Value:   1,
				Sources: cli.EnvVars("SITE_COURSE_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "initializing coursecycle API")

			persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persist.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "coursecycle-api", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "failed to close event bus", "error", err)
				}
			}()

			reg := cmd.NewRegistry(logger, eventBus)
			courseCatalog := cmd.NewCatalog(ctx, logger, persist, command.Int64("site-course-id"))
			ledger := cmd.NewDelayLedger(command.String("redis-url"), persist, logger)

			api := NewAPI(logger, persist, reg, courseCatalog, ledger, eventBus)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := root.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
