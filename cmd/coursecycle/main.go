// Package main provides the coursecycle engine CLI: one-shot runs, the
// scheduled daemon, and firing manual triggers.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:                  "coursecycle",
		Usage:                 "Run course-lifecycle workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
		Commands: []*cli.Command{
			runCommand(),
			daemonCommand(),
			triggerCommand(),
		},
	}

	err := root.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
