package main

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func triggerCommand() *cli.Command {
	return &cli.Command{
		Name:  "trigger",
		Usage: "Fire a manual trigger for one course",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "workflow-id",
				Usage:    "Workflow owning the manual trigger",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "trigger-id",
				Usage:    "Manual trigger instance to fire",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "course-id",
				Usage:    "Course to start the process for",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("trigger")

			rt := newRuntime(ctx, command, logger)
			defer rt.close(ctx)

			done, err := rt.workflows.ManualTrigger(ctx,
				command.String("workflow-id"),
				command.String("trigger-id"),
				command.Int64("course-id"))
			if err != nil {
				return err
			}

			if done {
				logger.InfoContext(ctx, "manual trigger fired, process handed to the batch pass")
			} else {
				logger.InfoContext(ctx, "manual trigger fired, a step awaits interaction")
			}

			return nil
		},
	}
}
