package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/campuskit/coursecycle/pkg/eventbus"
	"github.com/campuskit/coursecycle/pkg/log"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
)

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run the selection and advancement passes on a schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the pass schedule",
				Value:   "@every 10m",
				Sources: cli.EnvVars("CRON_SCHEDULE"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("daemon")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt := newRuntime(ctx, command, logger)
			defer rt.close(ctx)

			err := eventbus.RegisterLifecycleLog(rt.eventBus, log.WithModule("events"))
			if err != nil {
				return err
			}

			err = rt.eventBus.Subscribe(ctx)
			if err != nil {
				return err
			}

			scheduler := cron.New()

			_, err = scheduler.AddFunc(command.String("schedule"), func() {
				err := rt.pass(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "pass failed", "error", err)
				}
			})
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "daemon started", "schedule", command.String("schedule"))
			scheduler.Start()

			<-ctx.Done()

			logger.InfoContext(ctx, "shutting down, waiting for running pass")
			<-scheduler.Stop().Done()

			return nil
		},
	}
}
