package main

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one selection and advancement pass, then exit",
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("run")

			rt := newRuntime(ctx, command, logger)
			defer rt.close(ctx)

			return rt.pass(ctx)
		},
	}
}
