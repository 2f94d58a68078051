// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/possync/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "possync",
		Usage:   "Local-first point-of-sale terminal with background synchronization",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the local HTTP façade and the sync engine",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run local database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations(ctx)
				},
			},
			{
				Name:  "sync",
				Usage: "Drain the outbox queue once and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSync(ctx)
				},
			},
			{
				Name:  "status",
				Usage: "Show outbox queue counters",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunStatus(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "retry",
				Usage: "Reset a failed or conflicted command to pending",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Command id to retry",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRetry(ctx, cmd.String("id"))
				},
			},
			{
				Name:  "catalog-pull",
				Usage: "Pull catalog changes from the central server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Ignore the watermark and refetch the whole catalog",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCatalogPull(ctx, cmd.Bool("reset"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
