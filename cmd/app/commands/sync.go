package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/possync/internal/app"
	"github.com/allisson/possync/internal/config"
)

// RunSync drains the outbox queue once and exits. Useful for scripting and
// for pushing the queue through while the server process is not running.
func RunSync(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	dispatcher, err := container.Dispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	if _, err := dispatcher.RecoverInFlight(ctx, cfg.WorkspaceID); err != nil {
		return fmt.Errorf("failed to recover in-flight commands: %w", err)
	}

	if err := dispatcher.ProcessQueue(ctx, cfg.WorkspaceID); err != nil {
		return fmt.Errorf("failed to drain queue: %w", err)
	}

	stats, err := dispatcher.Stats(ctx, cfg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	logger.Info("drain finished",
		slog.Int("pending", stats.Pending),
		slog.Int("failed", stats.Failed),
		slog.Int("conflicts", stats.Conflicts),
	)

	return nil
}
