package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/app"
	"github.com/allisson/possync/internal/config"
)

// RunRetry resets a failed or conflicted command to pending and drains the
// queue so the retry is attempted immediately.
func RunRetry(ctx context.Context, idStr string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid command id %q: %w", idStr, err)
	}

	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	dispatcher, err := container.Dispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	if err := dispatcher.RetryCommand(ctx, id); err != nil {
		return fmt.Errorf("failed to retry command: %w", err)
	}

	logger.Info("command reset to pending", slog.String("command_id", id.String()))

	if err := dispatcher.ProcessQueue(ctx, cfg.WorkspaceID); err != nil {
		return fmt.Errorf("failed to drain queue: %w", err)
	}

	return nil
}
