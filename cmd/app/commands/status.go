package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/allisson/possync/internal/app"
	"github.com/allisson/possync/internal/config"
)

// RunStatus prints the outbox queue counters.
func RunStatus(ctx context.Context, format string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	dispatcher, err := container.Dispatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	stats, err := dispatcher.Stats(ctx, cfg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	case "text":
		fmt.Printf("pending:   %d\n", stats.Pending)
		fmt.Printf("failed:    %d\n", stats.Failed)
		fmt.Printf("conflicts: %d\n", stats.Conflicts)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use 'text' or 'json')", format)
	}
}
