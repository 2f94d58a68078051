package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/possync/internal/app"
	"github.com/allisson/possync/internal/config"
)

// RunCatalogPull fetches catalog changes from the central server and applies
// them to the local mirror.
func RunCatalogPull(ctx context.Context, reset bool) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	catalogUseCase, err := container.CatalogUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize catalog use case: %w", err)
	}

	result, err := catalogUseCase.Pull(ctx, reset)
	if err != nil {
		return fmt.Errorf("failed to pull catalog: %w", err)
	}

	logger.Info("catalog pull finished",
		slog.Int("upserted", result.Upserted),
		slog.Bool("full", result.Full),
		slog.Time("watermark", result.Watermark),
	)

	return nil
}
