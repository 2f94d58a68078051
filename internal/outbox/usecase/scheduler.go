package usecase

import (
	"context"
	"log/slog"
	"time"
)

// ConnectivitySource is the slice of the connectivity monitor the scheduler
// consumes: edge-triggered "became reachable" events plus the current state
// of the automatic-sync toggle.
type ConnectivitySource interface {
	Events() <-chan struct{}
	Reachable() bool
	AutoSyncEnabled() bool
}

// Scheduler triggers queue drains automatically: once per offline-to-online
// transition and on a periodic interval while reachable. Manual triggers go
// straight to the dispatcher and bypass the scheduler entirely.
type Scheduler struct {
	dispatcher  UseCase
	monitor     ConnectivitySource
	workspaceID string
	interval    time.Duration
	logger      *slog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	dispatcher UseCase,
	monitor ConnectivitySource,
	workspaceID string,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		dispatcher:  dispatcher,
		monitor:     monitor,
		workspaceID: workspaceID,
		interval:    interval,
		logger:      logger,
	}
}

// Run blocks until the context is cancelled, draining the queue on
// connectivity events and on the periodic ticker. Drains only happen while
// automatic sync is enabled; the dispatcher's own single-flight and backoff
// guards make redundant triggers harmless.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("starting sync scheduler",
			slog.String("workspace_id", s.workspaceID),
			slog.Duration("interval", s.interval),
		)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info("stopping sync scheduler")
			}
			return ctx.Err()

		case _, ok := <-s.monitor.Events():
			if !ok {
				return nil
			}
			if !s.monitor.AutoSyncEnabled() {
				continue
			}
			s.drain(ctx, "became_reachable")

		case <-ticker.C:
			if !s.monitor.AutoSyncEnabled() || !s.monitor.Reachable() {
				continue
			}
			s.drain(ctx, "interval")
		}
	}
}

// drain runs one queue pass, logging instead of propagating errors so a bad
// pass never stops the scheduler.
func (s *Scheduler) drain(ctx context.Context, reason string) {
	if err := s.dispatcher.ProcessQueue(ctx, s.workspaceID); err != nil {
		if s.logger != nil {
			s.logger.Error("queue drain failed",
				slog.String("workspace_id", s.workspaceID),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
		}
	}
}
