// Package connectivity observes network reachability of the central server and
// raises an edge-triggered event when the terminal transitions from offline to
// online. It also owns the automatic-sync toggle consulted by the scheduler.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Probe reports whether the central server is currently reachable.
type Probe func(ctx context.Context) bool

// Config holds monitor configuration.
type Config struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration
	// AutoSyncEnabled is the initial toggle state.
	AutoSyncEnabled bool
}

// Monitor polls reachability and emits one event per offline-to-online
// transition. Polls that confirm an unchanged state emit nothing, so
// subscribers never see redundant triggers.
type Monitor struct {
	config Config
	probe  Probe
	logger *slog.Logger

	reachable atomic.Bool
	autoSync  atomic.Bool
	events    chan struct{}
}

// NewMonitor creates a new Monitor with the given probe.
func NewMonitor(config Config, probe Probe, logger *slog.Logger) *Monitor {
	m := &Monitor{
		config: config,
		probe:  probe,
		logger: logger,
		// Buffer one event: a transition while the subscriber is busy must
		// not be lost, and coalescing further transitions is correct since
		// a single drain handles everything pending.
		events: make(chan struct{}, 1),
	}
	m.autoSync.Store(config.AutoSyncEnabled)
	return m
}

// HTTPProbe builds the default probe: a GET against the server's health
// endpoint with a short timeout.
func HTTPProbe(baseURL string, timeout time.Duration) Probe {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return false
		}

		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close() //nolint:errcheck

		return resp.StatusCode < 500
	}
}

// Run polls reachability until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("starting connectivity monitor",
			slog.Duration("poll_interval", m.config.PollInterval),
		)
	}

	// Establish the initial state without emitting an event.
	m.reachable.Store(m.probe(ctx))

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.logger != nil {
				m.logger.Info("stopping connectivity monitor")
			}
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll probes once and emits on the offline-to-online edge.
func (m *Monitor) poll(ctx context.Context) {
	was := m.reachable.Load()
	now := m.probe(ctx)
	m.reachable.Store(now)

	if now == was {
		return
	}

	if m.logger != nil {
		m.logger.Info("reachability changed", slog.Bool("reachable", now))
	}

	if !was && now {
		select {
		case m.events <- struct{}{}:
		default:
			// An undelivered event already covers this transition.
		}
	}
}

// Events returns the edge-triggered "became reachable" channel.
func (m *Monitor) Events() <-chan struct{} {
	return m.events
}

// Reachable returns the last observed reachability state.
func (m *Monitor) Reachable() bool {
	return m.reachable.Load()
}

// AutoSyncEnabled returns the automatic-sync toggle state.
func (m *Monitor) AutoSyncEnabled() bool {
	return m.autoSync.Load()
}

// SetAutoSync flips the automatic-sync toggle. Manual triggers remain
// available regardless of the toggle.
func (m *Monitor) SetAutoSync(enabled bool) {
	m.autoSync.Store(enabled)
	if m.logger != nil {
		m.logger.Info("auto-sync toggled", slog.Bool("enabled", enabled))
	}
}
