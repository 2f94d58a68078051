// Package http provides HTTP handlers for sync engine visibility and control:
// queue counters for the status badge, manual drain triggering, per-command
// retry and the auto-sync toggle.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/possync/internal/httputil"
	"github.com/allisson/possync/internal/outbox/usecase"
)

// ConnectivityControl is the slice of the connectivity monitor the handlers
// need: current reachability and the auto-sync switch.
type ConnectivityControl interface {
	Reachable() bool
	AutoSyncEnabled() bool
	SetAutoSync(enabled bool)
}

// SyncHandler handles HTTP requests for the sync engine.
type SyncHandler struct {
	dispatcher  usecase.UseCase
	monitor     ConnectivityControl
	workspaceID string
	logger      *slog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(
	dispatcher usecase.UseCase,
	monitor ConnectivityControl,
	workspaceID string,
	logger *slog.Logger,
) *SyncHandler {
	return &SyncHandler{
		dispatcher:  dispatcher,
		monitor:     monitor,
		workspaceID: workspaceID,
		logger:      logger,
	}
}

// statsResponse is the sync status payload for the UI badge.
type statsResponse struct {
	Pending         int  `json:"pending"`
	Failed          int  `json:"failed"`
	Conflicts       int  `json:"conflicts"`
	Reachable       bool `json:"reachable"`
	AutoSyncEnabled bool `json:"auto_sync_enabled"`
}

// autoSyncRequest is the body of the auto-sync toggle.
type autoSyncRequest struct {
	Enabled *bool `json:"enabled"`
}

// StatsHandler returns queue counters and connectivity state.
// GET /v1/sync/stats
func (h *SyncHandler) StatsHandler(c *gin.Context) {
	stats, err := h.dispatcher.Stats(c.Request.Context(), h.workspaceID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, statsResponse{
		Pending:         stats.Pending,
		Failed:          stats.Failed,
		Conflicts:       stats.Conflicts,
		Reachable:       h.monitor.Reachable(),
		AutoSyncEnabled: h.monitor.AutoSyncEnabled(),
	})
}

// TriggerHandler starts a drain in the background.
// POST /v1/sync/trigger
// Always answers 202 Accepted: if a drain is already running the new request
// collapses into it, and outcomes land on the command rows either way.
func (h *SyncHandler) TriggerHandler(c *gin.Context) {
	h.drainInBackground(c)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// RetryHandler resets a failed or conflicted command to pending and starts a
// drain so the retry is attempted right away.
// POST /v1/sync/commands/:id/retry
func (h *SyncHandler) RetryHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid command id: %w", err), h.logger)
		return
	}

	if err := h.dispatcher.RetryCommand(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.drainInBackground(c)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// AutoSyncHandler flips the auto-sync switch. Manual triggering keeps working
// while auto-sync is off.
// PUT /v1/sync/auto
func (h *SyncHandler) AutoSyncHandler(c *gin.Context) {
	var req autoSyncRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if req.Enabled == nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("enabled is required"), h.logger)
		return
	}

	h.monitor.SetAutoSync(*req.Enabled)

	c.JSON(http.StatusOK, gin.H{"auto_sync_enabled": *req.Enabled})
}

// drainInBackground runs ProcessQueue detached from the request's lifetime so
// the drain outlives the HTTP response.
func (h *SyncHandler) drainInBackground(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	go func() {
		if err := h.dispatcher.ProcessQueue(ctx, h.workspaceID); err != nil && h.logger != nil {
			h.logger.Error("triggered drain failed",
				slog.String("workspace_id", h.workspaceID),
				slog.Any("error", err),
			)
		}
	}()
}
