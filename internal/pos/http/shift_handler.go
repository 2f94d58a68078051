package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/possync/internal/httputil"
	"github.com/allisson/possync/internal/pos/domain"
	"github.com/allisson/possync/internal/pos/http/dto"
	"github.com/allisson/possync/internal/pos/usecase"
)

// ShiftHandler handles HTTP requests for shift sessions and cash events.
type ShiftHandler struct {
	shiftUseCase usecase.ShiftUseCase
	logger       *slog.Logger
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(shiftUseCase usecase.ShiftUseCase, logger *slog.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftUseCase: shiftUseCase,
		logger:       logger,
	}
}

// OpenHandler opens a cash shift.
// POST /v1/pos/shifts/open
// Returns 409 Conflict if a shift is already open on this terminal.
func (h *ShiftHandler) OpenHandler(c *gin.Context) {
	var req dto.OpenShiftRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	shift, err := h.shiftUseCase.OpenShift(c.Request.Context(), req.OpeningFloatCents)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapShiftToResponse(shift))
}

// CloseHandler closes the current shift.
// POST /v1/pos/shifts/close
// Returns 404 Not Found when no shift is open.
func (h *ShiftHandler) CloseHandler(c *gin.Context) {
	var req dto.CloseShiftRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	shift, err := h.shiftUseCase.CloseShift(c.Request.Context(), req.ClosingAmountCents)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapShiftToResponse(shift))
}

// CashEventHandler records a paid-in/paid-out movement on the current shift.
// POST /v1/pos/shifts/cash-events
func (h *ShiftHandler) CashEventHandler(c *gin.Context) {
	var req dto.RecordCashEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	event, err := h.shiftUseCase.RecordCashEvent(c.Request.Context(), &usecase.RecordCashEventInput{
		Kind:        domain.CashEventKind(req.Kind),
		AmountCents: req.AmountCents,
		Note:        req.Note,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCashEventToResponse(event))
}

// CurrentHandler returns the currently open shift.
// GET /v1/pos/shifts/current
// Returns 404 Not Found when no shift is open.
func (h *ShiftHandler) CurrentHandler(c *gin.Context) {
	shift, err := h.shiftUseCase.CurrentShift(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapShiftToResponse(shift))
}

// CashEventsHandler lists a shift's cash events in occurrence order.
// GET /v1/pos/shifts/:id/cash-events
func (h *ShiftHandler) CashEventsHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid shift id: %w", err), h.logger)
		return
	}

	events, err := h.shiftUseCase.ListCashEvents(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCashEventsToListResponse(events))
}
