// Package http provides HTTP handlers for the local point-of-sale operations.
// Handlers answer from the local store immediately; synchronization with the
// central server happens in the background.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/possync/internal/httputil"
	"github.com/allisson/possync/internal/pos/domain"
	"github.com/allisson/possync/internal/pos/http/dto"
	"github.com/allisson/possync/internal/pos/usecase"
)

// defaultListLimit bounds sale listings when the client does not ask for one.
const defaultListLimit = 50

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	saleUseCase usecase.SaleUseCase
	logger      *slog.Logger
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleUseCase usecase.SaleUseCase, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		saleUseCase: saleUseCase,
		logger:      logger,
	}
}

// CreateHandler rings up a sale.
// POST /v1/pos/sales
// Returns 201 Created as soon as the sale and its sync command are durable
// locally; it never waits for the central server.
func (h *SaleHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateSaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	input := &usecase.CreateSaleInput{
		TotalCents:    req.TotalCents,
		PaymentMethod: req.PaymentMethod,
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}
	if req.ShiftID != nil {
		shiftID, err := uuid.Parse(*req.ShiftID)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid shift_id: %w", err), h.logger)
			return
		}
		input.ShiftID = &shiftID
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, toDomainSaleLine(line))
	}

	sale, err := h.saleUseCase.CreateSale(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSaleToResponse(sale))
}

// GetHandler retrieves one sale with its sync status.
// GET /v1/pos/sales/:id
func (h *SaleHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid sale id: %w", err), h.logger)
		return
	}

	sale, err := h.saleUseCase.GetSale(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSaleToResponse(sale))
}

// ListHandler lists recent sales, newest first.
// GET /v1/pos/sales?limit=N
func (h *SaleHandler) ListHandler(c *gin.Context) {
	limit := defaultListLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid limit"), h.logger)
			return
		}
		limit = parsed
	}

	sales, err := h.saleUseCase.ListSales(c.Request.Context(), limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSalesToListResponse(sales))
}

// toDomainSaleLine converts a request line to its domain shape.
func toDomainSaleLine(line dto.SaleLineRequest) domain.SaleLine {
	return domain.SaleLine{
		ProductID:  line.ProductID,
		Quantity:   line.Quantity,
		PriceCents: line.PriceCents,
	}
}
