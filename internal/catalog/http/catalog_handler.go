// Package http provides HTTP handlers for the mirrored product catalog.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/possync/internal/catalog/usecase"
	"github.com/allisson/possync/internal/httputil"
)

// CatalogHandler handles HTTP requests for the catalog mirror.
type CatalogHandler struct {
	catalogUseCase usecase.CatalogUseCase
	logger         *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogUseCase usecase.CatalogUseCase, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogUseCase: catalogUseCase,
		logger:         logger,
	}
}

// RefreshHandler pulls catalog changes from the central server synchronously.
// POST /v1/catalog/refresh?reset=true forces a full refetch.
// Returns 503 Service Unavailable while the server cannot be reached.
func (h *CatalogHandler) RefreshHandler(c *gin.Context) {
	reset := c.Query("reset") == "true"

	result, err := h.catalogUseCase.Pull(c.Request.Context(), reset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListHandler lists the mirrored products.
// GET /v1/catalog/products?include_inactive=true includes discontinued items.
func (h *CatalogHandler) ListHandler(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	products, err := h.catalogUseCase.ListProducts(c.Request.Context(), !includeInactive)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}
