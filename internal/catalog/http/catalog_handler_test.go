package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/possync/internal/catalog/domain"
	apperrors "github.com/allisson/possync/internal/errors"
)

type fakeCatalogUseCase struct {
	result         *domain.PullResult
	products       []*domain.Product
	pullErr        error
	listErr        error
	lastReset      bool
	lastActiveOnly bool
}

func (u *fakeCatalogUseCase) Pull(ctx context.Context, reset bool) (*domain.PullResult, error) {
	u.lastReset = reset
	if u.pullErr != nil {
		return nil, u.pullErr
	}
	return u.result, nil
}

func (u *fakeCatalogUseCase) ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	u.lastActiveOnly = activeOnly
	if u.listErr != nil {
		return nil, u.listErr
	}
	return u.products, nil
}

func newCatalogRouter(catalogUseCase *fakeCatalogUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewCatalogHandler(catalogUseCase, nil)

	router := gin.New()
	router.POST("/v1/catalog/refresh", handler.RefreshHandler)
	router.GET("/v1/catalog/products", handler.ListHandler)

	return router
}

func TestRefreshHandler(t *testing.T) {
	catalogUseCase := &fakeCatalogUseCase{
		result: &domain.PullResult{
			Upserted:  3,
			Watermark: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
			Full:      true,
		},
	}
	router := newCatalogRouter(catalogUseCase)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/catalog/refresh", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, catalogUseCase.lastReset)

	var response domain.PullResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Upserted)
	assert.True(t, response.Full)
}

func TestRefreshHandler_Reset(t *testing.T) {
	catalogUseCase := &fakeCatalogUseCase{result: &domain.PullResult{}}
	router := newCatalogRouter(catalogUseCase)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/catalog/refresh?reset=true", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, catalogUseCase.lastReset)
}

func TestRefreshHandler_Unreachable(t *testing.T) {
	catalogUseCase := &fakeCatalogUseCase{pullErr: apperrors.Wrap(apperrors.ErrUnreachable, "connection refused")}
	router := newCatalogRouter(catalogUseCase)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/catalog/refresh", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestCatalogListHandler(t *testing.T) {
	catalogUseCase := &fakeCatalogUseCase{
		products: []*domain.Product{
			{ID: "prod-1", Name: "Espresso", SKU: "ESP-01", PriceCents: 350, Active: true},
		},
	}
	router := newCatalogRouter(catalogUseCase)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/catalog/products", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, catalogUseCase.lastActiveOnly)

	var response struct {
		Products []*domain.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Products, 1)
	assert.Equal(t, "Espresso", response.Products[0].Name)
}

func TestCatalogListHandler_IncludeInactive(t *testing.T) {
	catalogUseCase := &fakeCatalogUseCase{}
	router := newCatalogRouter(catalogUseCase)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/catalog/products?include_inactive=true", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, catalogUseCase.lastActiveOnly)
}
