package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_HealthRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewServer("127.0.0.1", 0, RouterConfig{}, testLogger())

	recorder := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, recorder.Body.String())
}

func TestServer_UnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewServer("127.0.0.1", 0, RouterConfig{}, testLogger())

	recorder := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/pos/sales", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestServer_RequestIDHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewServer("127.0.0.1", 0, RouterConfig{}, testLogger())

	recorder := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}
