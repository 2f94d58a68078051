package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(config RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/trigger", RateLimitMiddleware(config, testLogger()), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return router
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newRateLimitedRouter(RateLimitConfig{Enabled: true, PerSec: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/trigger", nil))
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_ErrorBody(t *testing.T) {
	router := newRateLimitedRouter(RateLimitConfig{Enabled: true, PerSec: 0.001, Burst: 0})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/trigger", nil))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.JSONEq(t, `{"error":"rate_limited","message":"too many sync triggers, slow down"}`, recorder.Body.String())
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := newRateLimitedRouter(RateLimitConfig{Enabled: false})

	for i := 0; i < 10; i++ {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/trigger", nil))
		assert.Equal(t, http.StatusAccepted, recorder.Code)
	}
}
