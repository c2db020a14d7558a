package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.Equal(t, "tracking-backend", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
}

func TestTracingWithConfig_DisabledPassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingWithConfig_EnabledDoesNotBreakRequests(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(SessionID())
	engine.Use(TracingWithConfig(TracingConfig{ServiceName: "test", Enabled: true}))
	engine.Use(SpanErrorMarker())
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
	}
}

func TestTracedRequestID_PrefersContextValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", "header-id")
	c.Set("request_id", "context-id")

	assert.Equal(t, "context-id", tracedRequestID(c))
}

func TestTracedRequestID_TruncatesOversizedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", strings.Repeat("x", 300))

	assert.Len(t, tracedRequestID(c), MaxRequestIDLength)
}
