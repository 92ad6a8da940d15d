package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/impactys/foodgram/pkg/foodgram/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("Expected error for unknown log level")
	}
}

func TestNewBuildsLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := New(config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", format, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("Expected debug level enabled for %s logger", format)
		}
	}
}

func setupRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := setupRouter(zap.New(core))

	req, _ := http.NewRequest("GET", "/ok", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get(HeaderRequestID) == "" {
		t.Error("Expected X-Request-ID response header")
	}
	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.InfoLevel {
		t.Errorf("Expected info level, got %s", entry.Level)
	}
	if entry.ContextMap()["path"] != "/ok" {
		t.Errorf("Expected path /ok, got %v", entry.ContextMap()["path"])
	}
}

func TestMiddlewareReusesRequestIDAndLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := setupRouter(zap.New(core))

	req, _ := http.NewRequest("GET", "/boom", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get(HeaderRequestID); got != "req-123" {
		t.Errorf("Expected request id req-123, got %q", got)
	}
	entries := logs.FilterField(zap.String("request_id", "req-123")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("Expected one error entry for req-123, got %v", entries)
	}
}
