package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// requestEntry finds the per-request log line emitted by GinMiddleware.
func requestEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "request" {
			return entry
		}
	}
	t.Fatal("no request log entry recorded")
	return observer.LoggedEntry{}
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestGinMiddleware(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	engine := gin.New()
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := serve(engine, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)

	entry := requestEntry(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	keys := make(map[string]bool)
	for _, f := range entry.Context {
		keys[f.Key] = true
	}
	for _, key := range []string{"status", "took", "ip", "agent", "bytes", "method", "path"} {
		assert.True(t, keys[key], "missing field %q", key)
	}
}

func TestGinMiddleware_RequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-123")
		c.Next()
	})
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve(engine, http.MethodGet, "/ok")

	entry := requestEntry(t, recorded)
	found := false
	for _, f := range entry.Context {
		if f.Key == "request_id" {
			found = true
			assert.Equal(t, "req-123", f.String)
		}
	}
	assert.True(t, found, "request_id should be logged")
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"client errors log at warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"server errors log at error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.WarnLevel)

			engine := gin.New()
			engine.Use(GinMiddleware(zap.New(core)))
			engine.GET("/status", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := serve(engine, http.MethodGet, "/status")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.level, requestEntry(t, recorded).Level)
		})
	}
}

func TestGinMiddleware_Query(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	engine := gin.New()
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/search", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve(engine, http.MethodGet, "/search?q=widget&page=2")

	entry := requestEntry(t, recorded)
	found := false
	for _, f := range entry.Context {
		if f.Key == "query" {
			found = true
			assert.Contains(t, f.String, "q=widget")
		}
	}
	assert.True(t, found, "query string should be logged")
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	var w *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		w = serve(engine, http.MethodGet, "/boom")
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "panic recovered", logs[0].Message)
}

func TestGetGinLogger(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	var fromHandler *zap.Logger

	engine := gin.New()
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) {
		fromHandler = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	serve(engine, http.MethodGet, "/ok")
	assert.NotNil(t, fromHandler)
}

func TestGetGinLogger_NotSet(t *testing.T) {
	var fromHandler *zap.Logger

	engine := gin.New()
	engine.GET("/ok", func(c *gin.Context) {
		fromHandler = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	serve(engine, http.MethodGet, "/ok")

	require.NotNil(t, fromHandler)
	assert.NotPanics(t, func() {
		fromHandler.Info("safe on the nop logger")
	})
}
