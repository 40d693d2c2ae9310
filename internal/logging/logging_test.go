package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := globalLogger.Load()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })
	return logs
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := newObserved(t)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/ok", func(c *gin.Context) {
		c.Set("client_id", "abc")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "abc", entries[0].ContextMap()["client_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestMiddleware_KeepsClientRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := newObserved(t)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "fixed-id", logs.All()[0].ContextMap()["request_id"])
}

func TestInit(t *testing.T) {
	prev := globalLogger.Load()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init(Config{Level: "warn", Format: "json", Output: "stderr"}))
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, Init(Config{Level: "bogus", Format: "console", Output: "stderr"}))
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
}

func TestL_ConcurrentFirstUse(t *testing.T) {
	prev := globalLogger.Load()
	t.Cleanup(func() { Set(prev) })
	Set(nil)

	got := make([]*zap.Logger, 16)
	var wg conc.WaitGroup
	for i := range got {
		i := i
		wg.Go(func() { got[i] = L() })
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for i := range got {
		assert.Same(t, got[0], got[i], "caller %d", i)
	}
	assert.Same(t, got[0], L())
}
