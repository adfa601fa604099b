package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs method, route, status and channel id", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelInfo}))

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(testLogger))
		router.GET("/api/v1/channels/:channelID/ledger/entries", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		inboundID := uuid.NewString()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/channels/ch1/ledger/entries?start=x", nil)
		req.Header.Set(CorrelationIDHeader, inboundID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &line))
		assert.Equal(t, "HTTP request", line["msg"])
		assert.Equal(t, "GET", line["method"])
		assert.Equal(t, "/api/v1/channels/ch1/ledger/entries", line["path"])
		assert.Equal(t, "/api/v1/channels/:channelID/ledger/entries", line["route"])
		assert.Equal(t, float64(http.StatusOK), line["status"])
		assert.Equal(t, "ch1", line["channel_id"])
		assert.Equal(t, inboundID, line["correlation_id"])
		assert.Contains(t, line, "latency_ms")
	})

	t.Run("omits channel id outside channel routes", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelInfo}))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.GET("/health", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &line))
		assert.NotContains(t, line, "channel_id")
		assert.NotContains(t, line, "correlation_id")
	})

	t.Run("captures handler errors", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelInfo}))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.GET("/boom", func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		})

		req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &line))
		assert.Equal(t, float64(http.StatusInternalServerError), line["status"])
		assert.Contains(t, line["errors"], assert.AnError.Error())
	})
}
