package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticPresence struct {
	users       int
	connections int
}

func (s staticPresence) Size() (users, connections int) {
	return s.users, s.connections
}

func TestHealthz_Reports_Presence_And_Process_Stats(t *testing.T) {
	req := require.New(t)

	// Given an API backed by a known presence count
	gin.SetMode(gin.TestMode)
	api := NewAPI(nil, nil, nil, nil, staticPresence{users: 2, connections: 3}, testLogger())
	r := gin.New()
	r.GET("/api/healthz", api.healthz)

	// When the health endpoint is hit
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))

	// Then the payload carries presence, runtime and process stats
	req.Equal(http.StatusOK, w.Code)
	var body map[string]any
	req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	req.EqualValues(2, body["users"])
	req.EqualValues(3, body["connections"])
	req.Contains(body, "uptime_seconds")
	req.Contains(body, "goroutines")
	req.Contains(body, "rss_mb")
}
