package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	cases := []struct {
		name   string
		db     PingFunc
		redis  PingFunc
		status string
		dbS    string
		redisS string
	}{
		{"all up", up, up, "healthy", "up", "up"},
		{"no deps", nil, nil, "healthy", "disabled", "disabled"},
		{"redis down", up, down, "degraded", "up", "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler("natalis", "1.2.3", tc.db, tc.redis).RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, tc.dbS, resp.DB)
			assert.Equal(t, tc.redisS, resp.Redis)
			assert.Equal(t, "1.2.3", resp.Version)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHealthHandler("natalis", "dev", nil, nil).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
