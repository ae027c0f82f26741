package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/routes/health"
)

func makeRequest(t *testing.T, checker *health.Checker, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	checker.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func okPinger() health.Pinger {
	return health.PingerFunc(func(ctx context.Context) error { return nil })
}

func failingPinger(msg string) health.Pinger {
	return health.PingerFunc(func(ctx context.Context) error { return errors.New(msg) })
}

func TestHealth(t *testing.T) {
	t.Run("should report healthy when all checks pass", func(t *testing.T) {
		checker := health.NewChecker(okPinger(), okPinger(), "test")
		rec := makeRequest(t, checker, "/api/v1/health")

		assert.Equal(t, http.StatusOK, rec.Code)

		var status health.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "healthy", status.Checks["database"].Status)
		assert.Equal(t, "healthy", status.Checks["redis"].Status)
	})

	t.Run("should report unhealthy when the database is down", func(t *testing.T) {
		checker := health.NewChecker(failingPinger("connection refused"), okPinger(), "test")
		rec := makeRequest(t, checker, "/api/v1/health")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var status health.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "unhealthy", status.Status)
		assert.Equal(t, "connection refused", status.Checks["database"].Message)
	})

	t.Run("should report unhealthy when a dependency is missing", func(t *testing.T) {
		checker := health.NewChecker(nil, okPinger(), "test")
		rec := makeRequest(t, checker, "/api/v1/health")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestLive(t *testing.T) {
	t.Run("should always report alive", func(t *testing.T) {
		checker := health.NewChecker(nil, nil, "test")
		rec := makeRequest(t, checker, "/api/v1/health/live")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestReady(t *testing.T) {
	t.Run("should follow the readiness flag", func(t *testing.T) {
		checker := health.NewChecker(okPinger(), okPinger(), "test")

		rec := makeRequest(t, checker, "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		checker.SetReady(true)
		rec = makeRequest(t, checker, "/api/v1/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)

		checker.SetReady(false)
		rec = makeRequest(t, checker, "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
