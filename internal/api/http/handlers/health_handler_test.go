package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complaintrack/complaint-service/internal/persistence"
)

func healthApp(h *HealthHandler) *fiber.App {
	app := fiber.New()
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestLiveReportsServiceIdentity(t *testing.T) {
	h := NewHealthHandler("complaint-service", "test", &persistence.Postgres{}, nil)
	app := healthApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "complaint-service", body["service"])
}

func TestReadyInMemoryModeWithoutCache(t *testing.T) {
	h := NewHealthHandler("complaint-service", "test", &persistence.Postgres{}, &persistence.Redis{})
	app := healthApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ready", body["status"])
	deps, ok := body["dependencies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "memory", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestReadyReportsUnreachableDependency(t *testing.T) {
	// Port 1 is never serving redis; the ping must fail fast and flip the
	// probe to 503.
	unreachable := &persistence.Redis{Client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}
	h := NewHealthHandler("complaint-service", "test", &persistence.Postgres{}, unreachable)
	app := healthApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.NotEqual(t, "ok", details["redis"])
}
