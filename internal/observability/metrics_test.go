package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/tickets", "POST", 201, 3*time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, 2*time.Millisecond)
	m.RecordError("/tickets", "POST", "CART_LOCKED")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Requests["/tickets|POST|201"])
	assert.Equal(t, 5*time.Millisecond, s.Latency["/tickets|POST|201"])
	assert.Equal(t, int64(1), s.Errors["/tickets|POST|CART_LOCKED"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/x", "GET", 200, time.Millisecond)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(1), m.Snapshot().Requests["/tickets/:id|GET|204"])
}
