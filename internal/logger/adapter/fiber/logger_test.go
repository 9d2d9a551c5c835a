package fiber_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/logger"
	adapter "github.com/shiftdesk/shiftdesk/internal/logger/adapter/fiber"
	"github.com/shiftdesk/shiftdesk/internal/perf"
)

func TestAccessLogRecordsPerfSample(t *testing.T) {
	ring := perf.NewRing(8)

	app := fiber.New()
	app.Use(adapter.New(adapter.Config{
		Config: logger.Log{},
		Ring:   ring,
	}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Performance"))

	snap := ring.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "/ping", snap[0].Route)
	assert.Equal(t, fiber.MethodGet, snap[0].Method)
	assert.Equal(t, fiber.StatusOK, snap[0].Status)
}

func TestAccessLogSkipsHealthz(t *testing.T) {
	ring := perf.NewRing(8)

	app := fiber.New()
	app.Use(adapter.New(adapter.Config{
		Config:        logger.Log{DisableCheckAlive: true},
		CheckAliveURI: "/healthz",
		Ring:          ring,
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// sample is still recorded, only log output is suppressed
	assert.Equal(t, 1, ring.Len())
}
