package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/walletd/walletd/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *atomic.Int64) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	var hits atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/operations", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted", "n": hits.Load()})
	})

	return app, &hits
}

func postOp(t *testing.T, app *fiber.App, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/operations", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode, string(body)
}

func TestIdempotencyPassThroughWithoutKey(t *testing.T) {
	app, hits := setupTestApp(t)

	status, _ := postOp(t, app, "")
	require.Equal(t, fiber.StatusAccepted, status)
	status, _ = postOp(t, app, "")
	require.Equal(t, fiber.StatusAccepted, status)

	// Without a key there is no dedup: both submissions reach the handler.
	require.EqualValues(t, 2, hits.Load())
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, hits := setupTestApp(t)

	status, first := postOp(t, app, "op-123")
	require.Equal(t, fiber.StatusAccepted, status)

	status, second := postOp(t, app, "op-123")
	require.Equal(t, fiber.StatusAccepted, status)
	require.Equal(t, first, second, "duplicate submission must replay the original response")

	require.EqualValues(t, 1, hits.Load(), "handler must run once per key")
}

func TestIdempotencyDistinctKeys(t *testing.T) {
	app, hits := setupTestApp(t)

	postOp(t, app, "op-1")
	postOp(t, app, "op-2")

	require.EqualValues(t, 2, hits.Load())
}
