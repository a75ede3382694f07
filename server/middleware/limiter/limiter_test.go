package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"bizpilot/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperrors.Handler(apperrors.DefaultHandlerConfig())})
	app.Use(New(cfg))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestLimiter_RejectsOnceBucketIsEmpty(t *testing.T) {
	app := newApp(Config{Capacity: 2, RefillRate: 1, RefillPeriod: time.Hour})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "3600", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(apperrors.ErrCodeRateLimited), body["code"])
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	app := newApp(Config{
		Capacity:     1,
		RefillPeriod: time.Hour,
		KeyGenerator: func(c *fiber.Ctx) string { return c.Get("X-Client") },
	})

	for _, client := range []string{"a", "b"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, client)
	}
}

func TestLimiter_Next(t *testing.T) {
	app := newApp(Config{
		Capacity:     1,
		RefillPeriod: time.Hour,
		Next:         func(c *fiber.Ctx) bool { return true },
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

type brokenStorage struct{ InMemoryStorage }

func (brokenStorage) Get(context.Context, string) (*TokenBucket, error) {
	return nil, errors.New("storage down")
}

func TestLimiter_FailsOpenWhenStorageErrors(t *testing.T) {
	app := newApp(Config{Capacity: 1, RefillPeriod: time.Hour, Storage: &brokenStorage{}})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestLimiter_FailsOpenWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	app := newApp(Config{Capacity: 1, RefillPeriod: time.Hour, Storage: NewRedisStorage(client, time.Minute)})

	for i := 0; i < 7; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	tb := NewTokenBucket(3, 1, time.Minute)
	require.True(t, tb.Take(3))
	assert.False(t, tb.Take(1))

	tb.mu.Lock()
	tb.LastRefill = tb.LastRefill.Add(-2*time.Minute - 30*time.Second)
	tb.mu.Unlock()

	assert.True(t, tb.Take(2))
	assert.False(t, tb.Take(1))
}

func TestTokenBucket_RefillIsCapped(t *testing.T) {
	tb := NewTokenBucket(2, 5, time.Second)
	tb.LastRefill = tb.LastRefill.Add(-time.Hour)

	assert.True(t, tb.Take(2))
	assert.Equal(t, int64(0), tb.Remaining())
}

func TestInMemoryStorage_SetIfNotExists(t *testing.T) {
	s := NewInMemoryStorage()
	ctx := context.Background()

	first := NewTokenBucket(1, 1, time.Second)
	ok, err := s.SetIfNotExists(ctx, "k", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetIfNotExists(ctx, "k", NewTokenBucket(1, 1, time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(ctx, "k")
	assert.Same(t, first, got)

	require.NoError(t, s.Delete(ctx, "k"))
	got, _ = s.Get(ctx, "k")
	assert.Nil(t, got)
}
