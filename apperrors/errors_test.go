package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
	}{
		{
			name:       "AppError passes through",
			err:        NewDuplicateEmail("a@x.com"),
			wantCode:   ErrCodeUserExists,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "Wrapped AppError is unwrapped",
			err:        fmt.Errorf("signup: %w", NewMissingToken()),
			wantCode:   ErrCodeMissingToken,
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "Fiber not found",
			err:        fiber.ErrNotFound,
			wantCode:   ErrCodeNotFound,
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:       "Fiber unprocessable body",
			err:        fiber.ErrUnprocessableEntity,
			wantCode:   ErrCodeInvalidInput,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "Unknown error becomes internal",
			err:        errors.New("disk on fire"),
			wantCode:   ErrCodeInternal,
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("rename failed")
	err := NewStorageError("save_requests", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "STORAGE_ERROR")
	assert.Contains(t, err.Error(), "rename failed")
	assert.True(t, HasCode(err, ErrCodeStorageError))
	assert.False(t, HasCode(cause, ErrCodeStorageError))

	fields := err.LogFields()
	assert.Equal(t, "save_requests", fields["operation"])
	assert.Equal(t, "rename failed", fields["internal"])
}

type recordingLogger struct {
	warns  int
	errors int
}

func (r *recordingLogger) Warn(string, ...any)  { r.warns++ }
func (r *recordingLogger) Error(string, ...any) { r.errors++ }

func TestHandler_WritesJSONBody(t *testing.T) {
	rec := &recordingLogger{}
	var seen *AppError

	app := fiber.New(fiber.Config{
		ErrorHandler: Handler(HandlerConfig{
			Logger: rec,
			OnError: func(c *fiber.Ctx, err *AppError) {
				seen = err
			},
		}),
	})
	app.Get("/dup", func(c *fiber.Ctx) error {
		return NewDuplicateEmail("a@x.com")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/dup", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Email already registered", payload["error"])
	assert.Equal(t, "USER_EXISTS", payload["code"])
	assert.Equal(t, 1, rec.warns)
	require.NotNil(t, seen)
	assert.Equal(t, ErrCodeUserExists, seen.Code)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "boom", "internal cause must not leak outside development")
	assert.Equal(t, 1, rec.errors)
}
