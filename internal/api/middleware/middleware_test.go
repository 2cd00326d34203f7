package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func newTestApp(logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(requestid.New())
	app.Use(Recover(logger))
	app.Use(Logger(logger))
	return app
}

func decodeError(t *testing.T, body io.Reader) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:        "app error with details",
			err:         domain.ErrCameraUnavailable.WithError(errors.New("connection refused")),
			wantStatus:  503,
			wantCode:    "CAMERA_UNAVAILABLE",
			wantDetails: "connection refused",
		},
		{
			name:       "conflict",
			err:        domain.ErrLoopRunning,
			wantStatus: 409,
			wantCode:   "DETECTION_RUNNING",
		},
		{
			name:       "internal error hides cause",
			err:        domain.ErrInternal.WithError(errors.New("secret dsn")),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "fiber error",
			err:        fiber.ErrUpgradeRequired,
			wantStatus: 426,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(logger)
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp.Body)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantDetails, body.Error.Details)
		})
	}
}

func TestLogger_LogsFinalStatus(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := newTestApp(logger)
	app.Get("/busy", func(c *fiber.Ctx) error { return domain.ErrLoopRunning })

	resp, err := app.Test(httptest.NewRequest("GET", "/busy", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=409")
	assert.Contains(t, out, "request_id=")
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := newTestApp(logger)
	app.Get("/panic", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	body := decodeError(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Empty(t, body.Error.Details, "panic value must not leak")
}
