package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/workforce/internal/database"
)

const version = "0.1.0"

// Pinger is satisfied by *pgxpool.Pool
type Pinger = database.Pinger

// ReadinessChecker reports whether the detection models can serve requests
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	models ReadinessChecker
}

// NewHealthHandler accepts nil dependencies; a nil check is skipped
func NewHealthHandler(db Pinger, models ReadinessChecker) *HealthHandler {
	return &HealthHandler{db: db, models: models}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

// Ready fails when the database is unreachable. Model readiness is reported
// but does not fail readiness: the loop waits for models on start anyway.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ready", Checks: map[string]string{}}
	status := fiber.StatusOK

	if h.db != nil {
		if err := database.HealthCheck(ctx, h.db); err != nil {
			resp.Checks["database"] = err.Error()
			resp.Status = "unavailable"
			status = fiber.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	if h.models != nil {
		if err := h.models.Ready(ctx); err != nil {
			resp.Checks["models"] = err.Error()
		} else {
			resp.Checks["models"] = "ok"
		}
	}

	return c.Status(status).JSON(resp)
}
