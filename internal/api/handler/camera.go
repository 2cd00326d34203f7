package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/workforce/internal/detection"
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/video"
)

// LoopController is the part of detection.Loop the handler drives
type LoopController interface {
	Start(ctx context.Context, src video.Source) error
	Stop()
	Status() detection.Status
}

// SourceFactory builds a video source from a locator string
type SourceFactory func(locator, cameraID string) (video.Source, error)

type CameraHandler struct {
	loop      LoopController
	newSource SourceFactory
	logger    *slog.Logger
}

func NewCameraHandler(loop LoopController, newSource SourceFactory, logger *slog.Logger) *CameraHandler {
	return &CameraHandler{
		loop:      loop,
		newSource: newSource,
		logger:    logger,
	}
}

// StartCameraRequest is the body of POST /v1/camera/start
type StartCameraRequest struct {
	Source   string `json:"source"`
	CameraID string `json:"camera_id"`
}

// Start opens the source and blocks until the loop is running or start fails
func (h *CameraHandler) Start(c *fiber.Ctx) error {
	var req StartCameraRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.Source = strings.TrimSpace(req.Source)
	if req.Source == "" {
		return domain.ErrValidationFailed.WithError(errors.New("source is required"))
	}

	src, err := h.newSource(req.Source, strings.TrimSpace(req.CameraID))
	if err != nil {
		return domain.ErrCameraUnavailable.WithError(err)
	}

	if err := h.loop.Start(c.UserContext(), src); err != nil {
		if errors.Is(err, detection.ErrStartAborted) {
			return domain.ErrLoopNotRunning.WithError(err)
		}
		return err
	}

	h.logger.Info("detection started via api",
		slog.String("camera_id", src.ID()),
		slog.String("ip", c.IP()),
	)

	return c.JSON(h.loop.Status())
}

// Stop is idempotent and always answers with the resulting status
func (h *CameraHandler) Stop(c *fiber.Ctx) error {
	h.loop.Stop()
	return c.JSON(h.loop.Status())
}

func (h *CameraHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.loop.Status())
}
