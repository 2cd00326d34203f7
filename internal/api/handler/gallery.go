package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

// GalleryService is the part of gallery.Gallery the handler exposes
type GalleryService interface {
	Reload(ctx context.Context) error
	Size() int
	LoadedAt() time.Time
	IdentityIDs() []string
	Lookup(identityID string) (domain.Identity, bool)
}

// AttendanceWarmer seeds the dedup set for identities credited earlier today
type AttendanceWarmer interface {
	Warm(ctx context.Context, identityIDs []string) int
}

type GalleryHandler struct {
	gallery GalleryService
	warmer  AttendanceWarmer
	logger  *slog.Logger
}

func NewGalleryHandler(gallery GalleryService, warmer AttendanceWarmer, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{
		gallery: gallery,
		warmer:  warmer,
		logger:  logger,
	}
}

type GalleryResponse struct {
	Size     int        `json:"size"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type IdentityResponse struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Dimension   int    `json:"embedding_dimension"`
}

func (h *GalleryHandler) response() GalleryResponse {
	resp := GalleryResponse{Size: h.gallery.Size()}
	if at := h.gallery.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = &at
	}
	return resp
}

// Reload rebuilds the gallery from the identity store. On failure the
// previous gallery stays in place and the error is returned.
func (h *GalleryHandler) Reload(c *fiber.Ctx) error {
	if err := h.gallery.Reload(c.UserContext()); err != nil {
		return err
	}

	if h.warmer != nil {
		seeded := h.warmer.Warm(c.UserContext(), h.gallery.IdentityIDs())
		h.logger.Debug("attendance set warmed after reload", slog.Int("seeded", seeded))
	}

	return c.JSON(h.response())
}

func (h *GalleryHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.response())
}

func (h *GalleryHandler) Identity(c *fiber.Ctx) error {
	id, ok := h.gallery.Lookup(c.Params("identity_id"))
	if !ok {
		return domain.ErrEmployeeNotFound
	}

	return c.JSON(IdentityResponse{
		IdentityID:  id.ID,
		DisplayName: id.DisplayName,
		Dimension:   len(id.Embedding),
	})
}
