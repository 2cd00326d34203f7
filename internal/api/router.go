package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/workforce/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/workforce/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/workforce/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/workforce/internal/ws"
)

type Dependencies struct {
	Loop    handler.LoopController
	Sources handler.SourceFactory
	Gallery handler.GalleryService
	Warmer  handler.AttendanceWarmer
	Hub     *ws.Hub
	DB      handler.Pinger
	Models  handler.ReadinessChecker
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Workforce API",
		// camera start blocks until the models are ready
		WriteTimeout: 3 * time.Minute,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var (
		db     handler.Pinger
		models handler.ReadinessChecker
	)
	if r.deps != nil {
		db, models = r.deps.DB, r.deps.Models
	}
	healthHandler := handler.NewHealthHandler(db, models)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	cameraHandler := handler.NewCameraHandler(r.deps.Loop, r.deps.Sources, r.logger)
	v1.Post("/camera/start", cameraHandler.Start)
	v1.Post("/camera/stop", cameraHandler.Stop)
	v1.Get("/camera/status", cameraHandler.Status)

	galleryHandler := handler.NewGalleryHandler(r.deps.Gallery, r.deps.Warmer, r.logger)
	v1.Post("/gallery/reload", galleryHandler.Reload)
	v1.Get("/gallery", galleryHandler.Get)
	v1.Get("/gallery/:identity_id", galleryHandler.Identity)

	if r.deps.Hub != nil {
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown(timeout time.Duration) error {
	return r.app.ShutdownWithTimeout(timeout)
}
