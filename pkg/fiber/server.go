package fiber

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggoFiber "github.com/swaggo/fiber-swagger"

	"github.com/polarais/haru-sub000/internal/config"
	"github.com/polarais/haru-sub000/internal/handler"
	"github.com/polarais/haru-sub000/internal/middleware"

	// Import docs for swagger
	_ "github.com/polarais/haru-sub000/docs"
)

// NewFiberServer creates and configures a new Fiber application.
func NewFiberServer(cfg *config.AppConfig, entryHandler *handler.EntryHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${status} - ${method} ${path} ${latency}\nREQUEST_ID: ${locals:requestid}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsAllowedOrigins[0], // Fiber's CORS AllowOrigins is a string, not a slice.
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.MetricsFiber())
	app.Use(middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst).Fiber())

	// Swagger UI and metrics
	app.Get("/swagger/*", swaggoFiber.WrapHandler)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health Check Route
	app.Get("/health", entryHandler.HealthHandler.CheckHealthFiber)

	// Entry routes, bearer-token scoped
	api := app.Group("/api/v1", middleware.AuthFiber([]byte(cfg.JWTSecret)))
	api.Get("/entries", entryHandler.ListEntriesFiber)
	api.Post("/entries", entryHandler.CreateEntryFiber)
	api.Delete("/entries", entryHandler.DeleteAllEntriesFiber)
	api.Delete("/entries/purged", entryHandler.PurgeEntriesFiber)
	api.Get("/entries/date/:date", entryHandler.ListEntriesByDateFiber)
	api.Get("/entries/date/:date/count", entryHandler.CountEntriesByDateFiber)
	api.Get("/entries/:id", entryHandler.GetEntryFiber)
	api.Put("/entries/:id", entryHandler.UpdateEntryFiber)
	api.Delete("/entries/:id", entryHandler.DeleteEntryFiber)
	api.Post("/entries/:id/photos", entryHandler.UploadPhotoFiber)
	api.Post("/entries/:id/reflect", entryHandler.ReflectFiber)

	return app
}

// customErrorHandler for Fiber
func customErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Fiber Error: %v - Path: %s", err, ctx.Path())

	return ctx.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// StartFiberServer starts the Fiber server.
func StartFiberServer(app *fiber.App, cfg *config.AppConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	log.Printf("Starting Fiber server on %s", addr)
	return app.Listen(addr)
}
