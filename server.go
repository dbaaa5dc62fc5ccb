package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/handlers"
	"bookshelf/internal/middleware"
	"bookshelf/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps are the long-lived components the HTTP app is built from.
type Deps struct {
	Config      *config.Config
	Log         *slog.Logger
	DB          *gorm.DB // nil when running on the memory driver
	AuthService *services.AuthService
	BookService *services.BookService
}

// NewApp builds the Fiber app with all routes registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bookshelf",
		BodyLimit:    d.Config.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: errorHandler(d.Log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", healthHandler(d.DB))

	api := app.Group("/api")

	authHandler := handlers.NewAuthHandler(d.AuthService, d.Log)
	authHandler.RegisterRoutes(api)

	bookHandler := handlers.NewBookHandler(d.BookService, d.Log)
	bookHandler.RegisterRoutes(api, middleware.AuthRequired(d.AuthService, d.Log))

	return app
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.ErrorContext(c.UserContext(), "unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, dbStatus := "healthy", "disabled"
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := database.Ping(ctx, db); err != nil {
				status, dbStatus = "degraded", "unreachable"
			} else {
				dbStatus = "connected"
			}
		}

		code := fiber.StatusOK
		if status != "healthy" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
		})
	}
}
