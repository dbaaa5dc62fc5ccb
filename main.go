package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/logging"
	"bookshelf/internal/media"
	"bookshelf/internal/models"
	"bookshelf/internal/repositories"
	"bookshelf/internal/services"
	"bookshelf/pkg/rabbitmq"

	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	db, userRepo, bookRepo, err := openRepositories(cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if err := database.Close(db); err != nil {
				log.Warn("error closing database", "error", err)
			}
		}()
	}
	log.Info("credential store ready", "driver", cfg.Database.Driver)

	store, err := openMediaStore(ctx, cfg.Media)
	if err != nil {
		return err
	}
	log.Info("media store ready", "driver", cfg.Media.Driver, "public_url", cfg.Media.PublicURL)

	// --- Book events ---
	var events services.EventPublisher
	if cfg.Events.Enabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Events.RabbitMQURL}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		events = mqClient

		if cfg.Events.Consume {
			if err := mqClient.ConsumeBookEvents(logBookEvent(log)); err != nil {
				return err
			}
			log.Info("consuming book events", "queue", rabbitmq.BookEventsQueue)
		}
	}

	// --- Services ---
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(userRepo, tokens, log)
	bookService := services.NewBookService(bookRepo, store, events, log)

	app := NewApp(Deps{
		Config:      cfg,
		Log:         log,
		DB:          db,
		AuthService: authService,
		BookService: bookService,
	})

	// --- HTTP server ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Server.Addr())
		serverErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	log.Info("server gracefully stopped")
	return nil
}

// openRepositories returns the repositories for the configured driver. db
// is nil for the memory driver.
func openRepositories(cfg config.DatabaseConfig) (*gorm.DB, repositories.UserRepository, repositories.BookRepository, error) {
	if cfg.Driver == config.DriverMemory {
		users := repositories.NewMemoryUserRepository()
		return nil, users, repositories.NewMemoryBookRepository(users), nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, repositories.NewGORMUserRepository(db), repositories.NewGORMBookRepository(db), nil
}

func openMediaStore(ctx context.Context, cfg config.MediaConfig) (media.Store, error) {
	if cfg.Driver == config.DriverMemory {
		return media.NewMemoryStore(cfg.PublicURL, cfg.Folder), nil
	}
	return media.NewS3Store(ctx, cfg)
}

func logBookEvent(log *slog.Logger) func(models.BookEvent) error {
	return func(event models.BookEvent) error {
		log.Info("book event received",
			"type", event.Type,
			"book_id", event.BookID,
			"user_id", event.UserID,
			"title", event.Title,
		)
		return nil
	}
}
