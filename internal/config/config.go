// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage and media drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverS3       = "s3"
)

// Config holds all application configuration. It is built once at startup
// and passed to the constructors that need it.
type Config struct {
	Server   ServerConfig   `validate:"required"`
	Auth     AuthConfig     `validate:"required"`
	Database DatabaseConfig `validate:"required"`
	Media    MediaConfig    `validate:"required"`
	Events   EventsConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        string `validate:"required"`
	LogLevel    string `validate:"required,oneof=debug info warn error"`
	BodyLimitMB int    `validate:"gt=0"`
}

// Addr returns the listen address for the server.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`
}

// DatabaseConfig selects and configures the credential store.
type DatabaseConfig struct {
	Driver string `validate:"required,oneof=postgres sqlite memory"`
	DSN    string `validate:"required_unless=Driver memory"`
}

// MediaConfig configures the image store.
type MediaConfig struct {
	Driver    string `validate:"required,oneof=s3 memory"`
	Endpoint  string `validate:"omitempty,url"`
	Region    string `validate:"required_if=Driver s3"`
	Bucket    string `validate:"required_if=Driver s3"`
	AccessKey string `validate:"required_if=Driver s3"`
	SecretKey string `validate:"required_if=Driver s3"`
	PublicURL string `validate:"required,url"`
	Folder    string
}

// EventsConfig configures the optional book event broker.
type EventsConfig struct {
	RabbitMQURL string
	Consume     bool
}

// Enabled reports whether book events should be published.
func (e EventsConfig) Enabled() bool {
	return e.RabbitMQURL != ""
}

// Load reads an optional .env file, then the environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BODY_LIMIT_MB", 10)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 15*24*time.Hour)
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("MEDIA_DRIVER", DriverS3)
	v.SetDefault("MEDIA_ENDPOINT", "")
	v.SetDefault("MEDIA_REGION", "us-east-1")
	v.SetDefault("MEDIA_BUCKET", "")
	v.SetDefault("MEDIA_ACCESS_KEY", "")
	v.SetDefault("MEDIA_SECRET_KEY", "")
	v.SetDefault("MEDIA_PUBLIC_URL", "")
	v.SetDefault("MEDIA_FOLDER", "books")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("BOOK_EVENTS_CONSUME", false)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
			BodyLimitMB: v.GetInt("BODY_LIMIT_MB"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("TOKEN_TTL"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Media: MediaConfig{
			Driver:    v.GetString("MEDIA_DRIVER"),
			Endpoint:  v.GetString("MEDIA_ENDPOINT"),
			Region:    v.GetString("MEDIA_REGION"),
			Bucket:    v.GetString("MEDIA_BUCKET"),
			AccessKey: v.GetString("MEDIA_ACCESS_KEY"),
			SecretKey: v.GetString("MEDIA_SECRET_KEY"),
			PublicURL: strings.TrimRight(v.GetString("MEDIA_PUBLIC_URL"), "/"),
			Folder:    strings.Trim(v.GetString("MEDIA_FOLDER"), "/"),
		},
		Events: EventsConfig{
			RabbitMQURL: v.GetString("RABBITMQ_URL"),
			Consume:     v.GetBool("BOOK_EVENTS_CONSUME"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
