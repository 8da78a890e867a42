package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppName          string `env:"APP_NAME" default:"Order Management System"`
	AppEnv           string `env:"APP_ENV" default:"development"`
	Port             string `env:"PORT" default:"8000"`
	AppURL           string `env:"APP_URL"`
	LogLevel         string `env:"LOG_LEVEL" default:"info"`
	LogFormat        string `env:"LOG_FORMAT" default:"text"`
	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" default:"*"`

	MaxConnections          int     `env:"MAX_CONNECTIONS" default:"1000"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"50"`
	ConnectionRatePerSecond float64 `env:"CONNECTION_RATE_PER_SECOND" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"20"`
	OrderRatePerSecond      float64 `env:"ORDER_RATE_PER_SECOND" default:"20"`
	OrderRateBurst          int     `env:"ORDER_RATE_BURST" default:"40"`

	SendTimeout     time.Duration `env:"SEND_TIMEOUT" default:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// AllowedOrigins splits CORSAllowOrigins on commas, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"MAX_CONNECTIONS", float64(cfg.MaxConnections)},
		{"MAX_CONNECTIONS_PER_IP", float64(cfg.MaxConnectionsPerIP)},
		{"CONNECTION_RATE_PER_SECOND", cfg.ConnectionRatePerSecond},
		{"CONNECTION_BURST", float64(cfg.ConnectionBurst)},
		{"ORDER_RATE_PER_SECOND", cfg.OrderRatePerSecond},
		{"ORDER_RATE_BURST", float64(cfg.OrderRateBurst)},
		{"SEND_TIMEOUT", float64(cfg.SendTimeout)},
		{"SHUTDOWN_TIMEOUT", float64(cfg.ShutdownTimeout)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	if cfg.MaxConnectionsPerIP > cfg.MaxConnections {
		return errors.New("MAX_CONNECTIONS_PER_IP must not exceed MAX_CONNECTIONS")
	}

	if len(cfg.AllowedOrigins()) == 0 {
		return errors.New("CORS_ALLOW_ORIGINS must list at least one origin")
	}

	return nil
}
