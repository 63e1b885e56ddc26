// movies-api/internal/config/config.go

// Package config читает настройки процесса из окружения (и необязательного .env файла).
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config - корневая конфигурация. Ключи koanf совпадают с переменными окружения в нижнем регистре.
type Config struct {
	DatabaseURL     string        `koanf:"database_url" validate:"required_if=Store postgres"`
	Port            string        `koanf:"port" validate:"required,numeric"`
	GRPCPort        string        `koanf:"grpc_port" validate:"required,numeric"`
	LogLevel        string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	Store           string        `koanf:"movies_store" validate:"oneof=postgres memory"`
	MaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Default возвращает значения по умолчанию, поверх которых читается окружение.
func Default() Config {
	return Config{
		Port:            "8080",
		GRPCPort:        "9092",
		LogLevel:        "info",
		Store:           StorePostgres,
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 15 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

var keys = map[string]bool{
	"database_url":         true,
	"port":                 true,
	"grpc_port":            true,
	"log_level":            true,
	"movies_store":         true,
	"db_max_open_conns":    true,
	"db_max_idle_conns":    true,
	"db_conn_max_lifetime": true,
	"shutdown_timeout":     true,
}

// Load загружает .env файлы (если есть), затем окружение, затем проверяет результат.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		// .env необязателен; уже выставленные переменные не перезаписываются
		_ = godotenv.Load(f)
	}

	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !keys[key] {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("could not load env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("could not unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Store = strings.ToLower(cfg.Store)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// SlogLevel переводит LOG_LEVEL в slog.Level
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
