// Package config provides hierarchical configuration loading for agent-chat.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all runtime configuration.
type Config struct {
	Store    Store    `yaml:"store"`
	Postgres Postgres `yaml:"postgres"`
	Logging  Logging  `yaml:"logging"`
	Tools    []string `yaml:"tools"` // Tool names accepted in tool parts
}

// Store selects the storage backend.
type Store struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres" (default: "sqlite")
	Path   string `yaml:"path"`   // SQLite database file
}

// Postgres holds PostgreSQL connection configuration.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// DefaultDBPath returns ~/.agent-chat/chat.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agent-chat", "chat.db")
	}
	return filepath.Join(home, ".agent-chat", "chat.db")
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Store: Store{
			Driver: DriverSQLite,
			Path:   DefaultDBPath(),
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Logging: Logging{
			Level:   "info",
			Service: "agent-chat",
		},
		Tools: []string{"countCharacters"},
	}
}
