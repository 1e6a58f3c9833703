package database

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// sqliteParams serializes writers with BEGIN IMMEDIATE so two transactions on
// the same order cannot both read a stale item set before writing.
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	// Driver specifies the database driver (postgres, sqlite)
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`

	// PostgreSQL-specific configuration
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"cafe"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"cafe"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// SQLite-specific configuration
	Path string `env:"DB_PATH" envDefault:"cafe.sqlite"`
}

// LoadConfig reads the database configuration from environment variables
func LoadConfig() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("parse database env: %w", err)
	}
	return cfg, nil
}

// String returns a string representation with sensitive data masked
func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds a Data Source Name string based on the driver
func (c *DatabaseConfig) DSN() string {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		separator := "?"
		if strings.Contains(c.Path, "?") {
			separator = "&"
		}
		return c.Path + separator + sqliteParams
	default:
		return ""
	}
}
