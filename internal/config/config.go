package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Media    MediaConfig    `yaml:"media"`
	NATS     NATSConfig     `yaml:"nats"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	// Driver selects the persistence backend: sqlite (default) or postgres.
	Driver string `yaml:"driver"`
	// DSN is the database path for sqlite or a connection string for postgres.
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	// JWTSecret verifies session bearer tokens (HS256).
	JWTSecret string `yaml:"jwt_secret"`
}

type MediaConfig struct {
	// Root is the directory holding uploaded images.
	Root string `yaml:"root"`
	// BaseURL is the public prefix the server serves Root under.
	BaseURL string `yaml:"base_url"`
}

type NATSConfig struct {
	// URL enables the NATS-backed change notifier when set; empty keeps
	// the in-process broker.
	URL string `yaml:"url"`
}

// Default returns a config suitable for local development, minus the JWT
// secret which has no safe default.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: DriverSQLite, DSN: "./inkpress.db"},
		Media:    MediaConfig{Root: "./media", BaseURL: "http://localhost:8080/media"},
	}
}

// Load reads a YAML config file, expands ${ENV} references, and fills
// unset fields from defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Database.DSN = expandEnv(cfg.Database.DSN)
	cfg.Auth.JWTSecret = expandEnv(cfg.Auth.JWTSecret)
	cfg.Media.Root = expandEnv(cfg.Media.Root)
	cfg.Media.BaseURL = expandEnv(cfg.Media.BaseURL)
	cfg.NATS.URL = expandEnv(cfg.NATS.URL)

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = def.Database.DSN
	}
	if c.Media.Root == "" {
		c.Media.Root = def.Media.Root
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = def.Media.BaseURL
	}
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for the postgres driver")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}

	return nil
}

// expandEnv substitutes ${VAR} references with environment values, leaving
// plain text untouched.
func expandEnv(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
