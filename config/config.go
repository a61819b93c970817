// Package config loads the tracker configuration: a YAML file with sane
// defaults, overridden by the DB_* environment variables the deployment
// already provides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

// Duration is a time.Duration that unmarshals from YAML strings like "45s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Config holds the full tracker configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns       int32    `yaml:"max_conns"`
	MinConns       int32    `yaml:"min_conns"`
	AcquireTimeout Duration `yaml:"acquire_timeout"`
	DialTimeout    Duration `yaml:"dial_timeout"`
}

// DefaultConfig returns sane defaults matching the local docker setup.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8000",
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			Name:           "equipment_db",
			User:           "admin",
			Password:       "admin",
			SSLMode:        "disable",
			MaxConns:       12,
			MinConns:       2,
			AcquireTimeout: Duration(45 * time.Second),
			DialTimeout:    Duration(10 * time.Second),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// applyEnv overlays the DB_* environment contract.
func (c *Config) applyEnv() {
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.Port, "DB_PORT")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASSWORD")
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be > 0")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("min_conns must be between 0 and max_conns")
	}
	if c.Database.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire_timeout must be > 0")
	}
	return nil
}

// StoreConfig maps the database section onto the store's pool settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Host:           c.Database.Host,
		Port:           c.Database.Port,
		Database:       c.Database.Name,
		User:           c.Database.User,
		Password:       c.Database.Password,
		SSLMode:        c.Database.SSLMode,
		MaxConns:       c.Database.MaxConns,
		MinConns:       c.Database.MinConns,
		AcquireTimeout: time.Duration(c.Database.AcquireTimeout),
		DialTimeout:    time.Duration(c.Database.DialTimeout),
	}
}
