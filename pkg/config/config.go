// Package config loads lotwarp settings from a YAML or TOML file layered
// over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrFormat is returned for config files with an unknown extension.
var ErrFormat = errors.New("config: unknown file format")

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config structure for YAML and TOML configuration
type Config struct {
	Project string `yaml:"project" toml:"project"`

	Store struct {
		Driver   string `yaml:"driver" toml:"driver"`
		Dir      string `yaml:"dir" toml:"dir"`
		DSN      string `yaml:"dsn" toml:"dsn"`
		Postgres struct {
			Host     string `yaml:"host" toml:"host"`
			Port     int    `yaml:"port" toml:"port"`
			User     string `yaml:"user" toml:"user"`
			Password string `yaml:"password" toml:"password"`
			Database string `yaml:"database" toml:"database"`
		} `yaml:"postgres" toml:"postgres"`
	} `yaml:"store" toml:"store"`

	Assets struct {
		Root           string `yaml:"root" toml:"root"`
		CacheSize      int    `yaml:"cache_size" toml:"cache_size"`
		Concurrency    int    `yaml:"concurrency" toml:"concurrency"`
		TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	} `yaml:"assets" toml:"assets"`

	Render struct {
		Grid         int     `yaml:"grid" toml:"grid"`
		HandleRadius float64 `yaml:"handle_radius" toml:"handle_radius"`
	} `yaml:"render" toml:"render"`

	Log struct {
		File         string `yaml:"file" toml:"file"`
		Level        string `yaml:"level" toml:"level"`
		ConsoleLevel string `yaml:"console_level" toml:"console_level"`
		MaxSizeMB    int    `yaml:"max_size_mb" toml:"max_size_mb"`
		MaxBackups   int    `yaml:"max_backups" toml:"max_backups"`
	} `yaml:"log" toml:"log"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	var c Config
	c.Project = "default"
	c.Store.Driver = DriverFile
	c.Store.Dir = "data"
	c.Store.Postgres.Host = "localhost"
	c.Store.Postgres.Port = 5432
	c.Store.Postgres.User = "postgres"
	c.Store.Postgres.Database = "lotwarp"
	c.Assets.Root = "."
	c.Assets.CacheSize = 64
	c.Assets.Concurrency = 4
	c.Assets.TimeoutSeconds = 30
	c.Render.Grid = 10
	c.Render.HandleRadius = 10
	c.Log.Level = "debug"
	c.Log.ConsoleLevel = "warn"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 3
	return c
}

type codec int

const (
	codecYAML codec = iota
	codecTOML
)

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codecYAML, nil
	case ".toml":
		return codecTOML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}

// Load reads path over Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	kind, err := codecFor(path)
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read config: %w", err)
	}

	switch kind {
	case codecYAML:
		err = yaml.Unmarshal(data, &c)
	case codecTOML:
		_, err = toml.Decode(string(data), &c)
	}
	if err != nil {
		return c, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

// Write encodes c to path in the format its extension names.
func Write(path string, c Config) error {
	kind, err := codecFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch kind {
	case codecYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(c)
		if err == nil {
			err = enc.Close()
		}
	case codecTOML:
		err = toml.NewEncoder(&buf).Encode(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Render.Grid < 1 {
		return fmt.Errorf("config: render.grid must be at least 1, got %d", c.Render.Grid)
	}
	if c.Render.HandleRadius <= 0 {
		return fmt.Errorf("config: render.handle_radius must be positive")
	}
	if c.Assets.Concurrency < 1 {
		return fmt.Errorf("config: assets.concurrency must be at least 1")
	}
	return nil
}

// PostgresDSN returns Store.DSN, or one built from the Postgres fields.
func (c Config) PostgresDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	p := c.Store.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}
