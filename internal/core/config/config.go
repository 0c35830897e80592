package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aevon-lab/easymoney/internal/sheet"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus the loaded sheets.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Sheets     SheetsConfig     `koanf:"sheets"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Log        LogConfig        `koanf:"log"`

	// SheetRepository is populated by Load after parsing sheet files.
	SheetRepository *sheet.FileSystemRepository `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type SheetsConfig struct {
	Dir              string `koanf:"dir"`
	RequireSheets    bool   `koanf:"require_sheets"`
	CompileCacheSize int    `koanf:"compile_cache_size"`
}

type EvaluationConfig struct {
	BatchMaxItems int `koanf:"batch_max_items"`
	BatchWorkers  int `koanf:"batch_workers"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q (must be debug, info, warn or error)", c.Level)
	}
	return lvl, nil
}

// NewLogger builds the slog logger described by c. Invalid settings fall
// back to info-level text output.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Sheets.Dir) == "" {
		return fmt.Errorf("sheets.dir is required")
	}
	if c.Sheets.CompileCacheSize <= 0 {
		return fmt.Errorf("sheets.compile_cache_size must be > 0")
	}

	if c.Evaluation.BatchMaxItems <= 0 {
		return fmt.Errorf("evaluation.batch_max_items must be > 0")
	}
	if c.Evaluation.BatchWorkers <= 0 {
		return fmt.Errorf("evaluation.batch_workers must be > 0")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics.path %q (must start with /)", c.Metrics.Path)
	}

	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads the sheets.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                8080,
		"server.host":                "0.0.0.0",
		"server.max_body_size_mb":    1,
		"server.mode":                "release",
		"sheets.dir":                 "./sheets",
		"sheets.require_sheets":      false,
		"sheets.compile_cache_size":  64,
		"evaluation.batch_max_items": 1000,
		"evaluation.batch_workers":   4,
		"metrics.enabled":            true,
		"metrics.path":               "/metrics",
		"log.level":                  "info",
		"log.format":                 "text",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("EASYMONEY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "EASYMONEY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := sheet.NewFileSystemRepository(cfg.Sheets.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load sheets: %w", err)
	}
	if cfg.Sheets.RequireSheets {
		sheets, err := repo.List(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to list sheets: %w", err)
		}
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets found in %q", cfg.Sheets.Dir)
		}
	}

	cfg.SheetRepository = repo
	return &cfg, nil
}
