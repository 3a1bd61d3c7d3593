// Package config resolves the tool's settings from defaults, an optional TOML
// file and SKETCH_DATASET_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"sketchdataset/internal/core/domain"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "SKETCH_DATASET_"

// Config holds the resolved settings.
type Config struct {
	SketchtoolPath string  `toml:"sketchtool_path"`
	OutputDir      string  `toml:"output_dir"`
	SimDir         string  `toml:"sim_dir"`
	ErrorLog       string  `toml:"error_log"`
	Workers        int     `toml:"workers"`
	CacheSize      int     `toml:"cache_size"`
	Threshold      float64 `toml:"threshold"`
	ExportRate     float64 `toml:"export_rate"`
	Verbose        bool    `toml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OutputDir: "output",
		SimDir:    "sim",
		ErrorLog:  "error.txt",
		Workers:   8,
		CacheSize: 128,
		Threshold: 500,
	}
}

// Load resolves the config. An empty path skips the file; a path that does
// not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory is not specified", domain.ErrInvalidInput)
	case c.SimDir == "":
		return fmt.Errorf("%w: sim directory is not specified", domain.ErrInvalidInput)
	case c.ErrorLog == "":
		return fmt.Errorf("%w: error log path is not specified", domain.ErrInvalidInput)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be > 0, got %d", domain.ErrInvalidInput, c.Workers)
	case c.CacheSize <= 0:
		return fmt.Errorf("%w: cache size must be > 0, got %d", domain.ErrInvalidInput, c.CacheSize)
	case c.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be > 0, got %g", domain.ErrInvalidInput, c.Threshold)
	case c.ExportRate < 0:
		return fmt.Errorf("%w: export rate must be >= 0, got %g", domain.ErrInvalidInput, c.ExportRate)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.SketchtoolPath = getenv("SKETCHTOOL", cfg.SketchtoolPath)
	cfg.OutputDir = getenv("OUTPUT_DIR", cfg.OutputDir)
	cfg.SimDir = getenv("SIM_DIR", cfg.SimDir)
	cfg.ErrorLog = getenv("ERROR_LOG", cfg.ErrorLog)

	var err error
	if cfg.Workers, err = getenvInt("WORKERS", cfg.Workers); err != nil {
		return err
	}
	if cfg.CacheSize, err = getenvInt("CACHE_SIZE", cfg.CacheSize); err != nil {
		return err
	}
	if cfg.Threshold, err = getenvFloat("THRESHOLD", cfg.Threshold); err != nil {
		return err
	}
	if cfg.ExportRate, err = getenvFloat("EXPORT_RATE", cfg.ExportRate); err != nil {
		return err
	}
	if raw := os.Getenv(EnvPrefix + "VERBOSE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %sVERBOSE: %w", domain.ErrInvalidInput, EnvPrefix, err)
		}
		cfg.Verbose = v
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s%s: %w", domain.ErrInvalidInput, EnvPrefix, key, err)
	}
	return v, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s%s: %w", domain.ErrInvalidInput, EnvPrefix, key, err)
	}
	return v, nil
}
