package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration holds the yaql CLI tool settings.
type Configuration struct {
	SchemaDir    string `koanf:"schema_dir" validate:"required"`
	DataDir      string `koanf:"data_dir"`
	Output       string `koanf:"output" validate:"oneof=text yaml"`
	Quiet        bool   `koanf:"quiet"`
	Verbose      bool   `koanf:"verbose"`
	ShowProgress bool   `koanf:"show_progress"` // Show spinners while loading schemas and data
	HistoryFile  string `koanf:"history_file"`
	ExportDir    string `koanf:"export_dir" validate:"required"`
	MinimizeYAML bool   `koanf:"minimize_yaml"` // Export one file per table instead of per row
}

// Load loads configuration from global, local, and environment sources.
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	// Load global config if it exists
	homeDir, err := os.UserHomeDir()
	if err == nil {
		globalPath := filepath.Join(homeDir, ".yaql", "config.json")
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load global config: %w", err)
			}
		}
	}

	// Load local config if it exists
	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load local config: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	k.Load(env.Provider("YAQL_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Quiet && cfg.Verbose {
		return nil, fmt.Errorf("quiet and verbose are mutually exclusive")
	}

	cfg.SchemaDir = expandHomePath(cfg.SchemaDir)
	cfg.DataDir = expandHomePath(cfg.DataDir)
	cfg.ExportDir = expandHomePath(cfg.ExportDir)
	cfg.HistoryFile = expandHomePath(cfg.HistoryFile)

	return &cfg, nil
}

// envTransform converts environment variable names to config keys
// Example: YAQL_SCHEMA_DIR -> schema_dir
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "YAQL_"))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
