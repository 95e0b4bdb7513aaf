// Package config loads strata's configuration: a global file in the
// user's home directory merged with a repository-local file, repo
// values overriding global ones field by field.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds everything the core snapshot engine needs that isn't
// passed explicitly on the command line.
type Config struct {
	User  UserConfig  `json:"user"`
	Core  CoreConfig  `json:"core"`
	Color ColorConfig `json:"color"`
}

// UserConfig identifies who is committing revisions.
type UserConfig struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CoreConfig carries the values the snapshot engine needs but doesn't
// hard-code: where the revision store lives and whether new blobs
// should be zlib-compressed (§5, §9), plus the pager. The working
// directory is not configured here; the CLI uses the current one.
type CoreConfig struct {
	StoreDir      string `json:"store_dir,omitempty"`
	CompressFiles bool   `json:"compress_files"`
	Pager         string `json:"pager,omitempty"`
}

// ColorConfig toggles colored CLI output.
type ColorConfig struct {
	UI     bool `json:"ui"`
	Status bool `json:"status"`
}

const (
	storeDirName  = ".strata"
	repoConfigRel = ".strata/config"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			StoreDir:      storeDirName,
			CompressFiles: true,
			Pager:         os.Getenv("PAGER"),
		},
		Color: ColorConfig{
			UI:     true,
			Status: true,
		},
	}
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".strataconfig"), nil
}

func repoConfigPath() string {
	return repoConfigRel
}

// LoadConfig loads the global config, then merges the repo-local one
// over it (repo values win field by field).
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if globalPath, err := globalConfigPath(); err == nil {
		if data, err := os.ReadFile(globalPath); err == nil {
			var globalCfg Config
			if err := json.Unmarshal(data, &globalCfg); err == nil {
				mergeConfig(cfg, &globalCfg)
			}
		}
	}

	if data, err := os.ReadFile(repoConfigPath()); err == nil {
		var repoCfg Config
		if err := json.Unmarshal(data, &repoCfg); err == nil {
			mergeConfig(cfg, &repoCfg)
		}
	}

	return cfg, nil
}

// SaveGlobalConfig writes cfg to the global config file.
func SaveGlobalConfig(cfg *Config) error {
	globalPath, err := globalConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(globalPath, data, 0o644)
}

// SaveRepoConfig writes cfg to the repository-local config file,
// creating its containing directory if needed.
func SaveRepoConfig(cfg *Config) error {
	repoPath := repoConfigPath()
	if err := os.MkdirAll(filepath.Dir(repoPath), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(repoPath), err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(repoPath, data, 0o644)
}

// GetValue retrieves a configuration value by "section.key".
func GetValue(key string) (string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}

	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "user":
		switch field {
		case "name":
			return cfg.User.Name, nil
		case "email":
			return cfg.User.Email, nil
		}
	case "core":
		switch field {
		case "store_dir":
			return cfg.Core.StoreDir, nil
		case "compress_files":
			return fmt.Sprintf("%t", cfg.Core.CompressFiles), nil
		case "pager":
			return cfg.Core.Pager, nil
		}
	case "color":
		switch field {
		case "ui":
			return fmt.Sprintf("%t", cfg.Color.UI), nil
		case "status":
			return fmt.Sprintf("%t", cfg.Color.Status), nil
		}
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// SetValue sets a configuration value by "section.key", persisting to
// either the global or repo-local file.
func SetValue(key, value string, global bool) error {
	var cfg *Config
	var path string
	if global {
		p, err := globalConfigPath()
		if err != nil {
			return err
		}
		path = p
	} else {
		path = repoConfigPath()
	}

	cfg = DefaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			cfg = DefaultConfig()
		}
	}

	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "user":
		switch field {
		case "name":
			cfg.User.Name = value
		case "email":
			cfg.User.Email = value
		default:
			return fmt.Errorf("unknown user config field: %s", field)
		}
	case "core":
		switch field {
		case "store_dir":
			cfg.Core.StoreDir = value
		case "compress_files":
			cfg.Core.CompressFiles = value == "true"
		case "pager":
			cfg.Core.Pager = value
		default:
			return fmt.Errorf("unknown core config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			cfg.Color.UI = value == "true"
		case "status":
			cfg.Color.Status = value == "true"
		default:
			return fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return fmt.Errorf("unknown config section: %s", section)
	}

	if global {
		return SaveGlobalConfig(cfg)
	}
	return SaveRepoConfig(cfg)
}

// GetAuthor returns the formatted author string "Name <email>".
func GetAuthor() (string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if cfg.User.Name == "" || cfg.User.Email == "" {
		return "", fmt.Errorf(`user.name and user.email not configured. Run: strata config user.name "Your Name" && strata config user.email "you@example.com"`)
	}
	return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email), nil
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}
	return parts[0], parts[1], nil
}

// mergeConfig overlays non-empty fields of src onto dst; bool fields
// are always overlaid since there's no empty-bool sentinel.
func mergeConfig(dst, src *Config) {
	if src.User.Name != "" {
		dst.User.Name = src.User.Name
	}
	if src.User.Email != "" {
		dst.User.Email = src.User.Email
	}
	if src.Core.StoreDir != "" {
		dst.Core.StoreDir = src.Core.StoreDir
	}
	if src.Core.Pager != "" {
		dst.Core.Pager = src.Core.Pager
	}
	dst.Core.CompressFiles = src.Core.CompressFiles
	dst.Color.UI = src.Color.UI
	dst.Color.Status = src.Color.Status
}
