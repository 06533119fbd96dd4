package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// HomeEnvVar overrides the default base directory (~/.smartgallery).
const HomeEnvVar = "SMARTGALLERY_HOME"

// Config holds application configuration.
type Config struct {
	// StorageQuotaBytes caps the total bytes held by the key-value store.
	// Writes that would exceed it fail with QUOTA_EXCEEDED.
	StorageQuotaBytes int64 `json:"storage_quota_bytes"`

	// InlineVideoMaxBytes is the largest video stored inline as a data URI.
	// Larger videos get a process-lifetime object URL instead.
	InlineVideoMaxBytes int64 `json:"inline_video_max_bytes"`

	// DefaultFacing is the camera used when a session starts: "user" or "environment".
	DefaultFacing string `json:"default_facing,omitempty"`

	// AnalysisIntervalMS is the period of the advisory lighting analysis.
	AnalysisIntervalMS int `json:"analysis_interval_ms,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "console" or "json".
	LogFormat string `json:"log_format,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.smartgallery/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "gallery", "editor", "camera".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageQuotaBytes:   5 * 1024 * 1024,
		InlineVideoMaxBytes: 2 * 1024 * 1024,
		DefaultFacing:       "environment",
		AnalysisIntervalMS:  1200,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// LoadEnv loads a .env file from dir if present. Existing environment
// variables are never overridden.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// BaseDir resolves the data directory: $SMARTGALLERY_HOME, else homeDir/.smartgallery.
func BaseDir(homeDir string) string {
	if dir := strings.TrimSpace(os.Getenv(HomeEnvVar)); dir != "" {
		return dir
	}
	return filepath.Join(homeDir, ".smartgallery")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.smartgallery) and repo (.smartgallery) directories.
// Repo config is found by walking upward from startDir to find the nearest .smartgallery/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .smartgallery/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".smartgallery", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.StorageQuotaBytes = firstNonZero(overlay.StorageQuotaBytes, base.StorageQuotaBytes)
	result.InlineVideoMaxBytes = firstNonZero(overlay.InlineVideoMaxBytes, base.InlineVideoMaxBytes)
	result.AnalysisIntervalMS = firstNonZero(overlay.AnalysisIntervalMS, base.AnalysisIntervalMS)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.DefaultFacing = firstNonZero(strings.TrimSpace(overlay.DefaultFacing), base.DefaultFacing)
	result.LogLevel = firstNonZero(strings.TrimSpace(overlay.LogLevel), base.LogLevel)
	result.LogFormat = firstNonZero(strings.TrimSpace(overlay.LogFormat), base.LogFormat)

	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonZero[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
