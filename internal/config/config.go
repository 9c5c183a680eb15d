package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// RepoConfigName is the per-repository configuration file, found by
// walking upward from the working directory.
const RepoConfigName = ".msgkeep.json"

// Config holds application configuration.
type Config struct {
	// CommentChar is the comment character git uses in commit message
	// files. Lines starting with it are stripped during capture and it
	// prefixes the restore marker lines. Empty means ask git for
	// core.commentChar, falling back to "#".
	CommentChar string `json:"comment_char,omitempty"`

	// LogLevel controls diagnostic log verbosity: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// CacheDir overrides the directory holding the message database and
	// log file. Empty means the platform user cache directory.
	CacheDir string `json:"cache_dir,omitempty"`

	// Disabled turns preservation off entirely. Capture and restore
	// become no-ops; wrapped validation logic still runs.
	Disabled bool `json:"disabled,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// Load loads configuration from globalDir/config.json overlaid by the
// nearest .msgkeep.json found walking upward from startDir.
// Repo config takes precedence for scalar values. Either or both files
// may be missing.
func Load(globalDir, startDir string) (*Config, error) {
	global := &Config{}
	if globalDir != "" {
		var err error
		global, err = loadFileRaw(filepath.Join(globalDir, "config.json"))
		if err != nil {
			return nil, err
		}
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .msgkeep.json. Returns the path if found, or empty string if not.
func FindRepoConfig(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(dir, RepoConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
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

// Merge combines base and overlay configs.
// Overlay values take precedence for non-empty scalars; booleans are ORed.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.CommentChar = overlay.CommentChar
	if result.CommentChar == "" {
		result.CommentChar = base.CommentChar
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.CacheDir = overlay.CacheDir
	if result.CacheDir == "" {
		result.CacheDir = base.CacheDir
	}

	result.Disabled = base.Disabled || overlay.Disabled

	return result
}
