package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	MusicDir        string  `yaml:"music_dir"`
	Verbose         bool    `yaml:"verbose"`
	DryRun          bool    `yaml:"dry_run"`
	Mode            string  `yaml:"mode"`         // automatic, manual, interactive
	GroupPolicy     string  `yaml:"group_policy"` // smart, per-track, album-artist, track-artist
	GenreMode       string  `yaml:"genre_mode"`   // replace, merge
	Locale          string  `yaml:"locale"`
	StoreURL        string  `yaml:"store_url"`
	Threshold       float64 `yaml:"threshold"`
	ThrottleMs      int     `yaml:"throttle_ms"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	MaxResults      int     `yaml:"max_results"`
	PreferredSize   int     `yaml:"preferred_size"`
	EmbedCovers     bool    `yaml:"embed_covers"`
	CachePath       string  `yaml:"cache_path"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"`
	ReportPath      string  `yaml:"report_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Mode:            "automatic",
		GroupPolicy:     "smart",
		GenreMode:       "replace",
		Locale:          "us",
		StoreURL:        "https://music.example.com",
		Threshold:       0.75,
		ThrottleMs:      1500,
		TimeoutSeconds:  20,
		MaxResults:      10,
		PreferredSize:   600,
		CachePath:       filepath.Join(homeDir(), ".cache", "coverscout", "results.json"),
		CacheTTLMinutes: 60,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.MusicDir = ExpandHome(cfg.MusicDir)
	cfg.CachePath = ExpandHome(cfg.CachePath)
	cfg.ReportPath = ExpandHome(cfg.ReportPath)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./coverscout.yaml",
		"./coverscout.yml",
		filepath.Join(home, ".config", "coverscout", "config.yaml"),
		filepath.Join(home, ".config", "coverscout", "config.yml"),
		filepath.Join(home, ".coverscout.yaml"),
		filepath.Join(home, ".coverscout.yml"),
	}

	for _, path := range locations {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "coverscout", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "coverscout", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MusicDir == "" {
		return fmt.Errorf("music_dir cannot be empty")
	}

	if c.StoreURL == "" {
		return fmt.Errorf("store_url cannot be empty")
	}
	if !strings.HasPrefix(c.StoreURL, "http://") && !strings.HasPrefix(c.StoreURL, "https://") {
		return fmt.Errorf("store_url must start with http:// or https://")
	}

	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0, got %.2f", c.Threshold)
	}

	if c.ThrottleMs < 0 {
		return fmt.Errorf("throttle_ms cannot be negative, got %d", c.ThrottleMs)
	}

	if c.CacheTTLMinutes < 0 {
		return fmt.Errorf("cache_ttl_minutes cannot be negative, got %d", c.CacheTTLMinutes)
	}

	switch c.Mode {
	case "", "automatic", "auto", "manual", "interactive":
	default:
		return fmt.Errorf("unknown mode %q, valid modes: automatic, manual, interactive", c.Mode)
	}

	switch c.GroupPolicy {
	case "", "smart", "per-track", "album-artist", "track-artist":
	default:
		return fmt.Errorf("unknown group_policy %q, valid policies: smart, per-track, album-artist, track-artist", c.GroupPolicy)
	}

	switch c.GenreMode {
	case "", "replace", "merge":
	default:
		return fmt.Errorf("unknown genre_mode %q, valid modes: replace, merge", c.GenreMode)
	}

	if c.PreferredSize < 0 {
		return fmt.Errorf("preferred_size cannot be negative, got %d", c.PreferredSize)
	}

	return nil
}
