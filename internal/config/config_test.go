package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.MusicDir = "/tmp/music"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty music dir",
			modify:  func(c *Config) { c.MusicDir = "" },
			wantErr: true,
		},
		{
			name:    "empty store url",
			modify:  func(c *Config) { c.StoreURL = "" },
			wantErr: true,
		},
		{
			name:    "store url without scheme",
			modify:  func(c *Config) { c.StoreURL = "music.example.com" },
			wantErr: true,
		},
		{
			name:   "store url with http scheme",
			modify: func(c *Config) { c.StoreURL = "http://localhost:8080" },
		},
		{
			name:   "threshold 0.0",
			modify: func(c *Config) { c.Threshold = 0.0 },
		},
		{
			name:   "threshold 1.0",
			modify: func(c *Config) { c.Threshold = 1.0 },
		},
		{
			name:    "threshold above 1.0",
			modify:  func(c *Config) { c.Threshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative threshold",
			modify:  func(c *Config) { c.Threshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "negative throttle",
			modify:  func(c *Config) { c.ThrottleMs = -100 },
			wantErr: true,
		},
		{
			name:    "negative cache ttl",
			modify:  func(c *Config) { c.CacheTTLMinutes = -1 },
			wantErr: true,
		},
		{
			name:    "negative preferred size",
			modify:  func(c *Config) { c.PreferredSize = -600 },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			modify:  func(c *Config) { c.Mode = "guess" },
			wantErr: true,
		},
		{
			name:   "auto mode alias",
			modify: func(c *Config) { c.Mode = "auto" },
		},
		{
			name:   "interactive mode",
			modify: func(c *Config) { c.Mode = "interactive" },
		},
		{
			name:    "unknown group policy",
			modify:  func(c *Config) { c.GroupPolicy = "by-folder" },
			wantErr: true,
		},
		{
			name:   "per-track policy",
			modify: func(c *Config) { c.GroupPolicy = "per-track" },
		},
		{
			name:    "unknown genre mode",
			modify:  func(c *Config) { c.GenreMode = "append" },
			wantErr: true,
		},
		{
			name:   "merge genre mode",
			modify: func(c *Config) { c.GenreMode = "merge" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `music_dir: /tmp/test-music
mode: interactive
threshold: 0.5
locale: it
max_results: 25
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.MusicDir != "/tmp/test-music" {
		t.Errorf("MusicDir = %q, want %q", cfg.MusicDir, "/tmp/test-music")
	}
	if cfg.Mode != "interactive" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "interactive")
	}
	if cfg.Threshold != 0.5 {
		t.Errorf("Threshold = %f, want 0.5", cfg.Threshold)
	}
	if cfg.Locale != "it" {
		t.Errorf("Locale = %q, want %q", cfg.Locale, "it")
	}
	if cfg.MaxResults != 25 {
		t.Errorf("MaxResults = %d, want 25", cfg.MaxResults)
	}
	if cfg.ThrottleMs != 1500 {
		t.Errorf("ThrottleMs = %d, want default 1500", cfg.ThrottleMs)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Locale != "us" {
		t.Errorf("expected default Locale=us, got %q", cfg.Locale)
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
