package shaderplay

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFilename)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, found, err := LoadConfigFile(filepath.Join(t.TempDir(), ConfigFilename))
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if found {
		t.Error("found = true for a missing file")
	}
	if cfg != (FileConfig{}) {
		t.Errorf("cfg = %+v, want zero", cfg)
	}
}

func TestLoadConfigFileApplies(t *testing.T) {
	path := writeConfig(t, `
shader: plasma.wgsl
title: Plasma
width: 800
backend: gl
log_level: debug
gpu_log_level: error
watch_queue: 4
`)
	fc, found, err := LoadConfigFile(path)
	if err != nil || !found {
		t.Fatalf("LoadConfigFile() = found %v, error %v", found, err)
	}

	opts, err := fc.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	cfg, err := NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.ShaderPath != "plasma.wgsl" || cfg.Title != "Plasma" {
		t.Errorf("path/title = %q/%q", cfg.ShaderPath, cfg.Title)
	}
	// Height is absent and falls back to the default.
	if cfg.Width != 800 || cfg.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want 800x%d", cfg.Width, cfg.Height, DefaultHeight)
	}
	if !slices.Equal(cfg.Backends, []gputypes.Backend{gputypes.BackendGL}) {
		t.Errorf("Backends = %v", cfg.Backends)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.GPULogLevel != slog.LevelError {
		t.Errorf("levels = %v/%v", cfg.LogLevel, cfg.GPULogLevel)
	}
	if cfg.WatchQueue != 4 {
		t.Errorf("WatchQueue = %d, want 4", cfg.WatchQueue)
	}
}

func TestLoadConfigFileFlagsOverride(t *testing.T) {
	path := writeConfig(t, "title: from-file\nwidth: 300\nheight: 200\n")
	fc, _, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	opts, err := fc.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	cfg, err := NewConfig(append(opts, WithTitle("from-flag"))...)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if cfg.Title != "from-flag" {
		t.Errorf("Title = %q, want from-flag", cfg.Title)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Errorf("size = %dx%d, want 300x200", cfg.Width, cfg.Height)
	}
}

func TestLoadConfigFileMalformed(t *testing.T) {
	path := writeConfig(t, "width: [1, 2\n")
	_, found, err := LoadConfigFile(path)
	if !found {
		t.Error("found = false for an existing file")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestFileConfigBadValues(t *testing.T) {
	tests := []struct {
		name string
		fc   FileConfig
	}{
		{"backend", FileConfig{Backend: "glide"}},
		{"log level", FileConfig{LogLevel: "chatty"}},
		{"gpu log level", FileConfig{GPULogLevel: "chatty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fc.Options(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Options() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
