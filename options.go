package shaderplay

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/gputypes"
)

// Defaults for a freshly started playground.
const (
	DefaultShaderPath = "main.wgsl"
	DefaultTitle      = "WGPU Shader Playground"
	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultWatchQueue = 16
)

// ErrInvalidConfig is returned by [NewConfig] when an option value is
// out of range.
var ErrInvalidConfig = errors.New("shaderplay: invalid config")

// DefaultBackends is the order in which graphics backends are tried when
// none is forced. The software rasterizer registers as
// [gputypes.BackendEmpty] and is the last resort.
var DefaultBackends = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Config holds the settings of a playground session.
type Config struct {
	ShaderPath  string
	Title       string
	Width       int
	Height      int
	Backends    []gputypes.Backend
	LogLevel    slog.Level
	GPULogLevel slog.Level

	// WatchQueue is the capacity of the channel between the shader
	// watcher and the render loop.
	WatchQueue int
}

// Option configures a [Config].
//
// Example:
//
//	cfg, err := shaderplay.NewConfig(
//	    shaderplay.WithShaderPath("shaders/plasma.wgsl"),
//	    shaderplay.WithSize(800, 600),
//	)
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ShaderPath:  DefaultShaderPath,
		Title:       DefaultTitle,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Backends:    DefaultBackends,
		LogLevel:    slog.LevelInfo,
		GPULogLevel: slog.LevelWarn,
		WatchQueue:  DefaultWatchQueue,
	}
}

// NewConfig applies opts over the defaults and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	switch {
	case c.ShaderPath == "":
		return fmt.Errorf("%w: empty shader path", ErrInvalidConfig)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case len(c.Backends) == 0:
		return fmt.Errorf("%w: no graphics backend", ErrInvalidConfig)
	case c.WatchQueue <= 0:
		return fmt.Errorf("%w: watch queue capacity %d", ErrInvalidConfig, c.WatchQueue)
	}
	return nil
}

// WithShaderPath sets the fragment shader file that is loaded at startup
// and watched for changes.
func WithShaderPath(path string) Option {
	return func(c *Config) {
		c.ShaderPath = path
	}
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithSize sets the initial window size in screen coordinates.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithBackends restricts device creation to the given backends, tried in
// order.
func WithBackends(backends ...gputypes.Backend) Option {
	return func(c *Config) {
		c.Backends = backends
	}
}

// WithLogLevel sets the minimum level of application log records.
func WithLogLevel(level slog.Level) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithGPULogLevel sets the minimum level of records from the wgpu HAL.
func WithGPULogLevel(level slog.Level) Option {
	return func(c *Config) {
		c.GPULogLevel = level
	}
}

// WithWatchQueue sets the capacity of the shader source channel.
func WithWatchQueue(n int) Option {
	return func(c *Config) {
		c.WatchQueue = n
	}
}

// backendNames maps command line and config file names to backends.
var backendNames = map[string]gputypes.Backend{
	"vulkan":   gputypes.BackendVulkan,
	"metal":    gputypes.BackendMetal,
	"dx12":     gputypes.BackendDX12,
	"gl":       gputypes.BackendGL,
	"gles":     gputypes.BackendGL,
	"software": gputypes.BackendEmpty,
}

// ParseBackends resolves a backend name. "auto" and "" select
// [DefaultBackends].
func ParseBackends(name string) ([]gputypes.Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return DefaultBackends, nil
	}
	b, ok := backendNames[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, name)
	}
	return []gputypes.Backend{b}, nil
}

// ParseLevel resolves a log level name such as "debug" or "warn".
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, name)
	}
	return level, nil
}
