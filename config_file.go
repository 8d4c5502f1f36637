package shaderplay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigFilename is the name of the optional settings file looked up next
// to the watched shader.
const ConfigFilename = "shaderplay.yml"

// maxConfigSize bounds the settings file read at startup.
const maxConfigSize = 64 * 1024

// FileConfig is the on-disk form of the settings. Zero values mean
// "keep the default".
type FileConfig struct {
	Shader      string `yaml:"shader"`
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Backend     string `yaml:"backend"`
	LogLevel    string `yaml:"log_level"`
	GPULogLevel string `yaml:"gpu_log_level"`
	WatchQueue  int    `yaml:"watch_queue"`
}

// LoadConfigFile reads and decodes a settings file. A missing file is not
// an error: it yields an empty FileConfig and found=false.
func LoadConfigFile(path string) (cfg FileConfig, found bool, err error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileConfig{}, false, nil
	}
	if err != nil {
		return FileConfig{}, false, fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.Size() > maxConfigSize {
		return FileConfig{}, true, fmt.Errorf("%w: %s is %d bytes", ErrInvalidConfig, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, true, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, true, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, true, nil
}

// Options converts the non-zero fields into options.
func (f FileConfig) Options() ([]Option, error) {
	var opts []Option
	if f.Shader != "" {
		opts = append(opts, WithShaderPath(f.Shader))
	}
	if f.Title != "" {
		opts = append(opts, WithTitle(f.Title))
	}
	if f.Width != 0 || f.Height != 0 {
		w, h := f.Width, f.Height
		if w == 0 {
			w = DefaultWidth
		}
		if h == 0 {
			h = DefaultHeight
		}
		opts = append(opts, WithSize(w, h))
	}
	if f.Backend != "" {
		backends, err := ParseBackends(f.Backend)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBackends(backends...))
	}
	if f.LogLevel != "" {
		level, err := ParseLevel(f.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLogLevel(level))
	}
	if f.GPULogLevel != "" {
		level, err := ParseLevel(f.GPULogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithGPULogLevel(level))
	}
	if f.WatchQueue != 0 {
		opts = append(opts, WithWatchQueue(f.WatchQueue))
	}
	return opts, nil
}
