// Command shaderplay opens a window that renders a WGSL fragment shader
// over the whole window and reloads it every time the file is saved.
//
// Usage:
//
//	shaderplay [-shader main.wgsl] [-init] [-backend vulkan] [-config shaderplay.yml]
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gogpu/shaderplay"
	"github.com/gogpu/shaderplay/internal/app"
	"github.com/gogpu/shaderplay/internal/render"
	"github.com/gogpu/shaderplay/internal/watch"
	"github.com/gogpu/shaderplay/internal/window"
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

//go:embed starter.wgsl
var starterShader string

func init() {
	// GLFW and most GPU drivers must be driven from the main thread.
	runtime.LockOSThread()
}

type flags struct {
	shader      string
	config      string
	title       string
	width       int
	height      int
	backend     string
	logLevel    string
	gpuLogLevel string
	initShader  bool
	version     bool
}

func parseFlags(fset *flag.FlagSet, args []string) (flags, error) {
	var f flags
	fset.StringVar(&f.shader, "shader", shaderplay.DefaultShaderPath, "fragment shader to watch")
	fset.StringVar(&f.config, "config", "", "settings file (default: "+shaderplay.ConfigFilename+" next to the shader)")
	fset.StringVar(&f.title, "title", shaderplay.DefaultTitle, "window title")
	fset.IntVar(&f.width, "width", shaderplay.DefaultWidth, "initial window width")
	fset.IntVar(&f.height, "height", shaderplay.DefaultHeight, "initial window height")
	fset.StringVar(&f.backend, "backend", "auto", "graphics backend: auto, vulkan, metal, dx12, gl, software")
	fset.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fset.StringVar(&f.gpuLogLevel, "gpu-log-level", "warn", "log level of the graphics backend")
	fset.BoolVar(&f.initShader, "init", false, "write a starter shader if the file does not exist")
	fset.BoolVar(&f.version, "version", false, "print the version and exit")
	return f, fset.Parse(args)
}

// loadConfig merges the settings file and the flags. Flags given on the
// command line win over the file.
func loadConfig(fset *flag.FlagSet, f flags) (shaderplay.Config, error) {
	set := make(map[string]bool)
	fset.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	configPath := f.config
	if configPath == "" {
		configPath = filepath.Join(filepath.Dir(f.shader), shaderplay.ConfigFilename)
	}
	file, found, err := shaderplay.LoadConfigFile(configPath)
	if err != nil {
		return shaderplay.Config{}, err
	}
	if !found && set["config"] {
		return shaderplay.Config{}, fmt.Errorf("config %s: %w", configPath, fs.ErrNotExist)
	}
	opts, err := file.Options()
	if err != nil {
		return shaderplay.Config{}, fmt.Errorf("config %s: %w", configPath, err)
	}

	if set["shader"] {
		opts = append(opts, shaderplay.WithShaderPath(f.shader))
	}
	if set["title"] {
		opts = append(opts, shaderplay.WithTitle(f.title))
	}
	if set["width"] || set["height"] {
		opts = append(opts, shaderplay.WithSize(f.width, f.height))
	}
	if set["backend"] {
		backends, err := shaderplay.ParseBackends(f.backend)
		if err != nil {
			return shaderplay.Config{}, err
		}
		opts = append(opts, shaderplay.WithBackends(backends...))
	}
	if set["log-level"] {
		level, err := shaderplay.ParseLevel(f.logLevel)
		if err != nil {
			return shaderplay.Config{}, err
		}
		opts = append(opts, shaderplay.WithLogLevel(level))
	}
	if set["gpu-log-level"] {
		level, err := shaderplay.ParseLevel(f.gpuLogLevel)
		if err != nil {
			return shaderplay.Config{}, err
		}
		opts = append(opts, shaderplay.WithGPULogLevel(level))
	}
	return shaderplay.NewConfig(opts...)
}

// writeStarter creates path with the starter shader unless it exists.
func writeStarter(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := f.WriteString(starterShader); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

func main() {
	fset := flag.NewFlagSet("shaderplay", flag.ExitOnError)
	f, err := parseFlags(fset, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if f.version {
		fmt.Println("shaderplay", shaderplay.Version)
		return
	}

	cfg, err := loadConfig(fset, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shaderplay:", err)
		os.Exit(2)
	}
	shaderplay.SetLogger(shaderplay.NewLogger(os.Stderr, cfg.LogLevel, cfg.GPULogLevel))

	if f.initShader {
		created, err := writeStarter(cfg.ShaderPath)
		if err != nil {
			shaderplay.Logger().Error("write starter shader", "path", cfg.ShaderPath, "error", err)
			os.Exit(1)
		}
		if created {
			shaderplay.Logger().Info("starter shader written", "path", cfg.ShaderPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		shaderplay.Logger().Error("shaderplay stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg shaderplay.Config) error {
	log := shaderplay.Logger()

	src, err := watch.ReadSource(cfg.ShaderPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w (run with -init to create a starter shader)", err)
		}
		return err
	}

	win, err := window.New(cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()

	dev, err := render.Open(win, cfg.Backends)
	if err != nil {
		return err
	}

	width, height := win.FramebufferSize()
	gpu, err := render.New(dev, width, height, src)
	if err != nil {
		return err
	}
	defer gpu.Destroy()
	log.Info("window ready",
		"title", cfg.Title, "window", window.Describe(win),
		"adapter", gpu.Info().Name, "type", gpu.Info().Type.String())

	watcher, err := watch.Watch(cfg.ShaderPath, watch.WithBuffer(cfg.WatchQueue))
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn("close watcher", "error", err)
		}
	}()
	log.Info("watching shader", "path", watcher.Path())

	return app.New(win, gpu, watcher.Sources()).Run(ctx)
}
