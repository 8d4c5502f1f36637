// Package watch forwards the contents of a shader file every time it is
// written.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/shaderplay"
)

// ErrNotText is returned by ReadSource for files that are not valid UTF-8.
var ErrNotText = errors.New("watch: file is not UTF-8 text")

// DefaultBuffer is the default capacity of the Sources channel.
const DefaultBuffer = 16

// Option configures a [Watcher].
type Option func(*options)

type options struct {
	buffer int
}

// WithBuffer sets the capacity of the Sources channel.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// Watcher watches one file. The directory holding the file is watched so
// that the watch outlives editors that replace the file on save; events
// for other files in it are ignored.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	sources chan string
	done    chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching path. The file itself does not need to exist yet,
// but its directory does.
func Watch(path string, opts ...Option) (*Watcher, error) {
	o := options{buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    filepath.Clean(abs),
		fs:      fsw,
		sources: make(chan string, o.buffer),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Sources delivers the full file contents after each write, oldest first.
// The channel is closed by Close.
func (w *Watcher) Sources() <-chan string { return w.sources }

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fs.Close()
		w.wg.Wait()
		close(w.sources)
	})
	return w.closeErr
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	log := shaderplay.Logger().With(shaderplay.SubsystemKey, "watch")

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) {
				log.Debug("ignoring file event", "path", event.Name, "op", event.Op.String())
				continue
			}
			src, err := ReadSource(w.path)
			if err != nil {
				log.Warn("shader not reloaded", "path", w.path, "error", err)
				continue
			}
			select {
			case w.sources <- src:
			case <-w.done:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn("file watcher error", "error", err)
		}
	}
}

// ReadSource reads a shader file as text.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNotText, path)
	}
	return string(data), nil
}
