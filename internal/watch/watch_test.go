package watch

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

func newShaderFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.wgsl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write shader: %v", err)
	}
	return path
}

func startWatch(t *testing.T, path string, opts ...Option) *Watcher {
	t.Helper()
	w, err := Watch(path, opts...)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// waitFor reads sources until want arrives. A write can surface as several
// events (truncate, then data), so every earlier value must be a prefix
// of want or a late duplicate of a previous write listed in stale.
func waitFor(t *testing.T, w *Watcher, want string, stale ...string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got, ok := <-w.Sources():
			if !ok {
				t.Fatalf("Sources closed before %q arrived", want)
			}
			if got == want {
				return
			}
			if !strings.HasPrefix(want, got) && !slices.Contains(stale, got) {
				t.Fatalf("unexpected source %q while waiting for %q", got, want)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestWatchDeliversWrites(t *testing.T) {
	path := newShaderFile(t, "initial")
	w := startWatch(t, path)

	if err := os.WriteFile(path, []byte("second version"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "second version")

	if err := os.WriteFile(path, []byte("third"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "third", "second version")
}

func TestWatchIgnoresOtherEvents(t *testing.T) {
	path := newShaderFile(t, "initial")
	w := startWatch(t, path)
	dir := filepath.Dir(path)

	// Writes to a sibling file, permission changes and new files do not
	// reload the shader.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("initial"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if err := os.WriteFile(path, []byte("marker"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "marker")
}

func TestWatchSkipsUnreadableContent(t *testing.T) {
	path := newShaderFile(t, "initial")
	w := startWatch(t, path)

	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	if err := os.WriteFile(path, []byte("recovered"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "recovered")
}

func TestWatchMissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing", "main.wgsl"))
	if err == nil {
		t.Fatal("Watch succeeded on a missing directory")
	}
}

func TestWatchPathIsAbsolute(t *testing.T) {
	path := newShaderFile(t, "initial")
	w := startWatch(t, path)
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
}

func TestCloseClosesSources(t *testing.T) {
	path := newShaderFile(t, "initial")
	w, err := Watch(path, WithBuffer(1))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if cap(w.sources) != 1 {
		t.Errorf("buffer = %d, want 1", cap(w.sources))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	select {
	case _, ok := <-w.Sources():
		if ok {
			t.Error("Sources delivered a value after Close")
		}
	case <-time.After(waitTimeout):
		t.Error("Sources not closed after Close")
	}
}

func TestReadSource(t *testing.T) {
	path := newShaderFile(t, "@fragment fn fs_main() {}")
	got, err := ReadSource(path)
	if err != nil || got != "@fragment fn fs_main() {}" {
		t.Errorf("ReadSource = %q, %v", got, err)
	}

	bin := filepath.Join(t.TempDir(), "bin.wgsl")
	if err := os.WriteFile(bin, []byte{0xc3, 0x28}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSource(bin); !errors.Is(err, ErrNotText) {
		t.Errorf("ReadSource(binary) error = %v, want ErrNotText", err)
	}

	if _, err := ReadSource(filepath.Join(t.TempDir(), "nope.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadSource(missing) error = %v, want ErrNotExist", err)
	}
}
