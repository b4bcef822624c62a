package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msalah0e/flowcanvas/internal/viewport"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Canvas.ReadOnly {
		t.Error("default canvas should be read-only")
	}
	if cfg.Canvas.Routing != "curved" {
		t.Errorf("expected routing 'curved', got %q", cfg.Canvas.Routing)
	}
	if cfg.Parallel.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Parallel.Concurrency)
	}
	if cfg.Serve.Addr == "" {
		t.Error("default serve addr should be set")
	}
}

func TestConfigDir(t *testing.T) {
	// Test with XDG_CONFIG_HOME set
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	dir := ConfigDir()
	if dir != "/tmp/test-xdg/flowcanvas" {
		t.Errorf("expected /tmp/test-xdg/flowcanvas, got %q", dir)
	}

	// Test without XDG_CONFIG_HOME
	t.Setenv("XDG_CONFIG_HOME", "")
	dir = ConfigDir()
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "flowcanvas")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	chdir(t, tmpDir)

	cfg := Default()
	cfg.Parallel.Concurrency = 8
	cfg.Canvas.Routing = "orthogonal"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Parallel.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", loaded.Parallel.Concurrency)
	}
	r, err := loaded.Router()
	if err != nil || r.Name() != "orthogonal" {
		t.Errorf("expected orthogonal router, got %v (%v)", r, err)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.toml")
	os.WriteFile(path, []byte("[canvas\nrouting = 1"), 0o644)

	if _, err := LoadFile(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestEnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	path := filepath.Join(tmpDir, "flowcanvas", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	// Second call should be no-op
	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists second call failed: %v", err)
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "a", "b", "c")
	os.MkdirAll(subDir, 0o755)

	// Write .flowcanvas.toml in the root tmpDir
	os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("[canvas]\nread_only = false\n"), 0o644)

	chdir(t, subDir)

	found := findProjectConfig()
	// Resolve symlinks (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(filepath.Join(tmpDir, ProjectFile))
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != expectedResolved {
		t.Errorf("expected %q, got %q", expectedResolved, foundResolved)
	}

	// The project file overrides the user file.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Canvas.ReadOnly {
		t.Error("project file should make the canvas editable")
	}
}

func TestViewportResolution(t *testing.T) {
	cfg := Default()
	vc, err := cfg.ViewportConfig()
	if err != nil {
		t.Fatalf("ViewportConfig failed: %v", err)
	}
	if vc != viewport.ReadOnlyPreset() {
		t.Errorf("read-only canvas should use the read-only preset, got %+v", vc)
	}

	cfg.Canvas.ReadOnly = false
	vc, _ = cfg.ViewportConfig()
	if vc != viewport.EditorPreset() {
		t.Errorf("editable canvas should use the editor preset, got %+v", vc)
	}

	free := true
	cfg.Viewport = ViewportConfig{Mode: "additive", PanPolicy: "plain", MaxZoom: 4, WheelZoomsFreely: &free}
	vc, err = cfg.ViewportConfig()
	if err != nil {
		t.Fatalf("ViewportConfig failed: %v", err)
	}
	if vc.Mode != viewport.Additive || vc.Policy != viewport.PlainDrag || vc.MaxZoom != 4 || !vc.WheelZoomsFreely {
		t.Errorf("overrides not applied: %+v", vc)
	}

	cfg.Viewport = ViewportConfig{Mode: "spiral"}
	if _, err := cfg.ViewportConfig(); !errors.Is(err, viewport.ErrBadConfig) {
		t.Errorf("expected ErrBadConfig, got %v", err)
	}

	cfg.Viewport = ViewportConfig{MinZoom: 2}
	if _, err := cfg.ViewportConfig(); err == nil {
		t.Error("a range excluding 1 should be rejected")
	}
}

func TestResolvers(t *testing.T) {
	cfg := Default()

	if static, err := cfg.Static(); err != nil || static {
		t.Errorf("default interaction should be interactive, got %v (%v)", static, err)
	}
	cfg.Canvas.Interaction = "static"
	if static, _ := cfg.Static(); !static {
		t.Error("expected static")
	}
	cfg.Canvas.Interaction = "wobbly"
	if _, err := cfg.Static(); err == nil {
		t.Error("expected an error for unknown interaction")
	}

	ttl, err := cfg.SessionTTL()
	if err != nil || ttl != 30*time.Minute {
		t.Errorf("expected 30m, got %v (%v)", ttl, err)
	}
	cfg.Serve.SessionTTL = "-1s"
	if _, err := cfg.SessionTTL(); err == nil {
		t.Error("negative ttl should be rejected")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := cfg.LibraryPath(); got != "/tmp/xdg/flowcanvas/library.db" {
		t.Errorf("unexpected library path %q", got)
	}
	cfg.Library.Path = "/data/wf.db"
	if got := cfg.LibraryPath(); got != "/data/wf.db" {
		t.Errorf("unexpected library path %q", got)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}
