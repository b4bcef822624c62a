//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var flowcanvasBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "flowcanvas-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	flowcanvasBin = filepath.Join(tmp, "flowcanvas")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/flowcanvas/cmd.version=0.3.0-test", "-o", flowcanvasBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build flowcanvas: " + err.Error())
	}

	os.Exit(m.Run())
}

// runFlowcanvas executes the binary with an isolated HOME directory.
func runFlowcanvas(t *testing.T, home string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(flowcanvasBin, args...)
	if home == "" {
		home = t.TempDir()
	}
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run flowcanvas %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := runFlowcanvas(t, "", "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.3.0-test") {
		t.Errorf("expected version output to contain '0.3.0-test', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runFlowcanvas(t, "", "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, sub := range []string{"render", "serve", "library"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got %q", sub, out)
		}
	}
}

// --- Render ---

func TestE2E_RenderDemoSVG(t *testing.T) {
	out, _, code := runFlowcanvas(t, "", "render", "demo")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, `class="viewport"`) {
		t.Errorf("expected an svg canvas, got %.80q", out)
	}
}

func TestE2E_RenderToFiles(t *testing.T) {
	home := t.TempDir()
	for _, name := range []string{"demo.png", "demo.html", "demo.dot", "demo.yaml"} {
		_, errOut, code := runFlowcanvas(t, home, "render", "demo", "-o", name)
		if code != 0 {
			t.Fatalf("render %s: exit %d: %s", name, code, errOut)
		}
		info, err := os.Stat(filepath.Join(home, name))
		if err != nil || info.Size() == 0 {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
}

func TestE2E_RenderUnknownFormat(t *testing.T) {
	_, _, code := runFlowcanvas(t, "", "render", "demo", "--format", "pdf")
	if code == 0 {
		t.Fatal("expected non-zero exit for unknown format")
	}
}

func TestE2E_RenderBatch(t *testing.T) {
	home := t.TempDir()
	if _, _, code := runFlowcanvas(t, home, "render", "demo", "-o", "a.json"); code != 0 {
		t.Fatalf("export failed: %d", code)
	}
	if _, _, code := runFlowcanvas(t, home, "render", "demo", "-o", "b.toml"); code != 0 {
		t.Fatalf("export failed: %d", code)
	}
	_, errOut, code := runFlowcanvas(t, home, "render", "a.json", "b.toml", "--out-dir", "out", "--format", "svg")
	if code != 0 {
		t.Fatalf("batch render failed: %d: %s", code, errOut)
	}
	for _, name := range []string{"a.svg", "b.svg"} {
		if _, err := os.Stat(filepath.Join(home, "out", name)); err != nil {
			t.Errorf("expected out/%s: %v", name, err)
		}
	}
}

// --- Inspect / validate ---

func TestE2E_Inspect(t *testing.T) {
	out, _, code := runFlowcanvas(t, "", "inspect", "demo")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Webhook Input") || !strings.Contains(out, "POST") {
		t.Errorf("expected node and webhook label in output, got %q", out)
	}
}

func TestE2E_ValidateDemo(t *testing.T) {
	_, _, code := runFlowcanvas(t, "", "validate", "demo")
	if code != 0 {
		t.Fatalf("expected exit 0 for the demo workflow, got %d", code)
	}
}

func TestE2E_ValidateBroken(t *testing.T) {
	home := t.TempDir()
	broken := `{"name":"broken","nodes":[{"id":"a","name":"A","type":"set"}],"connections":{"A":{"main":[[{"node":"Ghost","index":0}]]}}}`
	if err := os.WriteFile(filepath.Join(home, "broken.json"), []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, code := runFlowcanvas(t, home, "validate", "broken.json")
	if code == 0 {
		t.Fatal("expected non-zero exit for a broken workflow")
	}
	if !strings.Contains(out, "missing-position") || !strings.Contains(out, "dangling-target") {
		t.Errorf("expected issue kinds in output, got %q", out)
	}
}

// --- Library ---

func TestE2E_Library(t *testing.T) {
	home := t.TempDir()
	if _, errOut, code := runFlowcanvas(t, home, "library", "import", "demo"); code != 0 {
		t.Fatalf("import failed: %d: %s", code, errOut)
	}
	out, _, code := runFlowcanvas(t, home, "library", "list")
	if code != 0 || !strings.Contains(out, "B2B SaaS Lead Qualification") {
		t.Fatalf("expected the demo in the library, got %d %q", code, out)
	}
	id := "550e8400-e29b-41d4-a716-446655440001"
	out, _, code = runFlowcanvas(t, home, "render", "lib:"+id, "--format", "dot")
	if code != 0 || !strings.HasPrefix(out, "digraph") {
		t.Fatalf("expected DOT from library render, got %d %.40q", code, out)
	}
	if _, _, code := runFlowcanvas(t, home, "library", "remove", id); code != 0 {
		t.Fatalf("remove failed: %d", code)
	}
	if _, _, code := runFlowcanvas(t, home, "library", "show", id); code == 0 {
		t.Fatal("expected non-zero exit after removal")
	}
}

// --- Config ---

func TestE2E_ConfigInit(t *testing.T) {
	home := t.TempDir()
	if _, _, code := runFlowcanvas(t, home, "config", "init"); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "flowcanvas", "config.toml")); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	out, _, code := runFlowcanvas(t, home, "config", "show")
	if code != 0 || !strings.Contains(out, "[canvas]") {
		t.Errorf("expected the effective config, got %d %q", code, out)
	}
}

func TestE2E_BrokenProjectConfig(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, ".flowcanvas.toml"), []byte("[canvas]\nrouting = \"zigzag\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, code := runFlowcanvas(t, home, "render", "demo")
	if code == 0 {
		t.Fatal("expected non-zero exit for an unknown routing")
	}
}

// --- Completion ---

func TestE2E_CompletionZsh(t *testing.T) {
	out, _, code := runFlowcanvas(t, "", "completion", "zsh")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(out) == 0 {
		t.Error("expected zsh completion output, got empty")
	}
}
