package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msalah0e/flowcanvas/internal/config"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/workflow"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"flows/lead.json", "lead"},
		{"a.b.yaml", "a.b"},
		{"demo", "demo"},
		{"-", "stdin"},
		{"lib:abc-123", "abc-123"},
	}
	for _, tt := range tests {
		if got := outputName(tt.ref); got != tt.want {
			t.Errorf("outputName(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.svg", "svg"},
		{"out.PNG", "png"},
		{"graph.gv", "dot"},
		{"page.htm", "html"},
		{"flow.yml", "yaml"},
		{"flow.toml", "toml"},
		{"flow.pdf", "pdf"},
	}
	for _, tt := range tests {
		if got := formatForPath(tt.path); got != tt.want {
			t.Errorf("formatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if knownFormat("pdf") {
		t.Error("pdf should not be a known format")
	}
	if !knownFormat("toml") || !knownFormat("dot") {
		t.Error("toml and dot should be known formats")
	}
}

func TestRenderOne(t *testing.T) {
	cfg = config.Default()
	opts, err := canvasOptions()
	if err != nil {
		t.Fatalf("canvasOptions failed: %v", err)
	}
	job := renderJob{format: "svg", fit: true, opts: opts, ropts: renderOptions()}

	var buf bytes.Buffer
	if err := renderOne(context.Background(), refDemo, job, &buf); err != nil {
		t.Fatalf("renderOne failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("expected an svg document, got %.40q", out)
	}
	if strings.Contains(out, "scale(1)\"") {
		t.Error("fit should change the zoom of the demo workflow")
	}

	job.format = workflow.FormatYAML
	buf.Reset()
	if err := renderOne(context.Background(), refDemo, job, &buf); err != nil {
		t.Fatalf("renderOne yaml failed: %v", err)
	}
	wf, err := workflow.Decode(buf.Bytes(), workflow.FormatYAML)
	if err != nil {
		t.Fatalf("yaml output does not decode: %v", err)
	}
	if wf.Name != workflow.Sample().Name {
		t.Errorf("expected %q, got %q", workflow.Sample().Name, wf.Name)
	}

	job.format = workflow.FormatTOML
	buf.Reset()
	if err := renderOne(context.Background(), refDemo, job, &buf); err != nil {
		t.Fatalf("renderOne toml failed: %v", err)
	}
	if wf, err = workflow.Decode(buf.Bytes(), workflow.FormatTOML); err != nil {
		t.Fatalf("toml output does not decode: %v", err)
	}
	if len(wf.Nodes) != len(workflow.Sample().Nodes) {
		t.Errorf("expected %d nodes, got %d", len(workflow.Sample().Nodes), len(wf.Nodes))
	}

	job.format = "svg"
	job.selectID = "missing"
	if err := renderOne(context.Background(), refDemo, job, &buf); err == nil {
		t.Error("selecting an unknown node should fail")
	}
}

func TestRenderFromLibrary(t *testing.T) {
	dir := t.TempDir()
	cfg = config.Default()
	cfg.Library.Path = filepath.Join(dir, "library.db")

	lib, err := openLibrary()
	if err != nil {
		t.Fatalf("openLibrary failed: %v", err)
	}
	if err := lib.Put(context.Background(), workflow.Sample(), "test"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	lib.Close()

	opts, _ := canvasOptions()
	job := renderJob{format: string(render.FormatDOT), opts: opts}
	dest := filepath.Join(dir, "out", "flow.dot")
	if err := renderToFile(context.Background(), refLibrary+workflow.Sample().ID, job, dest); err != nil {
		t.Fatalf("renderToFile failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph") {
		t.Errorf("expected DOT output, got %.40q", data)
	}

	if _, err := loadWorkflow(context.Background(), refLibrary+"missing", ""); err == nil {
		t.Error("missing library id should fail")
	}
}
