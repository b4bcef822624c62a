package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/canvas"
	"github.com/msalah0e/flowcanvas/internal/config"
	"github.com/msalah0e/flowcanvas/internal/library"
	"github.com/msalah0e/flowcanvas/internal/logging"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/workflow"
)

// Workflow references accepted wherever a command takes a workflow.
const (
	refDemo    = "demo"
	refStdin   = "-"
	refLibrary = "lib:"
)

// loadWorkflow resolves a reference: a file path, "-" for stdin, "demo" for
// the built-in sample, or "lib:<id>" for a library entry. format overrides
// extension-based detection.
func loadWorkflow(ctx context.Context, ref, format string) (workflow.Workflow, error) {
	switch {
	case ref == refDemo:
		return workflow.Sample(), nil
	case ref == refStdin:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return workflow.Workflow{}, err
		}
		if format == "" {
			format = workflow.FormatJSON
		}
		return workflow.Decode(data, format)
	case strings.HasPrefix(ref, refLibrary):
		lib, err := openLibrary()
		if err != nil {
			return workflow.Workflow{}, err
		}
		defer lib.Close()
		return lib.Get(ctx, strings.TrimPrefix(ref, refLibrary))
	}
	if format == "" {
		return workflow.LoadFile(ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return workflow.Workflow{}, err
	}
	return workflow.Decode(data, format)
}

func openLibrary() (*library.Store, error) {
	if cfg == nil {
		// Shell completion runs without the root pre-run hook.
		cfg, _ = config.Load()
	}
	return library.Open(cfg.LibraryPath())
}

// canvasOptions builds host options from the loaded config.
func canvasOptions() (canvas.Options, error) {
	router, err := cfg.Router()
	if err != nil {
		return canvas.Options{}, err
	}
	static, err := cfg.Static()
	if err != nil {
		return canvas.Options{}, err
	}
	vc, err := cfg.ViewportConfig()
	if err != nil {
		return canvas.Options{}, err
	}
	opts := canvas.Options{
		ReadOnly:   cfg.Canvas.ReadOnly,
		Viewport:   vc,
		Router:     router,
		HideLabels: cfg.Canvas.HideLabels,
		Logger:     logging.L(),
	}
	if static {
		opts.Interaction = canvas.Static
	}
	return opts, nil
}

func renderOptions() render.Options {
	return render.Options{
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		Background: cfg.Render.Background,
	}
}

// openBrowser opens path with the platform's default handler.
func openBrowser(path string) error {
	var openCmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		openCmd = exec.Command("open", path)
	case "linux":
		openCmd = exec.Command("xdg-open", path)
	default:
		openCmd = exec.Command("cmd", "/c", "start", path)
	}
	if err := openCmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
