package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/canvas"
	"github.com/msalah0e/flowcanvas/internal/logging"
	"github.com/msalah0e/flowcanvas/internal/parallel"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/ui"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// renderJob is one resolved render invocation shared by every input.
type renderJob struct {
	format      string // a render.Format or a workflow format
	inputFormat string
	fit         bool
	zoom        int
	panX, panY  float64
	selectID    string
	opts        canvas.Options
	ropts       render.Options
}

func renderCmd() *cobra.Command {
	var (
		output      string
		outDir      string
		format      string
		inputFormat string
		routing     string
		width       float64
		height      float64
		fit         bool
		zoom        int
		panX, panY  float64
		selectID    string
		hideLabels  bool
		static      bool
	)

	cmd := &cobra.Command{
		Use:   "render <workflow>...",
		Short: "Render workflows to SVG, PNG, HTML or DOT",
		Long: `Render one or more workflows. A workflow is a file (.json, .yaml, .toml),
"-" for stdin, "demo" for the built-in sample, or lib:<id> for a library entry.

  flowcanvas render flow.json -o flow.svg
  flowcanvas render demo --format html -o demo.html
  flowcanvas render flows/*.json --out-dir out --format png
  flowcanvas render flow.yaml --format json     # normalize to JSON`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: libraryCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output takes a single workflow; use --out-dir for batches")
			}
			if cmd.Flags().Changed("routing") {
				cfg.Canvas.Routing = routing
			}
			if cmd.Flags().Changed("hide-labels") {
				cfg.Canvas.HideLabels = hideLabels
			}
			if static {
				cfg.Canvas.Interaction = "static"
			}
			if width > 0 {
				cfg.Render.Width = width
			}
			if height > 0 {
				cfg.Render.Height = height
			}
			if !cmd.Flags().Changed("fit") {
				fit = cfg.Render.Fit
			}

			opts, err := canvasOptions()
			if err != nil {
				return err
			}
			job := renderJob{
				format:      format,
				inputFormat: inputFormat,
				fit:         fit,
				zoom:        zoom,
				panX:        panX,
				panY:        panY,
				selectID:    selectID,
				opts:        opts,
				ropts:       renderOptions(),
			}
			if job.format == "" {
				job.format = string(render.FormatSVG)
				if output != "" {
					job.format = formatForPath(output)
				}
			}
			job.format = strings.ToLower(strings.TrimSpace(job.format))
			if !knownFormat(job.format) {
				return fmt.Errorf("%w: %q", render.ErrUnsupportedFormat, job.format)
			}

			ctx := cmd.Context()
			if len(args) == 1 && outDir == "" {
				if output == "" {
					return renderOne(ctx, args[0], job, cmd.OutOrStdout())
				}
				return renderToFile(ctx, args[0], job, output)
			}

			if outDir == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			ui.Banner(cmd.ErrOrStderr(), fmt.Sprintf("rendering %d workflows", len(args)))
			var tasks []parallel.Task
			for _, ref := range args {
				ref := ref
				dest := filepath.Join(outDir, outputName(ref)+"."+job.format)
				tasks = append(tasks, parallel.Task{
					Name: ref,
					Fn: func(ctx context.Context) (string, error) {
						if err := renderToFile(ctx, ref, job, dest); err != nil {
							return "", err
						}
						return "→ " + dest, nil
					},
				})
			}
			results := parallel.Run(ctx, tasks, cfg.Parallel.Concurrency, cmd.ErrOrStderr())
			if n := parallel.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d renders failed", n, len(results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	f.StringVar(&outDir, "out-dir", "", "Output directory for batch renders")
	f.StringVarP(&format, "format", "f", "", "Output format: svg, png, html, dot, json, yaml, toml")
	f.StringVar(&inputFormat, "input-format", "", "Input format when it cannot be told from the extension")
	f.StringVar(&routing, "routing", "", "Edge routing: curved or orthogonal")
	f.Float64Var(&width, "width", 0, "Canvas width in pixels")
	f.Float64Var(&height, "height", 0, "Canvas height in pixels")
	f.BoolVar(&fit, "fit", false, "Fit the workflow into the canvas")
	f.IntVar(&zoom, "zoom", 0, "Zoom steps to apply (negative zooms out)")
	f.Float64Var(&panX, "pan-x", 0, "Horizontal pan in pixels")
	f.Float64Var(&panY, "pan-y", 0, "Vertical pan in pixels")
	f.StringVar(&selectID, "select", "", "Highlight the node with this id")
	f.BoolVar(&hideLabels, "hide-labels", false, "Omit edge labels")
	f.BoolVar(&static, "static", false, "Disable node selection in HTML output")
	return cmd
}

func renderToFile(ctx context.Context, ref string, job renderJob, dest string) error {
	var buf bytes.Buffer
	if err := renderOne(ctx, ref, job, &buf); err != nil {
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644)
}

// renderOne loads ref, mounts it on a host, applies the requested view and
// writes the result.
func renderOne(ctx context.Context, ref string, job renderJob, w io.Writer) error {
	wf, err := loadWorkflow(ctx, ref, job.inputFormat)
	if err != nil {
		return err
	}

	if isWorkflowFormat(job.format) {
		data, err := workflow.Encode(wf, job.format)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	h := canvas.New(wf, job.opts)
	width := orDefault(job.ropts.Width, render.DefaultWidth)
	height := orDefault(job.ropts.Height, render.DefaultHeight)
	if job.fit {
		h.FitView(width, height, cfg.Render.Padding)
	}
	if job.zoom != 0 {
		h.Zoom(job.zoom)
	}
	if job.panX != 0 || job.panY != 0 {
		h.Pan(job.panX, job.panY)
	}
	if job.selectID != "" {
		if err := h.Select(job.selectID); err != nil {
			return err
		}
	}

	snap := h.Snapshot()
	logging.L().Debug("rendering workflow",
		zap.String("ref", ref),
		zap.String("format", job.format),
		zap.String("status", snap.Status),
		zap.Int("nodes", snap.Nodes),
		zap.Int("edges", snap.Edges),
		zap.Float64("zoom", snap.Viewport.Zoom),
	)
	return h.Render(w, render.Format(job.format), job.ropts)
}

// formatForPath picks an output format from a file extension, trying render
// formats before workflow formats.
func formatForPath(path string) string {
	if f, err := render.FormatFor(path); err == nil {
		return string(f)
	}
	if f, err := workflow.FormatFor(path); err == nil {
		return f
	}
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func knownFormat(f string) bool {
	if _, err := render.ParseFormat(f); err == nil {
		return true
	}
	return isWorkflowFormat(f)
}

func isWorkflowFormat(f string) bool {
	switch f {
	case workflow.FormatJSON, workflow.FormatYAML, workflow.FormatTOML:
		return true
	}
	return false
}

// outputName derives a file stem from a workflow reference.
func outputName(ref string) string {
	switch {
	case ref == refStdin:
		return "stdin"
	case strings.HasPrefix(ref, refLibrary):
		return strings.TrimPrefix(ref, refLibrary)
	}
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
