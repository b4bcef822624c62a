// Package render draws a scene under a viewport transform. Every output is a
// pure function of its inputs: the same scene and state give the same bytes.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/viewport"
)

// Format is an output encoding.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
	FormatDOT  Format = "dot"
)

// Formats lists every format Write understands.
var Formats = []Format{FormatSVG, FormatPNG, FormatHTML, FormatDOT}

// ErrUnsupportedFormat is returned for formats Write does not know.
var ErrUnsupportedFormat = errors.New("unsupported render format")

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFor guesses the format from an output path's extension.
func FormatFor(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "gv" {
		ext = "dot"
	}
	if ext == "htm" {
		ext = "html"
	}
	return ParseFormat(ext)
}

// ─── Options ───

// Default canvas size and colors.
const (
	DefaultWidth      = 1200.0
	DefaultHeight     = 700.0
	DefaultBackground = "#f8fafc"
	// MaxDimension bounds either side of a drawing surface in pixels.
	MaxDimension      = 8192.0

	EdgeColor     = "#94a3b8"
	LabelColor    = "#64748b"
	NodeFill      = "#ffffff"
	TextColor     = "#1e293b"
	MutedColor    = "#64748b"
	SelectedColor = "#2563eb"
)

// Options control the drawing surface.
type Options struct {
	Width      float64
	Height     float64
	Background string
	// Selected is the id of the highlighted node, if any.
	Selected string
	// Static disables node selection in HTML output.
	Static bool
	// Editable marks a session page whose host accepts node drags.
	Editable bool
	// Viewport tunes the client-side controller in HTML output.
	Viewport viewport.Config
}

func (o Options) withDefaults() Options {
	o.Width = clampDimension(o.Width, DefaultWidth)
	o.Height = clampDimension(o.Height, DefaultHeight)
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Viewport.Validate() != nil {
		o.Viewport = viewport.ReadOnlyPreset()
	}
	return o
}

// clampDimension keeps a surface size drawable. Unset or non-finite sizes
// take def; anything larger than MaxDimension is cut down to it.
func clampDimension(v, def float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, -1) || v <= 0:
		return def
	case v > MaxDimension:
		return MaxDimension
	}
	return v
}

// Write renders sc in format f.
func Write(w io.Writer, f Format, sc scene.Scene, vp viewport.State, opts Options) error {
	switch f {
	case FormatSVG:
		return SVG(w, sc, vp, opts)
	case FormatPNG:
		return PNG(w, sc, vp, opts)
	case FormatHTML:
		return HTML(w, sc, vp, opts)
	case FormatDOT:
		_, err := io.WriteString(w, DOT(sc))
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ContentType is the MIME type for f.
func ContentType(f Format) string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// nodeLabelX is where node text starts; trigger notches push it right.
func nodeLabelX(n scene.NodeBox) float64 {
	if n.Descriptor.Trigger {
		return n.Box.X + 44
	}
	return n.Box.X + 40
}

func paramLine(p scene.Param) string { return p.Key + ": " + p.Value }

func moreLine(n int) string { return fmt.Sprintf("+%d more", n) }
