package workflow

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for file extensions and format names that no
// decoder handles.
var ErrUnknownFormat = errors.New("unknown workflow format")

// Format names accepted by Decode and Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

//go:embed sample.json
var sampleJSON []byte

// FormatFor picks a format from a file extension.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Decode parses a workflow. A document that carries a flat "edges" list and
// no "connections" is converted through FromEdges.
func Decode(data []byte, format string) (Workflow, error) {
	var doc struct {
		Workflow `yaml:",inline"`
		Edges    []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Workflow{}, fmt.Errorf("workflow parse: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Workflow{}, fmt.Errorf("workflow parse: %w", err)
		}
	case FormatTOML:
		// Decode generically, then go through JSON so positions get the same
		// object/array handling as every other format.
		var generic map[string]any
		if err := toml.Unmarshal(data, &generic); err != nil {
			return Workflow{}, fmt.Errorf("workflow parse: %w", err)
		}
		raw, err := json.Marshal(generic)
		if err != nil {
			return Workflow{}, fmt.Errorf("workflow parse: %w", err)
		}
		return Decode(raw, FormatJSON)
	default:
		return Workflow{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	w := doc.Workflow
	if len(w.Connections) == 0 && len(doc.Edges) > 0 {
		w.Connections = FromEdges(w.Nodes, doc.Edges)
	}
	if w.Connections == nil {
		w.Connections = Connections{}
	}
	if w.ID == "" {
		w.ID = DeriveID(w.Name)
	}
	return w, nil
}

// LoadFile reads and decodes a workflow file, choosing the decoder from the
// extension.
func LoadFile(path string) (Workflow, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Workflow{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Workflow{}, err
	}
	w, err := Decode(data, format)
	if err != nil {
		return Workflow{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Encode serializes a workflow as JSON, YAML or TOML.
func Encode(w Workflow, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(w, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(w); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(w); err != nil {
			return nil, fmt.Errorf("workflow encode: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

var idNamespace = uuid.MustParse("5b0e5f3c-8f43-4d8e-9a8e-0b7f0c6d2a11")

// DeriveID returns a stable id for a workflow that arrived without one.
func DeriveID(name string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.TrimSpace(name))).String()
}

// Sample returns the built-in lead qualification workflow.
func Sample() Workflow {
	w, err := Decode(sampleJSON, FormatJSON)
	if err != nil {
		panic("workflow: embedded sample is invalid: " + err.Error())
	}
	return w
}
