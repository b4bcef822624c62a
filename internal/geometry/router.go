package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRouter is returned by RouterFor for unrecognized names.
var ErrUnknownRouter = errors.New("unknown edge routing")

// Router turns two anchors into a drawable path.
type Router interface {
	Name() string
	Route(p1, p2 Point) Path
}

// Curved routes edges as cubic beziers.
type Curved struct{}

func (Curved) Name() string            { return "curved" }
func (Curved) Route(p1, p2 Point) Path { return CurvedPath(p1, p2) }

// Orthogonal routes edges as flow-chart style elbows.
type Orthogonal struct{}

func (Orthogonal) Name() string            { return "orthogonal" }
func (Orthogonal) Route(p1, p2 Point) Path { return OrthogonalPath(p1, p2) }

// RouterFor resolves a routing name from configuration. The empty string
// selects Curved.
func RouterFor(name string) (Router, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "curved", "bezier":
		return Curved{}, nil
	case "orthogonal", "elbow", "step":
		return Orthogonal{}, nil
	}
	return nil, fmt.Errorf("%w: %q (use curved or orthogonal)", ErrUnknownRouter, name)
}
