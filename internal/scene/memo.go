package scene

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/msalah0e/flowcanvas/internal/workflow"
)

// Memo rebuilds a scene only when the workflow value or the routing
// changes. Pan and zoom never reach it.
type Memo struct {
	key    string
	scene  Scene
	builds int
}

// Fingerprint hashes the workflow's canonical JSON. Equal values hash
// equally regardless of map iteration order.
func Fingerprint(w workflow.Workflow) string {
	data, err := json.Marshal(w)
	if err != nil {
		// Parameters that cannot be marshalled never match a previous key.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the scene for w, building it if needed.
func (m *Memo) Get(w workflow.Workflow, opts Options) Scene {
	key := Fingerprint(w)
	if key != "" {
		if opts.Router != nil {
			key += ":" + opts.Router.Name()
		}
		if opts.HideLabels {
			key += ":nolabels"
		}
	}
	if key != "" && key == m.key {
		return m.scene
	}
	m.scene = Build(w, opts)
	m.key = key
	m.builds++
	return m.scene
}

// Builds counts how many times Get actually rebuilt.
func (m *Memo) Builds() int { return m.builds }

// Invalidate forces the next Get to rebuild.
func (m *Memo) Invalidate() { m.key = "" }
