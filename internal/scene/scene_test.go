package scene

import (
	"fmt"
	"testing"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/nodestyle"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) *workflow.Position { return &workflow.Position{X: x, Y: y} }

func aToB() workflow.Workflow {
	return workflow.Workflow{
		ID:   "ab",
		Name: "A to B",
		Nodes: []workflow.Node{
			{ID: "a", Name: "A", Type: "n8n-nodes-base.scheduleTrigger", Position: pos(0, 0)},
			{ID: "b", Name: "B", Type: "action", Position: pos(300, 0)},
		},
		Connections: workflow.Connections{
			"A": {Main: [][]workflow.Target{{{Node: "B", Index: 0}}}},
		},
	}
}

func TestTriggerToActionScenario(t *testing.T) {
	for _, router := range []geometry.Router{geometry.Curved{}, geometry.Orthogonal{}} {
		t.Run(router.Name(), func(t *testing.T) {
			sc := Build(aToB(), Options{Router: router})
			require.Equal(t, StatusReady, sc.Status)
			require.Len(t, sc.Nodes, 2)
			require.Len(t, sc.Edges, 1)

			a, b := sc.Nodes[0], sc.Nodes[1]
			assert.True(t, a.Descriptor.Trigger)
			assert.False(t, a.HasInput)
			assert.True(t, b.HasInput)

			e := sc.Edges[0]
			assert.Equal(t, a.Box.RightMid(), e.Path.Start())
			assert.Equal(t, b.Box.LeftMid(), e.Path.End())
			assert.Equal(t, geometry.Point{X: nodestyle.TriggerWidth, Y: 40}, e.Path.Start())
			assert.Equal(t, geometry.Point{X: 300, Y: 40}, e.Path.End())

			require.Len(t, e.Arrow, 3)
			assert.Equal(t, b.Box.LeftMid(), e.Arrow[0])
			assert.Equal(t, DefaultEdgeLabel, e.Label)
			assert.Equal(t, "a-b-0-0", e.ID)
		})
	}
}

func TestNodeAndEdgeCountsSkipDangling(t *testing.T) {
	w := workflow.Sample()
	w.Connections["Return Result"] = workflow.NodeOutputs{Main: [][]workflow.Target{{{Node: "Nowhere"}}}}
	w.Connections["Phantom"] = workflow.NodeOutputs{Main: [][]workflow.Target{{{Node: "Clean CNPJ"}}}}

	sc := Build(w, Options{})
	assert.Len(t, sc.Nodes, len(w.Nodes))
	assert.Len(t, sc.Edges, 12)
	assert.Equal(t, 2, sc.Dropped)
}

func TestEmptyWorkflowIsPlaceholder(t *testing.T) {
	sc := Build(workflow.Workflow{ID: "x", Name: "Empty"}, Options{})
	assert.Equal(t, StatusEmpty, sc.Status)
	assert.Equal(t, MessageEmpty, sc.Message)
	assert.Empty(t, sc.Nodes)
	assert.Empty(t, sc.Edges)
}

func TestUnplacedNodesAreDiagnostic(t *testing.T) {
	w := aToB()
	for i := range w.Nodes {
		w.Nodes[i].Position = nil
	}
	sc := Build(w, Options{})
	assert.Equal(t, StatusInvalid, sc.Status)
	assert.Equal(t, MessageInvalid, sc.Message)

}

func TestUnplacedNodeSitsAtOrigin(t *testing.T) {
	w := aToB()
	w.Nodes[1].Position = nil
	sc := Build(w, Options{})
	assert.Equal(t, StatusReady, sc.Status)
	require.Len(t, sc.Nodes, 2)
	assert.Len(t, sc.Edges, 1)
	assert.Zero(t, sc.Dropped)

	b, ok := sc.Node(w.Nodes[1].ID)
	require.True(t, ok)
	assert.Equal(t, 0.0, b.Box.X)
	assert.Equal(t, 0.0, b.Box.Y)
	assert.Nil(t, w.Nodes[1].Position, "the input workflow is not modified")
}

func TestWebhookEdgesShowMethod(t *testing.T) {
	sc := Build(workflow.Sample(), Options{})
	var fromWebhook []EdgePath
	for _, e := range sc.Edges {
		if e.Source == "550e8400-e29b-41d4-a716-446655440002" {
			fromWebhook = append(fromWebhook, e)
		} else {
			assert.Equal(t, DefaultEdgeLabel, e.Label)
		}
	}
	require.Len(t, fromWebhook, 1)
	assert.Equal(t, "POST", fromWebhook[0].Label)

	assert.Equal(t, "GET", EdgeLabel(workflow.Node{Type: "webhook"}))
	assert.Equal(t, "PUT", EdgeLabel(workflow.Node{Type: "webhook", Parameters: map[string]any{"method": " put "}}))

	sc = Build(workflow.Sample(), Options{HideLabels: true})
	for _, e := range sc.Edges {
		assert.Empty(t, e.Label)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	w := workflow.Sample()
	first := Build(w, Options{})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Build(w, Options{}))
	}
}

func TestParamPreview(t *testing.T) {
	params := map[string]any{
		"url":    "https://example.com/a/very/long/path/that/keeps/going",
		"method": "GET",
		"body":   "x",
		"extra":  1,
	}
	got, more := previewParams(params)
	require.Len(t, got, MaxPreviewParams)
	assert.Equal(t, 1, more)
	assert.Equal(t, "body", got[0].Key)
	assert.Equal(t, "extra", got[1].Key)
	assert.Equal(t, "method", got[2].Key)

	long := truncate(fmt.Sprint(params["url"]), MaxPreviewChars)
	assert.Equal(t, "https://example.com/a/very/lon...", long)
}

func TestLayersPaintEdgesFirst(t *testing.T) {
	assert.Equal(t, []Layer{LayerEdges, LayerNodes}, Scene{}.Layers())
}

func TestHitTest(t *testing.T) {
	sc := Build(aToB(), Options{})
	n, ok := sc.HitTest(geometry.Point{X: 310, Y: 10})
	require.True(t, ok)
	assert.Equal(t, "b", n.ID)
	_, ok = sc.HitTest(geometry.Point{X: 260, Y: 10})
	assert.False(t, ok)
}

func TestBounds(t *testing.T) {
	sc := Build(aToB(), Options{})
	assert.Equal(t, geometry.Rect{X: 0, Y: 0, W: 500, H: nodestyle.NodeHeight}, sc.Bounds)
}

func TestMemoRebuildsOnlyOnChange(t *testing.T) {
	var m Memo
	w := aToB()
	m.Get(w, Options{})
	m.Get(w, Options{})
	m.Get(w.Clone(), Options{})
	assert.Equal(t, 1, m.Builds())

	moved := w.Clone()
	moved.Nodes[1].Position.X = 400
	sc := m.Get(moved, Options{})
	assert.Equal(t, 2, m.Builds())
	assert.Equal(t, 400.0, sc.Nodes[1].Box.X)

	m.Get(moved, Options{Router: geometry.Orthogonal{}})
	assert.Equal(t, 3, m.Builds())

	m.Invalidate()
	m.Get(moved, Options{Router: geometry.Orthogonal{}})
	assert.Equal(t, 4, m.Builds())
}
