package viewport

import (
	"math"
	"math/rand"
	"testing"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiveZoomInStepsBothModes(t *testing.T) {
	add := ReadOnlyPreset()
	c := NewController(add)
	for i := 0; i < 5; i++ {
		c.Wheel(-100, false)
	}
	assert.InDelta(t, math.Min(add.MaxZoom, 1+5*0.2), c.State().Zoom, 1e-9)

	mul := EditorPreset()
	c = NewController(mul)
	for i := 0; i < 5; i++ {
		c.Wheel(-100, true)
	}
	assert.InDelta(t, math.Min(mul.MaxZoom, math.Pow(1.2, 5)), c.State().Zoom, 1e-9)
}

func TestZoomClampsAtBounds(t *testing.T) {
	for _, cfg := range []Config{ReadOnlyPreset(), EditorPreset()} {
		c := NewController(cfg)
		for i := 0; i < 50; i++ {
			c.Zoom(1)
		}
		assert.Equal(t, cfg.MaxZoom, c.State().Zoom, cfg.Mode.String())
		for i := 0; i < 100; i++ {
			c.Zoom(-1)
		}
		assert.Equal(t, cfg.MinZoom, c.State().Zoom, cfg.Mode.String())
	}
}

func TestHugeZoomDeltaStopsAtBound(t *testing.T) {
	for _, cfg := range []Config{ReadOnlyPreset(), EditorPreset()} {
		s := ApplyZoomDelta(Identity(), math.MaxInt, cfg)
		assert.Equal(t, cfg.MaxZoom, s.Zoom, cfg.Mode.String())
		s = ApplyZoomDelta(s, math.MinInt, cfg)
		assert.Equal(t, cfg.MinZoom, s.Zoom, cfg.Mode.String())
	}

	// Stopping early must not change the result of a short run.
	cfg := EditorPreset()
	step := Identity()
	for i := 0; i < 3; i++ {
		step = ApplyZoomDelta(step, 1, cfg)
	}
	assert.Equal(t, step, ApplyZoomDelta(Identity(), 3, cfg))
}

func TestZoomAlwaysWithinRangeForRandomWheelSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, cfg := range []Config{ReadOnlyPreset(), EditorPreset()} {
		c := NewController(cfg)
		for i := 0; i < 2000; i++ {
			delta := rng.Float64()*400 - 200
			c.Wheel(delta, rng.Intn(2) == 0)
			z := c.State().Zoom
			require.GreaterOrEqual(t, z, cfg.MinZoom)
			require.LessOrEqual(t, z, cfg.MaxZoom)
		}
	}
}

func TestWheelRequiresModifierUnlessFree(t *testing.T) {
	c := NewController(EditorPreset())
	assert.False(t, c.Wheel(-1, false))
	assert.Equal(t, 1.0, c.State().Zoom)
	assert.True(t, c.Wheel(-1, true))

	free := NewController(ReadOnlyPreset())
	assert.True(t, free.Wheel(-1, false))
	assert.False(t, free.Wheel(0, true))
}

func TestResetIsAbsoluteAndIdempotent(t *testing.T) {
	c := NewController(EditorPreset())
	c.PointerDown(geometry.Point{X: 10, Y: 10}, true)
	c.PointerMove(geometry.Point{X: 70, Y: -30})
	c.Zoom(3)

	c.Reset()
	assert.Equal(t, Identity(), c.State())
	c.Reset()
	assert.Equal(t, State{Pan: geometry.Point{}, Zoom: 1}, c.State())
}

func TestPanningIsAdditive(t *testing.T) {
	c := NewController(ReadOnlyPreset())
	c.PointerDown(geometry.Point{X: 100, Y: 100}, true)
	assert.Equal(t, Panning, c.Mode())
	c.PointerMove(geometry.Point{X: 130, Y: 90})
	c.PointerMove(geometry.Point{X: 150, Y: 120})
	c.PointerUp()
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, geometry.Point{X: 50, Y: 20}, c.State().Pan)

	// Moves while idle do nothing.
	c.PointerMove(geometry.Point{X: 900, Y: 900})
	assert.Equal(t, geometry.Point{X: 50, Y: 20}, c.State().Pan)

	// A second drag starting elsewhere adds exactly its own delta.
	c.PointerDown(geometry.Point{X: 500, Y: 500}, true)
	d := c.PointerMove(geometry.Point{X: 490, Y: 530})
	assert.Equal(t, geometry.Point{X: -10, Y: 30}, d)
	c.PointerLeave()
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, geometry.Point{X: 40, Y: 50}, c.State().Pan)
}

func TestPointerDownWithoutTriggerStaysIdle(t *testing.T) {
	c := NewController(EditorPreset())
	c.PointerDown(geometry.Point{X: 1, Y: 1}, false)
	assert.Equal(t, Idle, c.Mode())
}

func TestPanTrigger(t *testing.T) {
	assert.True(t, PanTrigger(PlainDrag, 0, false))
	assert.True(t, PanTrigger(PlainDrag, 1, false))
	assert.False(t, PanTrigger(PlainDrag, 2, false))

	assert.False(t, PanTrigger(ModifierDrag, 0, false))
	assert.True(t, PanTrigger(ModifierDrag, 0, true))
	assert.True(t, PanTrigger(ModifierDrag, 1, false))
}

func TestTransformScalesFromOrigin(t *testing.T) {
	s := State{Pan: geometry.Point{X: 10, Y: -5}, Zoom: 2}
	assert.Equal(t, "translate(10, -5) scale(2)", s.Transform())
	assert.Contains(t, s.CSSTransform(), "transform-origin: 0 0")

	// The model origin lands exactly on the pan offset at any zoom.
	assert.Equal(t, s.Pan, s.ToScreen(geometry.Point{}))

	p := geometry.Point{X: 123, Y: 45}
	assert.Equal(t, p, s.ToModel(s.ToScreen(p)))
}

func TestFit(t *testing.T) {
	cfg := EditorPreset()
	s := Fit(geometry.Rect{X: 100, Y: 100, W: 400, H: 200}, 800, 400, 0, cfg)
	assert.InDelta(t, 2, s.Zoom, 1e-9)
	// The bounds' top-left maps to the left edge; content is vertically centered.
	tl := s.ToScreen(geometry.Point{X: 100, Y: 100})
	assert.InDelta(t, 0, tl.X, 1e-9)
	assert.InDelta(t, 0, tl.Y, 1e-9)

	huge := Fit(geometry.Rect{W: 100000, H: 100000}, 800, 600, 20, cfg)
	assert.Equal(t, cfg.MinZoom, huge.Zoom)

	assert.Equal(t, Identity(), Fit(geometry.Rect{}, 800, 600, 0, cfg))
}

func TestCoalescerMatchesDirectApplication(t *testing.T) {
	cfg := EditorPreset()
	direct := Identity()
	var q Coalescer
	queued := Identity()

	steps := []int{1, 1, 1, 1, 1, 1, 1, 1, -1, -1, 1}
	for i, st := range steps {
		direct = ApplyPanDelta(direct, float64(i), -float64(i))
		direct = ApplyZoomDelta(direct, st, cfg)
		q.Pan(float64(i), -float64(i))
		q.Wheel(st)
	}
	require.True(t, q.Pending())
	queued = q.Flush(queued, cfg)
	assert.False(t, q.Pending())
	assert.Equal(t, direct, queued)

	// Flushing an empty queue is a no-op.
	assert.Equal(t, queued, q.Flush(queued, cfg))
}

func TestParseModes(t *testing.T) {
	m, err := ParseZoomMode("Multiplicative")
	require.NoError(t, err)
	assert.Equal(t, Multiplicative, m)
	_, err = ParseZoomMode("exponential")
	assert.ErrorIs(t, err, ErrBadConfig)

	p, err := ParsePanPolicy("modifier")
	require.NoError(t, err)
	assert.Equal(t, ModifierDrag, p)
	_, err = ParsePanPolicy("swipe")
	assert.ErrorIs(t, err, ErrBadConfig)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, ReadOnlyPreset().Validate())
	assert.NoError(t, EditorPreset().Validate())
	assert.Error(t, Config{MinZoom: 1.5, MaxZoom: 2, Step: 0.1}.Validate())
	assert.Error(t, Config{MinZoom: 0.5, MaxZoom: 2}.Validate())
	assert.Error(t, Config{MinZoom: 0, MaxZoom: 2, Step: 0.1}.Validate())
}
