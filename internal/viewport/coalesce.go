package viewport

import "github.com/msalah0e/flowcanvas/internal/geometry"

// Coalescer batches high-frequency input so the view changes at most once
// per paint frame. Pan deltas are summed; wheel steps are queued in order so
// clamping behaves exactly as if each step had been applied immediately.
type Coalescer struct {
	pan   geometry.Point
	steps []int
	dirty bool
}

// Pan queues a pan delta.
func (q *Coalescer) Pan(dx, dy float64) {
	q.pan.X += dx
	q.pan.Y += dy
	q.dirty = true
}

// Wheel queues one zoom step (+1 in, -1 out).
func (q *Coalescer) Wheel(step int) {
	if step == 0 {
		return
	}
	q.steps = append(q.steps, step)
	q.dirty = true
}

// Pending reports whether a flush would change anything.
func (q *Coalescer) Pending() bool { return q.dirty }

// Flush applies queued input to s and clears the queue.
func (q *Coalescer) Flush(s State, cfg Config) State {
	if !q.dirty {
		return s
	}
	s = ApplyPanDelta(s, q.pan.X, q.pan.Y)
	for _, st := range q.steps {
		s = ApplyZoomDelta(s, st, cfg)
	}
	q.pan = geometry.Point{}
	q.steps = q.steps[:0]
	q.dirty = false
	return s
}
