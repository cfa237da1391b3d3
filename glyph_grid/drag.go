package glyph_grid

import "math"

// DragState is the state of the drag state machine.
type DragState int

const (
	Idle DragState = iota
	// Armed is pointer down, not yet past the threshold.
	Armed
	// Dragging is past the threshold; every move pans the grid.
	Dragging
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// DragSession is the transient state of a single gesture, from press to release.
type DragSession struct {
	Start, Last Point
	Dragging    bool
}

// DragController turns press/move/release sequences into pan deltas, and decides
// whether a release was a click. One gesture is either a pan or a click, never both.
type DragController struct {
	threshold float64
	session   *DragSession
}

// NewDragController returns an idle controller with the given threshold in pixels.
func NewDragController(threshold float64) *DragController {
	return &DragController{threshold: threshold}
}

// State returns the current state.
func (dc *DragController) State() DragState {
	switch {
	case dc.session == nil:
		return Idle
	case dc.session.Dragging:
		return Dragging
	default:
		return Armed
	}
}

// Session returns the in-flight gesture, or nil when idle.
func (dc *DragController) Session() *DragSession {
	return dc.session
}

// SuppressDefault reports whether the host's default scroll/selection behavior should be
// suppressed, which is the case for the whole gesture once the pointer is down.
func (dc *DragController) SuppressDefault() bool {
	return dc.session != nil
}

// Press arms the controller at p. A press while a gesture is in flight restarts it.
func (dc *DragController) Press(p Point) {
	dc.session = &DragSession{Start: p, Last: p}
}

// Move returns the delta to pan by, and true, when the gesture is (or just became) a drag.
// Moves while idle, or while armed within the threshold, pan nothing.
func (dc *DragController) Move(p Point) (Point, bool) {
	ds := dc.session
	if ds == nil {
		return Point{}, false
	}
	if !ds.Dragging {
		if displacement(p, ds.Start) <= dc.threshold {
			return Point{}, false
		}
		ds.Dragging = true
	}
	delta := p.Sub(ds.Last)
	ds.Last = p
	return delta, true
}

// Release ends the gesture at p and reports whether it was a click: the gesture never
// became a drag and p is within the threshold of where it started.
func (dc *DragController) Release(p Point) bool {
	ds := dc.session
	dc.session = nil
	if ds == nil || ds.Dragging {
		return false
	}
	return displacement(p, ds.Start) < dc.threshold
}

// Reset drops any in-flight gesture without a click.
func (dc *DragController) Reset() {
	dc.session = nil
}

// displacement is the larger of the per-axis distances between p and q.
func displacement(p, q Point) float64 {
	d := p.Sub(q)
	return math.Max(math.Abs(d.X), math.Abs(d.Y))
}
