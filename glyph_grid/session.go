package glyph_grid

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// View receives the session's output. Calls happen synchronously on the goroutine driving
// the session, with pointers into the live pool: implementations that hand tiles to other
// goroutines must copy them first.
type View interface {
	// Rebuild replaces the whole rendered pool.
	Rebuild(dims Dimensions, tiles []*Tile)
	// Reposition updates only the position and slot of every tile.
	Reposition(tiles []*Tile)
	// ApplyFace renders the tile in its now-loaded face.
	ApplyFace(tile *Tile)
	// Grabbing is called on press and release with whether the host must suppress its
	// default scroll and selection behavior. It doubles as cursor feedback.
	Grabbing(grabbing bool)
}

// Activator follows a link tile. Resolving the target is the activator's concern.
type Activator interface {
	Activate(tile *Tile)
}

// ErrNoGlyph is returned when a session is built without a current glyph.
var ErrNoGlyph error = errors.New("no glyph specified")

// ErrBadViewport is returned by Handle for resizes with negative or non-finite sizes.
var ErrBadViewport error = errors.New("bad viewport")

// Session is the page-scoped grid state: one viewport, one pool, one current glyph.
// It is not safe for concurrent use; a single goroutine must drive it, which keeps every
// pool mutation within a single event.
type Session struct {
	cellSize    float64
	margin      int
	maxViewport float64
	debug       bool

	viewport Viewport
	dims     Dimensions
	tiles    []*Tile

	assigner  *Assigner
	ids       IDSource
	drag      *DragController
	faces     *faceTable
	view      View
	loader    FaceLoader
	activator Activator
	log       *slog.Logger
}

// SessionBuilder assembles a Session.
type SessionBuilder struct {
	current     string
	glyphs      []string
	catalog     []Face
	chances     Chances
	rnd         RandSource
	cellSize    float64
	margin      int
	threshold   float64
	maxViewport float64
	debug       bool
	view        View
	loader      FaceLoader
	activator   Activator
	log         *slog.Logger
}

// NewSessionBuilder returns a builder for a session about the current glyph,
// with the production constants.
func NewSessionBuilder(current string) *SessionBuilder {
	return &SessionBuilder{
		current:     current,
		chances:     DefaultChances,
		cellSize:    CellSize,
		margin:      MarginCells,
		threshold:   DragThreshold,
		maxViewport: MaxViewport,
	}
}

// WithGlyphs sets the glyph set link targets are drawn from.
func (sb *SessionBuilder) WithGlyphs(glyphs []string) *SessionBuilder {
	sb.glyphs = glyphs
	return sb
}

// WithCatalog sets the face catalog. It must be complete; an empty catalog means fallback faces.
func (sb *SessionBuilder) WithCatalog(catalog []Face) *SessionBuilder {
	sb.catalog = catalog
	return sb
}

// WithRand sets the randomness for content assignment. Defaults to a time-seeded source.
func (sb *SessionBuilder) WithRand(rnd RandSource) *SessionBuilder {
	sb.rnd = rnd
	return sb
}

// WithChances overrides the content probabilities.
func (sb *SessionBuilder) WithChances(chances Chances) *SessionBuilder {
	sb.chances = chances
	return sb
}

// WithGeometry overrides cell size, margin and drag threshold. Zero values keep the defaults.
func (sb *SessionBuilder) WithGeometry(cellSize float64, margin int, threshold float64) *SessionBuilder {
	if cellSize > 0 {
		sb.cellSize = cellSize
	}
	if margin > 0 {
		sb.margin = margin
	}
	if threshold > 0 {
		sb.threshold = threshold
	}
	return sb
}

// WithMaxViewport caps each viewport axis, in pixels. Zero keeps the default.
func (sb *SessionBuilder) WithMaxViewport(limit float64) *SessionBuilder {
	if limit > 0 {
		sb.maxViewport = limit
	}
	return sb
}

// WithDebug enables a partition check after every rebuild and drag.
func (sb *SessionBuilder) WithDebug(debug bool) *SessionBuilder {
	sb.debug = debug
	return sb
}

func (sb *SessionBuilder) WithView(view View) *SessionBuilder {
	sb.view = view
	return sb
}

func (sb *SessionBuilder) WithFaceLoader(loader FaceLoader) *SessionBuilder {
	sb.loader = loader
	return sb
}

func (sb *SessionBuilder) WithActivator(activator Activator) *SessionBuilder {
	sb.activator = activator
	return sb
}

// WithLogger sets the session's logger. Defaults to the package Logger().
func (sb *SessionBuilder) WithLogger(log *slog.Logger) *SessionBuilder {
	sb.log = log
	return sb
}

// Build returns the session, or ErrNoGlyph when there is no current glyph.
// No pool exists until the first Resize.
func (sb *SessionBuilder) Build() (*Session, error) {
	if sb.current == "" {
		return nil, ErrNoGlyph
	}

	rnd := sb.rnd
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := sb.log
	if log == nil {
		log = Logger()
	}
	view := sb.view
	if view == nil {
		view = nopView{}
	}

	return &Session{
		cellSize:    sb.cellSize,
		margin:      sb.margin,
		maxViewport: sb.maxViewport,
		debug:       sb.debug,
		assigner:    NewAssigner(sb.current, sb.glyphs, sb.catalog, sb.chances, rnd),
		drag:        NewDragController(sb.threshold),
		faces:       newFaceTable(),
		view:        view,
		loader:      sb.loader,
		activator:   sb.activator,
		log:         log.With("glyph", sb.current),
	}, nil
}

// Current returns the glyph the session is about.
func (s *Session) Current() string {
	return s.assigner.Current()
}

// Dimensions returns the current pool dimensions.
func (s *Session) Dimensions() Dimensions {
	return s.dims
}

// Viewport returns the last viewport passed to Resize, as clamped.
func (s *Session) Viewport() Viewport {
	return s.viewport
}

// Tiles returns the live pool. Callers must not retain it across events.
func (s *Session) Tiles() []*Tile {
	return s.tiles
}

// DragState returns the drag controller's state.
func (s *Session) DragState() DragState {
	return s.drag.State()
}

// PendingFaces returns the number of face loads awaiting completion.
func (s *Session) PendingFaces() int {
	return s.faces.len()
}

// Resize recomputes dimensions and rebuilds the pool from scratch. Any gesture in flight
// ends silently and face loads requested for the old pool are forgotten. Calling it twice
// in a row is safe and simply discards the first pool.
// Each axis is clamped to the session's max viewport, which bounds the pool.
func (s *Session) Resize(vp Viewport) {
	s.drag.Reset()
	s.faces.clear()

	vp = vp.Clamp(s.maxViewport)
	s.viewport = vp
	s.dims = Dimension(vp, s.cellSize, s.margin)
	s.tiles = Build(s.dims, s.assigner, &s.ids)
	s.log.Debug("grid rebuilt",
		"width", vp.Width, "height", vp.Height,
		"rows", s.dims.Rows, "cols", s.dims.Cols)
	s.check("resize")

	s.view.Rebuild(s.dims, s.tiles)
	s.requestFaces()
}

func (s *Session) requestFaces() {
	if s.loader == nil {
		return
	}
	for _, tile := range s.tiles {
		if tile.Face.IsFallback() {
			continue
		}
		tile := tile
		s.faces.register(tile.ID, func() {
			tile.FaceLoaded = true
			s.view.ApplyFace(tile)
		})
		s.loader.RequestLoad(tile.Face, tile.ID)
	}
}

// PointerDown starts a gesture.
func (s *Session) PointerDown(p Point) {
	s.drag.Press(p)
	s.view.Grabbing(s.drag.SuppressDefault())
}

// PointerMove pans the grid if the gesture is a drag, and reports whether it panned.
func (s *Session) PointerMove(p Point) bool {
	delta, ok := s.drag.Move(p)
	if !ok {
		return false
	}
	Reproject(s.tiles, delta, s.dims, s.viewport)
	s.check("drag")
	s.view.Reposition(s.tiles)
	return true
}

// PointerUp ends the gesture. If it was a click, the topmost tile under p is activated
// when it is a link; that tile is returned, otherwise nil.
func (s *Session) PointerUp(p Point) *Tile {
	wasActive := s.drag.State() != Idle
	click := s.drag.Release(p)
	if wasActive {
		s.view.Grabbing(s.drag.SuppressDefault())
	}
	if !click {
		return nil
	}

	tile := s.TileAt(p)
	if tile == nil || !tile.Variant.IsLink() {
		return nil
	}
	s.log.Debug("tile activated", "tile", tile.ID, "variant", tile.Variant, "target", tile.LinkTarget)
	if s.activator != nil {
		s.activator.Activate(tile)
	}
	return tile
}

// TileAt returns the topmost tile whose rect contains p, or nil.
// Later tiles render above earlier ones.
func (s *Session) TileAt(p Point) *Tile {
	for i := len(s.tiles) - 1; i >= 0; i-- {
		if s.tiles[i].Contains(p, s.cellSize) {
			return s.tiles[i]
		}
	}
	return nil
}

// FaceReady runs the continuation registered for the tile, wherever it has wrapped to.
// Completions for tiles of a discarded pool are dropped; it reports whether one ran.
func (s *Session) FaceReady(id TileID) bool {
	onReady, ok := s.faces.take(id)
	if !ok {
		s.log.Debug("dropping stale face completion", "tile", id)
		return false
	}
	onReady()
	return true
}

// FaceFailed records a failed face load. The tile keeps its fallback face.
func (s *Session) FaceFailed(id TileID, reason string) {
	if _, ok := s.faces.take(id); !ok {
		return
	}
	s.log.Warn("face load failed", "tile", id, "reason", reason)
}

func (s *Session) check(op string) {
	if !s.debug {
		return
	}
	if err := CheckPartition(s.tiles, s.dims); err != nil {
		s.log.Error("tile pool partition violated", "op", op, "err", err)
	}
}

// ErrUnknownEvent is returned by Handle for event kinds it does not understand.
var ErrUnknownEvent error = errors.New("unknown event kind")

// EventKind names an input event from the host environment.
type EventKind string

const (
	EventResize        EventKind = "resize"
	EventPointerDown   EventKind = "pointerdown"
	EventPointerMove   EventKind = "pointermove"
	EventPointerUp     EventKind = "pointerup"
	EventPointerCancel EventKind = "pointercancel"
	EventPointerLeave  EventKind = "pointerleave"
	EventFaceReady     EventKind = "faceReady"
	EventFaceFailed    EventKind = "faceFailed"
)

// InputEvent is a single event from the host: a resize, a pointer event, or a face-load completion.
// Only the fields relevant to Kind are set.
type InputEvent struct {
	Kind   EventKind `json:"kind"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Tile   TileID    `json:"tile"`
	Reason string    `json:"reason"`
}

// Handle dispatches an input event. Cancel and leave end a gesture exactly like up.
func (s *Session) Handle(ev InputEvent) error {
	p := Point{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case EventResize:
		vp := Viewport{Width: ev.Width, Height: ev.Height}
		if !vp.Valid() {
			return fmt.Errorf("handle %q %vx%v: %w", ev.Kind, ev.Width, ev.Height, ErrBadViewport)
		}
		s.Resize(vp)
	case EventPointerDown:
		s.PointerDown(p)
	case EventPointerMove:
		s.PointerMove(p)
	case EventPointerUp, EventPointerCancel, EventPointerLeave:
		s.PointerUp(p)
	case EventFaceReady:
		s.FaceReady(ev.Tile)
	case EventFaceFailed:
		s.FaceFailed(ev.Tile, ev.Reason)
	default:
		return fmt.Errorf("handle %q: %w", ev.Kind, ErrUnknownEvent)
	}
	return nil
}

type nopView struct{}

func (nopView) Rebuild(Dimensions, []*Tile) {}
func (nopView) Reposition([]*Tile)          {}
func (nopView) ApplyFace(*Tile)             {}
func (nopView) Grabbing(bool)               {}
