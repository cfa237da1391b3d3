// glyph_grid is the infinite wrap-around grid: sizing the tile pool to the viewport,
// assigning tile content and faces, telling clicks from drags, and re-projecting
// a fixed pool of tiles under drag so that it passes for an unbounded canvas.
// Nothing in here knows about html or websockets; the server drives a Session
// with InputEvents and receives output through the View interface.
package glyph_grid

import (
	"fmt"
	"math"
)

const (
	// CellSize is the width and height of a tile in pixels.
	CellSize = 140
	// MarginCells is the number of extra rows/cols beyond minimum viewport coverage,
	// so that there is always an offscreen row/col ready to be revealed before a wrap.
	MarginCells = 2
	// DragThreshold is the displacement in pixels, on either axis, past which a press becomes a drag.
	DragThreshold = 10
	// MaxViewport caps each viewport axis in pixels, and with it the size of the pool.
	MaxViewport = 8192
	// CurrentGlyphChance is the probability that a tile shows the page's own glyph.
	CurrentGlyphChance = 0.98
	// HomeLinkChance is the probability that a non-current tile is a home link; it is
	// conditional on the first draw, not a flat share of all tiles.
	HomeLinkChance = 0.10
)

// Variant is the content a tile displays.
type Variant int

const (
	CurrentGlyph Variant = iota
	HomeLink
	OtherGlyphLink
)

func (v Variant) String() string {
	switch v {
	case CurrentGlyph:
		return "current"
	case HomeLink:
		return "home"
	case OtherGlyphLink:
		return "link"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// IsLink is true for variants that navigate somewhere when activated.
func (v Variant) IsLink() bool {
	return v == HomeLink || v == OtherGlyphLink
}

// Face is a display typeface from the catalog. The zero Face is the fallback typeface.
type Face struct {
	Family    string
	SourceURL string
}

// IsFallback reports whether this is the no-face default.
func (f Face) IsFallback() bool {
	return f.Family == ""
}

// TileID is a tile's identity. It is unique across every pool a session builds, so that
// late face-load completions can be correlated to the tile that requested them rather than
// to whatever slot that tile currently occupies.
type TileID int

// Point is a screen coordinate, or a delta between two of them.
type Point struct {
	X, Y float64
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Viewport is the size of the visible area in pixels.
type Viewport struct {
	Width, Height float64
}

// Valid reports whether both axes are finite and non-negative.
func (vp Viewport) Valid() bool {
	return validAxis(vp.Width) && validAxis(vp.Height)
}

// Clamp bounds each axis to [0, limit]. Invalid axes become 0.
func (vp Viewport) Clamp(limit float64) Viewport {
	return Viewport{Width: clampAxis(vp.Width, limit), Height: clampAxis(vp.Height, limit)}
}

func validAxis(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func clampAxis(v, limit float64) float64 {
	switch {
	case !validAxis(v):
		return 0
	case v > limit:
		return limit
	}
	return v
}

// Tile is one grid cell's rendered unit. Tiles are owned by the session's pool:
// Row/Col/Left/Top mutate in place during drags; everything else is fixed at build time
// and travels with the tile as it wraps.
type Tile struct {
	ID TileID
	// Logical slot in the wrap-around index space, in [0,Rows) x [0,Cols).
	Row, Col int
	// Screen-space position. May sit up to one margin outside the viewport mid-drag.
	Left, Top float64
	Variant   Variant
	Face      Face
	// FaceLoaded is set once the face loader reports this tile's face as available.
	FaceLoaded bool
	// LinkTarget is the glyph linked to by an OtherGlyphLink tile, empty otherwise.
	LinkTarget string
}

// RevealsFace reports whether hovering the tile should reveal its face name.
// Only tiles showing the current glyph carry the affordance.
func (t *Tile) RevealsFace() bool {
	return t.Variant == CurrentGlyph && !t.Face.IsFallback()
}

// Contains reports whether the point lies within the tile's current rect.
func (t *Tile) Contains(p Point, cellSize float64) bool {
	return p.X >= t.Left && p.X < t.Left+cellSize &&
		p.Y >= t.Top && p.Y < t.Top+cellSize
}
