// tile_views contains views derived from the Cell view-model: the tile grid itself and
// page navigation. A Feed adapts a glyph_grid.Session's output into a channel of Changes.
package tile_views

import (
	"punctuation/glyph_grid"
)

// ChangeKind is the kind of session output a Change carries.
type ChangeKind int

const (
	// Rebuilt replaces the whole pool.
	Rebuilt ChangeKind = iota
	// Moved carries new positions and slots for every tile.
	Moved
	// FaceRequested asks the page to load a single tile's face.
	FaceRequested
	// FaceApplied renders a single tile in its loaded face.
	FaceApplied
	// Grab carries cursor feedback.
	Grab
	// Navigate follows a single link tile.
	Navigate
)

func (k ChangeKind) String() string {
	switch k {
	case Rebuilt:
		return "rebuilt"
	case Moved:
		return "moved"
	case FaceRequested:
		return "faceRequested"
	case FaceApplied:
		return "faceApplied"
	case Grab:
		return "grab"
	case Navigate:
		return "navigate"
	}
	return "unknown"
}

// Change is a snapshot of session output. Tiles are copies, so a Change may cross goroutines.
type Change struct {
	Kind     ChangeKind
	Current  string
	Dims     glyph_grid.Dimensions
	Tiles    []glyph_grid.Tile
	Grabbing bool
}

// Feed implements glyph_grid.View, glyph_grid.FaceLoader and glyph_grid.Activator by
// sending Changes. Sends block until received or done is closed, so the session is paced
// by whoever drains Changes().
type Feed struct {
	current string
	changes chan Change
	done    <-chan struct{}
}

func NewFeed(done <-chan struct{}, current string) *Feed {
	return &Feed{
		current: current,
		changes: make(chan Change),
		done:    done,
	}
}

// Changes returns the feed's output. It is never closed; stop reading when done closes.
func (f *Feed) Changes() <-chan Change {
	return f.changes
}

func (f *Feed) Rebuild(dims glyph_grid.Dimensions, tiles []*glyph_grid.Tile) {
	f.send(Change{Kind: Rebuilt, Dims: dims, Tiles: copyTiles(tiles...)})
}

func (f *Feed) Reposition(tiles []*glyph_grid.Tile) {
	f.send(Change{Kind: Moved, Tiles: copyTiles(tiles...)})
}

func (f *Feed) ApplyFace(tile *glyph_grid.Tile) {
	f.send(Change{Kind: FaceApplied, Tiles: copyTiles(tile)})
}

func (f *Feed) Grabbing(grabbing bool) {
	f.send(Change{Kind: Grab, Grabbing: grabbing})
}

// RequestLoad only needs the face and the identity to correlate the completion with.
func (f *Feed) RequestLoad(face glyph_grid.Face, tile glyph_grid.TileID) {
	f.send(Change{Kind: FaceRequested, Tiles: []glyph_grid.Tile{{ID: tile, Face: face}}})
}

func (f *Feed) Activate(tile *glyph_grid.Tile) {
	f.send(Change{Kind: Navigate, Tiles: copyTiles(tile)})
}

func (f *Feed) send(change Change) {
	change.Current = f.current
	select {
	case f.changes <- change:
	case <-f.done:
	}
}

func copyTiles(tiles ...*glyph_grid.Tile) []glyph_grid.Tile {
	copied := make([]glyph_grid.Tile, len(tiles))
	for i, tile := range tiles {
		copied[i] = *tile
	}
	return copied
}
