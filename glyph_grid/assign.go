package glyph_grid

import (
	"github.com/zyedidia/generic/mapset"
)

// RandSource is the randomness used for content assignment. *math/rand.Rand satisfies it;
// tests pass a seeded one to assert exact layouts.
type RandSource interface {
	Float64() float64
	Intn(n int) int
}

// Chances are the two-stage content probabilities. Current is drawn first; Home is drawn
// only for tiles that did not get the current glyph.
type Chances struct {
	Current float64
	Home    float64
}

// DefaultChances are the production probabilities.
var DefaultChances = Chances{Current: CurrentGlyphChance, Home: HomeLinkChance}

// Assigner decides each slot's face and content.
type Assigner struct {
	current string
	others  []string
	catalog []Face
	chances Chances
	rnd     RandSource
}

// NewAssigner returns an assigner for pages about the current glyph. Link targets are drawn
// from glyphs minus the current glyph (duplicates are dropped). The catalog may be empty.
func NewAssigner(
	current string,
	glyphs []string,
	catalog []Face,
	chances Chances,
	rnd RandSource,
) *Assigner {
	seen := mapset.New[string]()
	seen.Put(current)
	others := make([]string, 0, len(glyphs))
	for _, glyph := range glyphs {
		if glyph == "" || seen.Has(glyph) {
			continue
		}
		seen.Put(glyph)
		others = append(others, glyph)
	}

	return &Assigner{
		current: current,
		others:  others,
		catalog: catalog,
		chances: chances,
		rnd:     rnd,
	}
}

// Current returns the glyph this assigner's pages are about.
func (a *Assigner) Current() string {
	return a.current
}

// Others returns the candidate link targets.
func (a *Assigner) Others() []string {
	return a.others
}

// FaceIndex returns the catalog index for slot (row, col): (row*cols + col) mod N.
// It returns false when the catalog is empty.
func (a *Assigner) FaceIndex(row, col, cols int) (int, bool) {
	n := len(a.catalog)
	if n == 0 {
		return 0, false
	}
	return (row*cols + col) % n, true
}

// Face returns the face for slot (row, col), or the fallback face for an empty catalog.
func (a *Assigner) Face(row, col, cols int) Face {
	if i, ok := a.FaceIndex(row, col, cols); ok {
		return a.catalog[i]
	}
	return Face{}
}

// Variant draws a content variant and, for glyph links, the target glyph.
// With no other glyph to link to, a link tile degrades to a home link.
func (a *Assigner) Variant() (Variant, string) {
	if a.rnd.Float64() < a.chances.Current {
		return CurrentGlyph, ""
	}
	if a.rnd.Float64() < a.chances.Home || len(a.others) == 0 {
		return HomeLink, ""
	}
	return OtherGlyphLink, a.others[a.rnd.Intn(len(a.others))]
}

// Assign returns a new tile for slot (row, col) positioned at its build-time location.
func (a *Assigner) Assign(id TileID, row, col int, dims Dimensions) *Tile {
	variant, target := a.Variant()
	return &Tile{
		ID:         id,
		Row:        row,
		Col:        col,
		Left:       float64(col) * dims.CellSize,
		Top:        float64(row) * dims.CellSize,
		Variant:    variant,
		Face:       a.Face(row, col, dims.Cols),
		LinkTarget: target,
	}
}
