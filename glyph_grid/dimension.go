package glyph_grid

import "math"

// Dimensions is the size of the tile pool in slots, plus the cell size it was computed for.
type Dimensions struct {
	Rows, Cols int
	CellSize   float64
}

// Size returns the number of tiles in a pool of these dimensions.
func (d Dimensions) Size() int {
	return d.Rows * d.Cols
}

// Span returns the pixel width and height covered by the whole pool.
func (d Dimensions) Span() (width, height float64) {
	return float64(d.Cols) * d.CellSize, float64(d.Rows) * d.CellSize
}

// Dimension returns the number of rows and cols needed to cover the viewport, plus margin
// on each axis: cols = ceil(width/cellSize) + margin, and likewise for rows.
// A non-positive viewport axis is covered by the margin alone.
func Dimension(vp Viewport, cellSize float64, margin int) Dimensions {
	return Dimensions{
		Rows:     cover(vp.Height, cellSize) + margin,
		Cols:     cover(vp.Width, cellSize) + margin,
		CellSize: cellSize,
	}
}

func cover(length, cellSize float64) int {
	if !(length > 0) || cellSize <= 0 {
		return 0
	}
	return int(math.Ceil(length / cellSize))
}
