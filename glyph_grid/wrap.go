package glyph_grid

// Reproject pans every tile by delta, wrapping tiles that cross the viewport-plus-margin
// boundary to the opposite side. Axes wrap independently. Deltas are bounded by normal
// pointer motion, so a tile wraps at most once per axis per call.
func Reproject(tiles []*Tile, delta Point, dims Dimensions, vp Viewport) {
	spanX, spanY := dims.Span()
	for _, tile := range tiles {
		left := tile.Left + delta.X
		top := tile.Top + delta.Y

		if left < -dims.CellSize {
			left += spanX
			tile.Col = mod(tile.Col+dims.Cols, dims.Cols)
		} else if left > vp.Width {
			left -= spanX
			tile.Col = mod(tile.Col-dims.Cols+dims.Cols, dims.Cols)
		}

		if top < -dims.CellSize {
			top += spanY
			tile.Row = mod(tile.Row+dims.Rows, dims.Rows)
		} else if top > vp.Height {
			top -= spanY
			tile.Row = mod(tile.Row-dims.Rows+dims.Rows, dims.Rows)
		}

		tile.Left = left
		tile.Top = top
	}
}

// mod is the non-negative remainder of a/n.
func mod(a, n int) int {
	if n == 0 {
		return 0
	}
	return ((a % n) + n) % n
}
