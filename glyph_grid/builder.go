package glyph_grid

// IDSource hands out tile identities. A session keeps one for its lifetime so that
// ids never repeat across rebuilds.
type IDSource struct {
	next TileID
}

// Next returns a fresh tile id.
func (ids *IDSource) Next() TileID {
	id := ids.next
	ids.next++
	return id
}

// Build materializes the full tile pool for the given dimensions, rows outermost.
// Each tile starts at (col*cellSize, row*cellSize), with no wrap offset.
func Build(dims Dimensions, assigner *Assigner, ids *IDSource) []*Tile {
	tiles := make([]*Tile, 0, dims.Size())
	for row := 0; row < dims.Rows; row++ {
		for col := 0; col < dims.Cols; col++ {
			tiles = append(tiles, assigner.Assign(ids.Next(), row, col, dims))
		}
	}
	return tiles
}
