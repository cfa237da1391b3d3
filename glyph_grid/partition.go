package glyph_grid

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

var (
	// ErrPoolSize is returned by CheckPartition when the pool does not hold exactly Rows*Cols tiles.
	ErrPoolSize = errors.New("tile pool size does not match dimensions")
	// ErrSlotOutOfRange is returned when a tile's logical slot lies outside the index space.
	ErrSlotOutOfRange = errors.New("tile slot out of range")
	// ErrDuplicateSlot is returned when two tiles claim the same logical slot.
	ErrDuplicateSlot = errors.New("duplicate tile slot")
)

type slot struct {
	row, col int
}

// CheckPartition verifies that the tiles' logical slots are exactly the cross product
// [0,Rows) x [0,Cols): right cardinality, every slot in range, no slot claimed twice.
// With the cardinality fixed, no duplicates also means no gaps.
func CheckPartition(tiles []*Tile, dims Dimensions) error {
	if len(tiles) != dims.Size() {
		return fmt.Errorf("%w: have %d, want %dx%d", ErrPoolSize, len(tiles), dims.Rows, dims.Cols)
	}

	seen := mapset.New[slot]()
	for _, tile := range tiles {
		if tile.Row < 0 || tile.Row >= dims.Rows || tile.Col < 0 || tile.Col >= dims.Cols {
			return fmt.Errorf("%w: tile %d at (%d,%d)", ErrSlotOutOfRange, tile.ID, tile.Row, tile.Col)
		}
		s := slot{tile.Row, tile.Col}
		if seen.Has(s) {
			return fmt.Errorf("%w: tile %d at (%d,%d)", ErrDuplicateSlot, tile.ID, tile.Row, tile.Col)
		}
		seen.Put(s)
	}
	return nil
}
