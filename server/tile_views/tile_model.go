package tile_views

import (
	"net/url"
	"strconv"

	"punctuation/glyph_grid"
	"punctuation/messages"
)

// Cell is a tile flattened for templates and ele-updates. As a rule of thumb, Cell fields
// should be immediately usable as view parameters.
type Cell struct {
	ID       string
	Row, Col int
	Left     string
	Top      string
	Size     string
	Variant  string
	Text     string
	Href     string
	Title    string
	Family   string
	FaceURL  string

	// Reveal is set for tiles that show their face name on hover.
	Reveal bool
}

// Frame is the view-model for one Change.
type Frame struct {
	Kind     ChangeKind
	Width    string
	Height   string
	Cells    []Cell
	Grabbing bool

	// Location is the navigation target of a Navigate frame.
	Location string
}

// Convert transforms a session Change into a Frame for consumption by the tile views.
func Convert(change Change) Frame {
	frame := Frame{
		Kind:     change.Kind,
		Grabbing: change.Grabbing,
		Cells:    make([]Cell, 0, len(change.Tiles)),
	}
	if change.Kind == Rebuilt {
		frame.Width = px(float64(change.Dims.Cols) * change.Dims.CellSize)
		frame.Height = px(float64(change.Dims.Rows) * change.Dims.CellSize)
	}
	for i := range change.Tiles {
		cell := toCell(&change.Tiles[i], change.Current)
		if change.Dims.CellSize > 0 {
			cell.Size = px(change.Dims.CellSize)
		}
		frame.Cells = append(frame.Cells, cell)
	}
	if change.Kind == Navigate && len(frame.Cells) > 0 {
		frame.Location = frame.Cells[0].Href
	}
	return frame
}

func toCell(tile *glyph_grid.Tile, current string) Cell {
	cell := Cell{
		ID:      TileEleId(tile.ID),
		Row:     tile.Row,
		Col:     tile.Col,
		Left:    px(tile.Left),
		Top:     px(tile.Top),
		Variant: tile.Variant.String(),
		Href:    Href(tile),
		Family:  tile.Face.Family,
		Reveal:  tile.RevealsFace(),
	}
	if !tile.Face.IsFallback() {
		cell.FaceURL = FaceURL(tile.Face.Family, current)
	}

	switch tile.Variant {
	case glyph_grid.CurrentGlyph:
		cell.Text = current
		cell.Title = tile.Face.Family
	case glyph_grid.HomeLink:
		cell.Text = messages.Get(messages.HomeLink)
		cell.Title = messages.Get(messages.HomeLinkTitle)
	case glyph_grid.OtherGlyphLink:
		cell.Text = tile.LinkTarget
		cell.Title = messages.Get(messages.GoToMark, tile.LinkTarget)
	}
	return cell
}

// TileEleId is the element id of a tile. Ids never repeat within a session.
func TileEleId(id glyph_grid.TileID) string {
	return "tile-" + strconv.Itoa(int(id))
}

// MarkPath returns the page path for a glyph.
func MarkPath(glyph string) string {
	return "/mark?mark=" + url.QueryEscape(glyph)
}

// Href is where a link tile navigates to; empty for the current glyph.
func Href(tile *glyph_grid.Tile) string {
	switch tile.Variant {
	case glyph_grid.HomeLink:
		return "/"
	case glyph_grid.OtherGlyphLink:
		return MarkPath(tile.LinkTarget)
	}
	return ""
}

// FaceURL is the same-origin address of a face file, checked against the current glyph.
func FaceURL(family, current string) string {
	return "/faces/" + url.PathEscape(family) + "?mark=" + url.QueryEscape(current)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
