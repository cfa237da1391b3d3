package tile_views

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"punctuation/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const (
	// ContainerId is the element id of the grid container.
	ContainerId = "grid-container"
	// KeySuppress tells the page whether to suppress its default scroll and selection.
	KeySuppress = "data-suppress"
)

// tilesTemplate renders the whole pool; a rebuild replaces the container's children with it.
// CurrentGlyph tiles carry their face name, hidden until hovered.
const tilesTemplate = `
{{- define "tiles" -}}
{{- range . -}}
<div id="{{ .ID }}" class="punctuation-cell {{ .Variant }}" data-row="{{ .Row }}" data-col="{{ .Col }}" data-font="{{ .Family }}" style="left: {{ .Left }}; top: {{ .Top }}; width: {{ .Size }}; height: {{ .Size }};">
	{{- if .Href -}}
	<a href="{{ .Href }}" title="{{ .Title }}">{{ .Text }}</a>
	{{- else -}}
	<span>{{ .Text }}</span>
	{{- if .Reveal }}<span class="typeface-name">{{ .Family }}</span>{{ end -}}
	{{- end -}}
</div>
{{- end -}}
{{- end -}}`

var tiles = template.Must(template.New("tiles").Parse(tilesTemplate))

// RenderTiles writes the markup of the passed cells.
func RenderTiles(cells []Cell) (string, error) {
	var sb strings.Builder
	if err := tiles.ExecuteTemplate(&sb, "tiles", cells); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// TileGrid is the draggable wall of tiles. The server owns the pool; this view only
// translates frames into ele-updates for the container and its tiles.
type TileGrid struct {
	id      string
	log     *slog.Logger
	updates <-chan []fastview.EleUpdate
}

func NewTileGrid(
	done <-chan struct{},
	frames <-chan Frame,
	log *slog.Logger,
) (tg *TileGrid) {
	tg = &TileGrid{
		id:  template.HTMLEscapeString(ContainerId),
		log: log,
	}
	tg.updates = channerics.Convert(done, frames, tg.onUpdate)
	return
}

func (tg *TileGrid) Updates() <-chan []fastview.EleUpdate {
	return tg.updates
}

// Parse adds the empty container to the page. Tiles arrive with the first rebuild,
// since only the page knows its viewport.
func (tg *TileGrid) Parse(t *template.Template) (name string, err error) {
	name = "tilegrid"
	_, err = t.Parse(`{{ define "` + name + `" }}<div id="` + tg.id + `" class="grid-container"></div>{{ end }}`)
	return
}

// Returns the set of view updates needed for the view to reflect the frame.
func (tg *TileGrid) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	switch frame.Kind {
	case Rebuilt:
		html, err := RenderTiles(frame.Cells)
		if err != nil {
			tg.log.Error("render tiles", "err", err)
			return nil
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: tg.id,
			Ops: []fastview.Op{
				{Key: fastview.KeyInnerHTML, Value: html},
				{Key: fastview.StylePrefix + "width", Value: frame.Width},
				{Key: fastview.StylePrefix + "height", Value: frame.Height},
				{Key: fastview.StylePrefix + "cursor", Value: "grab"},
			},
		})
	case Moved:
		for _, cell := range frame.Cells {
			ops = append(ops, fastview.EleUpdate{
				EleId: cell.ID,
				Ops: []fastview.Op{
					{Key: fastview.StylePrefix + "left", Value: cell.Left},
					{Key: fastview.StylePrefix + "top", Value: cell.Top},
					{Key: "data-row", Value: strconv.Itoa(cell.Row)},
					{Key: "data-col", Value: strconv.Itoa(cell.Col)},
				},
			})
		}
	case FaceRequested:
		for _, cell := range frame.Cells {
			payload, err := json.Marshal(FaceRequest{Family: cell.Family, URL: cell.FaceURL})
			if err != nil {
				tg.log.Error("encode face request", "tile", cell.ID, "err", err)
				continue
			}
			ops = append(ops, fastview.EleUpdate{
				EleId: cell.ID,
				Ops:   []fastview.Op{{Key: fastview.KeyLoadFace, Value: string(payload)}},
			})
		}
	case FaceApplied:
		for _, cell := range frame.Cells {
			ops = append(ops, fastview.EleUpdate{
				EleId: cell.ID,
				Ops: []fastview.Op{
					{Key: fastview.StylePrefix + "fontFamily", Value: FontFamily(cell.Family)},
				},
			})
		}
	case Grab:
		cursor := "grab"
		if frame.Grabbing {
			cursor = "grabbing"
		}
		ops = append(ops, fastview.EleUpdate{
			EleId: tg.id,
			Ops: []fastview.Op{
				{Key: fastview.StylePrefix + "cursor", Value: cursor},
				{Key: KeySuppress, Value: strconv.FormatBool(frame.Grabbing)},
			},
		})
	}
	return
}

// FaceRequest is the value of a loadFace op.
type FaceRequest struct {
	Family string `json:"family"`
	URL    string `json:"url"`
}

// FontFamily is the css font-family of a tile in a loaded face, falling back to sans-serif.
func FontFamily(family string) string {
	return "'" + strings.ReplaceAll(family, "'", `\'`) + "', sans-serif"
}
