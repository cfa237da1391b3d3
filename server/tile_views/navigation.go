package tile_views

import (
	"html/template"

	"punctuation/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Navigation follows activated link tiles by pointing the window at their target.
// It renders nothing.
type Navigation struct {
	updates <-chan []fastview.EleUpdate
}

func NewNavigation(
	done <-chan struct{},
	frames <-chan Frame,
) (nav *Navigation) {
	nav = &Navigation{}
	nav.updates = channerics.Convert(done, frames, nav.onUpdate)
	return
}

func (nav *Navigation) Updates() <-chan []fastview.EleUpdate {
	return nav.updates
}

func (nav *Navigation) Parse(t *template.Template) (name string, err error) {
	name = "navigation"
	_, err = t.Parse(`{{ define "` + name + `" }}{{ end }}`)
	return
}

func (nav *Navigation) onUpdate(frame Frame) []fastview.EleUpdate {
	if frame.Kind != Navigate || frame.Location == "" {
		return nil
	}
	return []fastview.EleUpdate{{
		EleId: fastview.WindowId,
		Ops:   []fastview.Op{{Key: fastview.KeyLocation, Value: frame.Location}},
	}}
}
