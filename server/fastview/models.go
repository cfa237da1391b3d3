// fastview implements a builder pattern for simple server side views:
// given an input data format, apply a transformation to a view-model,
// multiplex that data to one or more views, and push the views' element
// updates to a browser over a websocket.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute keys or one of the reserved keys below; values are the strings
	// to which these are set. Example: ('data-row','3') means set attribute data-row to 3.
	// Reserved keys:
	//   'textContent' sets ele.textContent
	//   'innerHTML'   replaces the element's children
	//   'style.<prop>' sets ele.style[prop]
	//   'loadFace'    loads the face described by the JSON value {family,url} for the element
	//   'location'    on the reserved element id 'window', navigates to the value
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// Reserved op keys and element ids understood by the page's bootstrap script.
const (
	KeyTextContent = "textContent"
	KeyInnerHTML   = "innerHTML"
	KeyLoadFace    = "loadFace"
	KeyLocation    = "location"
	StylePrefix    = "style."
	WindowId       = "window"
)

// ViewComponent implements server side views: Parse to add their initial form to a page
// template and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component and adds it to the passed parent template, thus inheriting
	// or possibly extending its definition (func-map, etc), and returns the name of the template
	// to invoke for it.
	Parse(*template.Template) (string, error)
}
