// messages holds the user-visible strings of the pages, keyed by constant ids.
package messages

import (
	_ "embed"

	"github.com/leonelquinteros/gotext"
)

//go:embed en.po
var en []byte

const (
	NoMark        = "NO_MARK"
	NoContainer   = "NO_CONTAINER"
	HomeTitle     = "HOME_TITLE"
	HomeIntro     = "HOME_INTRO"
	MarkTitle     = "MARK_TITLE"
	HomeLink      = "HOME_LINK"
	HomeLinkTitle = "HOME_LINK_TITLE"
	GoToMark      = "GO_TO_MARK"
)

var po = load(en)

func load(data []byte) *gotext.Po {
	p := gotext.NewPo()
	p.Parse(data)
	return p
}

// Get returns the translation for id, formatted with vars. Unknown ids come back unchanged.
func Get(id string, vars ...interface{}) string {
	return po.Get(id, vars...)
}
