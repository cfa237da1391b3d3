package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"punctuation/config"
	"punctuation/glyph_grid"
	"punctuation/messages"
	"punctuation/server/fastview"
	"punctuation/server/tile_views"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

var lobster = glyph_grid.Face{Family: "Lobster", SourceURL: "https://fonts.test/lobster.ttf"}

func newTestServer() *httptest.Server {
	cfg := config.Default()
	cfg.Seed = 5
	cfg.Debug = true
	faces := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("face"))
	})
	srv := NewServer(*cfg, []glyph_grid.Face{lobster}, faces, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return httptest.NewServer(srv.Handler())
}

func get(t *testing.T, url string) (*http.Response, *goquery.Document) {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, doc
}

func TestPages(t *testing.T) {
	Convey("Given a server", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("The home page lists every glyph", func() {
			resp, doc := get(t, ts.URL+"/")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(doc.Find("ul.marks a").Length(), ShouldEqual, len(config.DefaultGlyphs))
		})

		Convey("A glyph page hosts the grid", func() {
			resp, doc := get(t, ts.URL+"/mark?mark=%3F")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(doc.Find("title").Text(), ShouldEqual, messages.Get(messages.MarkTitle, "?"))
			So(doc.Find("#grid-container").Length(), ShouldEqual, 1)
		})

		Convey("Decomposed marks are normalized", func() {
			_, doc := get(t, ts.URL+"/mark?mark=e%CC%81")
			So(doc.Find("title").Text(), ShouldEqual, messages.Get(messages.MarkTitle, "é"))
		})

		Convey("A missing mark gets the placeholder and no grid", func() {
			resp, doc := get(t, ts.URL+"/mark")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(doc.Find("body").Text(), ShouldContainSubstring, messages.Get(messages.NoMark))
			So(doc.Find("#grid-container").Length(), ShouldEqual, 0)

			resp, _ = get(t, ts.URL+"/mark?mark=")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A websocket without a mark is refused", func() {
			resp, err := http.Get(ts.URL + "/ws")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Faces are routed to the proxy", func() {
			resp, err := http.Get(ts.URL + "/faces/Lobster")
			So(err, ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			So(string(body), ShouldEqual, "face")
		})
	})
}

// page is the browser side of a session: it applies nothing, only records updates.
type page struct {
	conn    *websocket.Conn
	pending []fastview.EleUpdate
}

// await returns the first update, received or still pending, that satisfies match.
// Updates before it are consumed.
func (p *page) await(match func(fastview.EleUpdate) bool) (fastview.EleUpdate, bool) {
	deadline := time.Now().Add(3 * time.Second)
	for {
		for i, update := range p.pending {
			if match(update) {
				p.pending = p.pending[i+1:]
				return update, true
			}
		}
		p.pending = nil

		if time.Now().After(deadline) {
			return fastview.EleUpdate{}, false
		}
		_ = p.conn.SetReadDeadline(deadline)
		var updates []fastview.EleUpdate
		if err := p.conn.ReadJSON(&updates); err != nil {
			return fastview.EleUpdate{}, false
		}
		p.pending = updates
	}
}

func hasKey(key string) func(fastview.EleUpdate) bool {
	return func(update fastview.EleUpdate) bool {
		for _, op := range update.Ops {
			if op.Key == key {
				return true
			}
		}
		return false
	}
}

func TestSessionOverWebsocket(t *testing.T) {
	Convey("Given a page connected to a glyph's websocket", t, func() {
		ts := newTestServer()
		defer ts.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?mark=.", nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		p := &page{conn: conn}

		So(conn.WriteJSON(glyph_grid.InputEvent{Kind: glyph_grid.EventResize, Width: 800, Height: 600}), ShouldBeNil)

		Convey("A resize fills the container with the pool", func() {
			update, ok := p.await(hasKey(fastview.KeyInnerHTML))
			So(ok, ShouldBeTrue)
			So(update.EleId, ShouldEqual, tile_views.ContainerId)

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(update.Ops[0].Value))
			So(err, ShouldBeNil)
			So(doc.Find(".punctuation-cell").Length(), ShouldEqual, 56)

			Convey("And a loaded face is applied to the tile that asked for it", func() {
				request, ok := p.await(hasKey(fastview.KeyLoadFace))
				So(ok, ShouldBeTrue)
				id, err := strconv.Atoi(strings.TrimPrefix(request.EleId, "tile-"))
				So(err, ShouldBeNil)

				So(conn.WriteJSON(glyph_grid.InputEvent{Kind: glyph_grid.EventFaceReady, Tile: glyph_grid.TileID(id)}), ShouldBeNil)
				applied, ok := p.await(func(update fastview.EleUpdate) bool {
					return update.EleId == request.EleId && hasKey("style.fontFamily")(update)
				})
				So(ok, ShouldBeTrue)
				So(applied.Ops, ShouldContain, fastview.Op{Key: "style.fontFamily", Value: "'Lobster', sans-serif"})
			})

			Convey("And an oversized resize is clamped without ending the session", func() {
				So(conn.WriteJSON(glyph_grid.InputEvent{Kind: glyph_grid.EventResize, Width: 1e15, Height: 1e15}), ShouldBeNil)
				_, ok := p.await(func(update fastview.EleUpdate) bool {
					for _, op := range update.Ops {
						if op.Key == fastview.KeyInnerHTML {
							return strings.Count(op.Value, `class="punctuation-cell`) == 61*61
						}
					}
					return false
				})
				So(ok, ShouldBeTrue)
			})

			Convey("And a drag past the threshold moves the tiles", func() {
				events := []glyph_grid.InputEvent{
					{Kind: glyph_grid.EventPointerDown, X: 400, Y: 300},
					{Kind: glyph_grid.EventPointerMove, X: 380, Y: 300},
					{Kind: glyph_grid.EventPointerUp, X: 380, Y: 300},
				}
				for _, ev := range events {
					So(conn.WriteJSON(ev), ShouldBeNil)
				}

				moved, ok := p.await(func(update fastview.EleUpdate) bool {
					return strings.HasPrefix(update.EleId, "tile-") && hasKey("style.left")(update)
				})
				So(ok, ShouldBeTrue)
				So(hasKey("data-col")(moved), ShouldBeTrue)
			})
		})
	})
}
