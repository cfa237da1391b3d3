package glyph_grid

import (
	"errors"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingView struct {
	rebuilds    int
	repositions int
	applied     []*Tile
	grabbing    []bool
}

func (rv *recordingView) Rebuild(Dimensions, []*Tile) { rv.rebuilds++ }
func (rv *recordingView) Reposition([]*Tile)          { rv.repositions++ }
func (rv *recordingView) ApplyFace(tile *Tile)        { rv.applied = append(rv.applied, tile) }
func (rv *recordingView) Grabbing(grabbing bool)      { rv.grabbing = append(rv.grabbing, grabbing) }

type recordingLoader struct {
	requests map[TileID]Face
}

func (rl *recordingLoader) RequestLoad(face Face, tile TileID) {
	rl.requests[tile] = face
}

type recordingActivator struct {
	activated []*Tile
}

func (ra *recordingActivator) Activate(tile *Tile) {
	ra.activated = append(ra.activated, tile)
}

func TestSession(t *testing.T) {
	Convey("When building a session", t, func() {
		Convey("A missing glyph is fatal", func() {
			_, err := NewSessionBuilder("").Build()
			So(errors.Is(err, ErrNoGlyph), ShouldBeTrue)
		})
	})

	Convey("Given a session over an 800x600 viewport", t, func() {
		view := &recordingView{}
		loader := &recordingLoader{requests: map[TileID]Face{}}
		activator := &recordingActivator{}
		chances := DefaultChances
		catalog := testCatalog

		build := func() *Session {
			session, err := NewSessionBuilder(".").
				WithGlyphs(testGlyphs).
				WithCatalog(catalog).
				WithChances(chances).
				WithRand(rand.New(rand.NewSource(11))).
				WithView(view).
				WithFaceLoader(loader).
				WithActivator(activator).
				WithDebug(true).
				Build()
			So(err, ShouldBeNil)
			session.Resize(Viewport{Width: 800, Height: 600})
			return session
		}

		Convey("Resize builds a full pool and requests every tile's face", func() {
			session := build()
			So(len(session.Tiles()), ShouldEqual, 56)
			So(view.rebuilds, ShouldEqual, 1)
			So(len(loader.requests), ShouldEqual, 56)
			So(session.PendingFaces(), ShouldEqual, 56)
			for _, tile := range session.Tiles() {
				So(loader.requests[tile.ID], ShouldResemble, tile.Face)
			}
		})

		Convey("An empty catalog builds a grid of fallback faces and requests nothing", func() {
			catalog = nil
			session := build()
			So(len(session.Tiles()), ShouldEqual, 56)
			So(len(loader.requests), ShouldEqual, 0)
			for _, tile := range session.Tiles() {
				So(tile.Face.IsFallback(), ShouldBeTrue)
				So(tile.RevealsFace(), ShouldBeFalse)
			}
		})

		Convey("Resizing twice in a row simply discards the first pool", func() {
			session := build()
			first := session.Tiles()[0].ID
			session.Resize(Viewport{Width: 800, Height: 600})
			session.Resize(Viewport{Width: 300, Height: 300})
			So(view.rebuilds, ShouldEqual, 3)
			So(len(session.Tiles()), ShouldEqual, 25)
			So(CheckPartition(session.Tiles(), session.Dimensions()), ShouldBeNil)

			Convey("And completions for the discarded tiles are dropped", func() {
				So(session.FaceReady(first), ShouldBeFalse)
				So(len(view.applied), ShouldEqual, 0)
			})
		})

		Convey("A face completion applies to its tile after the tile has wrapped", func() {
			session := build()
			var tile *Tile
			for _, candidate := range session.Tiles() {
				if candidate.Row == 0 && candidate.Col == 0 {
					tile = candidate
				}
			}

			session.PointerDown(Point{400, 300})
			// -15 then -10 per move: the tile crosses -140 on the last move.
			for x := 385.0; x >= 255; x -= 10 {
				So(session.PointerMove(Point{x, 300}), ShouldBeTrue)
			}
			session.PointerUp(Point{255, 300})
			So(tile.Left, ShouldEqual, 975)

			So(session.FaceReady(tile.ID), ShouldBeTrue)
			So(tile.FaceLoaded, ShouldBeTrue)
			So(len(view.applied), ShouldEqual, 1)
			So(view.applied[0], ShouldEqual, tile)
			So(session.FaceReady(tile.ID), ShouldBeFalse)
		})

		Convey("A failed face load leaves the tile on its fallback", func() {
			session := build()
			tile := session.Tiles()[5]
			session.FaceFailed(tile.ID, "404")
			So(tile.FaceLoaded, ShouldBeFalse)
			So(session.FaceReady(tile.ID), ShouldBeFalse)
			So(session.PendingFaces(), ShouldEqual, 55)
		})

		Convey("With every tile a home link", func() {
			chances = Chances{Current: 0, Home: 1}
			session := build()

			Convey("A click activates the link under the release point exactly once", func() {
				session.PointerDown(Point{150, 20})
				tile := session.PointerUp(Point{155, 25})
				So(tile, ShouldNotBeNil)
				So(tile.Row, ShouldEqual, 0)
				So(tile.Col, ShouldEqual, 1)
				So(len(activator.activated), ShouldEqual, 1)
				So(activator.activated[0], ShouldEqual, tile)
				So(view.grabbing, ShouldResemble, []bool{true, false})
			})

			Convey("A drag activates nothing regardless of release position", func() {
				session.PointerDown(Point{150, 20})
				session.PointerMove(Point{170, 20})
				So(session.PointerUp(Point{150, 20}), ShouldBeNil)
				So(len(activator.activated), ShouldEqual, 0)
				So(view.repositions, ShouldEqual, 1)
			})

			Convey("A release displaced by the threshold activates nothing", func() {
				session.PointerDown(Point{150, 20})
				So(session.PointerUp(Point{160, 20}), ShouldBeNil)
				So(len(activator.activated), ShouldEqual, 0)
			})

			Convey("Cancel and leave end the gesture like up", func() {
				So(session.Handle(InputEvent{Kind: EventPointerDown, X: 10, Y: 10}), ShouldBeNil)
				So(session.Handle(InputEvent{Kind: EventPointerCancel, X: 12, Y: 10}), ShouldBeNil)
				So(len(activator.activated), ShouldEqual, 1)
				So(session.DragState(), ShouldEqual, Idle)
			})
		})

		Convey("With every tile the current glyph, clicks activate nothing", func() {
			chances = Chances{Current: 1}
			session := build()
			session.PointerDown(Point{150, 20})
			So(session.PointerUp(Point{150, 20}), ShouldBeNil)
			So(len(activator.activated), ShouldEqual, 0)
			So(session.Tiles()[0].RevealsFace(), ShouldBeTrue)
		})

		Convey("A resize during a drag silently ends it", func() {
			session := build()
			session.PointerDown(Point{100, 100})
			session.PointerMove(Point{150, 100})
			So(session.DragState(), ShouldEqual, Dragging)

			So(session.Handle(InputEvent{Kind: EventResize, Width: 1024, Height: 768}), ShouldBeNil)
			So(session.DragState(), ShouldEqual, Idle)
			So(session.PointerMove(Point{200, 100}), ShouldBeFalse)
			So(session.PointerUp(Point{200, 100}), ShouldBeNil)
			So(len(activator.activated), ShouldEqual, 0)
		})

		Convey("After any mix of resizes and drags the pool is a partition", func() {
			session := build()
			viewports := []Viewport{{1024, 768}, {320, 640}, {1920, 1080}}
			for i, vp := range viewports {
				session.Resize(vp)
				session.PointerDown(Point{500, 500})
				for step := 1; step < 60; step++ {
					session.PointerMove(Point{500 + float64(step*(i+3)*7), 500 - float64(step*(i+2)*5)})
				}
				session.PointerUp(Point{0, 0})
				So(len(session.Tiles()), ShouldEqual, session.Dimensions().Size())
				So(CheckPartition(session.Tiles(), session.Dimensions()), ShouldBeNil)
			}
		})

		Convey("An oversized resize is clamped to a bounded pool", func() {
			session := build()
			So(session.Handle(InputEvent{Kind: EventResize, Width: 1e15, Height: 1e15}), ShouldBeNil)
			So(session.Viewport(), ShouldResemble, Viewport{Width: MaxViewport, Height: MaxViewport})
			So(session.Dimensions().Cols, ShouldEqual, 59+MarginCells)
			So(session.Dimensions().Rows, ShouldEqual, 59+MarginCells)
			So(len(session.Tiles()), ShouldEqual, 61*61)
			So(CheckPartition(session.Tiles(), session.Dimensions()), ShouldBeNil)

			So(session.Handle(InputEvent{Kind: EventResize, Width: 1e300, Height: 10}), ShouldBeNil)
			So(session.Dimensions(), ShouldResemble, Dimensions{Rows: 3, Cols: 61, CellSize: CellSize})
		})

		Convey("Negative resizes are rejected and keep the pool", func() {
			session := build()
			err := session.Handle(InputEvent{Kind: EventResize, Width: -800, Height: 600})
			So(errors.Is(err, ErrBadViewport), ShouldBeTrue)
			So(view.rebuilds, ShouldEqual, 1)
			So(len(session.Tiles()), ShouldEqual, 56)
		})

		Convey("Unknown events are rejected", func() {
			session := build()
			err := session.Handle(InputEvent{Kind: "wheel"})
			So(errors.Is(err, ErrUnknownEvent), ShouldBeTrue)
		})
	})
}
