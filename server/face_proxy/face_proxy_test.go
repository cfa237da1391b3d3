package face_proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"punctuation/catalog"
	"punctuation/glyph_grid"

	"github.com/go-text/typesetting/font"
	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/image/font/gofont/goregular"
)

func TestProxy(t *testing.T) {
	Convey("Given a proxy in front of a font host", t, func() {
		fetches := 0
		origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches++
			switch r.URL.Path {
			case "/go.ttf", "/other.ttf":
				_, _ = w.Write(goregular.TTF)
			case "/junk.ttf":
				_, _ = w.Write([]byte("definitely not a font"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer origin.Close()

		faces := catalog.NewIndex([]glyph_grid.Face{
			{Family: "Go Regular", SourceURL: origin.URL + "/go.ttf"},
			{Family: "Other", SourceURL: origin.URL + "/other.ttf"},
			{Family: "Junk", SourceURL: origin.URL + "/junk.ttf"},
			{Family: "Gone", SourceURL: origin.URL + "/gone.ttf"},
		})
		proxy := NewProxy(faces, origin.Client(), 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
		router := mux.NewRouter()
		router.Handle("/faces/{family}", proxy)

		get := func(target string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			return rec
		}

		Convey("A catalog face is served and cached", func() {
			rec := get("/faces/Go%20Regular?mark=.")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(bytes.Equal(rec.Body.Bytes(), goregular.TTF), ShouldBeTrue)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "font/ttf")
			So(rec.Header().Get("X-Covers-Mark"), ShouldEqual, "true")
			So(proxy.Cached("Go Regular"), ShouldBeTrue)

			_ = get("/faces/Go%20Regular")
			So(fetches, ShouldEqual, 1)

			Convey("And evicted once the cache is full", func() {
				So(get("/faces/Other").Code, ShouldEqual, http.StatusOK)
				So(proxy.Cached("Go Regular"), ShouldBeFalse)
				So(proxy.Cached("Other"), ShouldBeTrue)
			})
		})

		Convey("Marks outside the face's character map are reported", func() {
			rec := get("/faces/Go%20Regular?mark=%E6%BC%A2")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("X-Covers-Mark"), ShouldEqual, "false")
		})

		Convey("Unknown families are not found", func() {
			So(get("/faces/Comic").Code, ShouldEqual, http.StatusNotFound)
			So(fetches, ShouldEqual, 0)
		})

		Convey("Files that are not fonts are a bad gateway", func() {
			So(get("/faces/Junk").Code, ShouldEqual, http.StatusBadGateway)
			So(proxy.Cached("Junk"), ShouldBeFalse)
		})

		Convey("Missing files are a bad gateway", func() {
			So(get("/faces/Gone").Code, ShouldEqual, http.StatusBadGateway)
		})

		Convey("Files over the size limit are refused, not truncated", func() {
			proxy.maxSize = int64(len(goregular.TTF)) - 1
			_, err := proxy.load(context.Background(), "Go Regular")
			So(errors.Is(err, ErrFaceTooLarge), ShouldBeTrue)
			So(errors.Is(err, ErrBadFace), ShouldBeFalse)
			So(get("/faces/Go%20Regular").Code, ShouldEqual, http.StatusBadGateway)
			So(proxy.Cached("Go Regular"), ShouldBeFalse)

			Convey("While a file of exactly the limit is served", func() {
				proxy.maxSize = int64(len(goregular.TTF))
				So(get("/faces/Go%20Regular").Code, ShouldEqual, http.StatusOK)
			})
		})
	})

	Convey("A proxy without a client still times out its fetches", t, func() {
		proxy := NewProxy(catalog.NewIndex(nil), nil, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
		So(proxy.client, ShouldNotEqual, http.DefaultClient)
		So(proxy.client.Timeout, ShouldEqual, fetchTimeout)
	})

	Convey("When checking coverage directly", t, func() {
		face, err := font.ParseTTF(bytes.NewReader(goregular.TTF))
		So(err, ShouldBeNil)
		So(Covers(face.Font, "()"), ShouldBeTrue)
		So(Covers(face.Font, "漢"), ShouldBeFalse)
	})
}
