package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const testConfig = `
kind: punctuation
def:
  server:
    host: 127.0.0.1
    port: "9090"
  grid:
    cellSize: 100
    dragThreshold: 12
  catalog:
    url: http://fonts.test/webfonts
    timeout: 2s
    limit: 40
  glyphs: [".", ",", "&", "{}"]
  seed: 7
`

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When loading a config file", t, func() {
		Convey("The definition is unwrapped and defaults fill the gaps", func() {
			cfg, err := FromYaml(writeConfig(t, testConfig))
			So(err, ShouldBeNil)
			So(cfg.Server.Addr(), ShouldEqual, "127.0.0.1:9090")
			So(cfg.Grid.CellSize, ShouldEqual, 100)
			So(cfg.Grid.DragThreshold, ShouldEqual, 12)
			So(cfg.Grid.MarginCells, ShouldEqual, 2)
			So(cfg.Grid.CurrentGlyphChance, ShouldEqual, 0.98)
			So(cfg.Grid.HomeLinkChance, ShouldEqual, 0.10)
			So(cfg.Grid.MaxViewport, ShouldEqual, 8192)
			So(cfg.Catalog.URL, ShouldEqual, "http://fonts.test/webfonts")
			So(cfg.Catalog.Limit, ShouldEqual, 40)
			So(cfg.Glyphs, ShouldResemble, []string{".", ",", "&", "{}"})
			So(cfg.Seed, ShouldEqual, 7)

			timeout, err := cfg.Catalog.FetchTimeout()
			So(err, ShouldBeNil)
			So(timeout, ShouldEqual, 2*time.Second)
		})

		Convey("The fonts API key can come from the environment", func() {
			t.Setenv("PUNCTUATION_FONTS_API_KEY", "secret")
			cfg, err := FromYaml(writeConfig(t, testConfig))
			So(err, ShouldBeNil)
			So(cfg.Catalog.APIKey, ShouldEqual, "secret")
		})

		Convey("Another kind of document is rejected", func() {
			_, err := FromYaml(writeConfig(t, "kind: racetrack\ndef: {}\n"))
			So(errors.Is(err, ErrWrongKind), ShouldBeTrue)
		})

		Convey("A missing file is an error", func() {
			_, err := FromYaml(filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("When no file is given", t, func() {
		cfg := Default()
		So(cfg.Server.Addr(), ShouldEqual, ":8080")
		So(cfg.Glyphs, ShouldResemble, DefaultGlyphs)
		timeout, err := cfg.Catalog.FetchTimeout()
		So(err, ShouldBeNil)
		So(timeout, ShouldEqual, 5*time.Second)

		Convey("A malformed timeout is reported", func() {
			cfg.Catalog.Timeout = "soon"
			_, err := cfg.Catalog.FetchTimeout()
			So(err, ShouldNotBeNil)
		})
	})
}
