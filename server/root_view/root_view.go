package root_view

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"punctuation/messages"
	"punctuation/server/fastview"
	"punctuation/server/tile_views"
)

// flushRate is how often merged ele-updates are published.
const flushRate = time.Millisecond * 20

// RootView is the glyph page, which is the container for all the view components,
// the wiring for their channels, etc.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// PageData is what the glyph page is executed with.
type PageData struct {
	Title       string
	Mark        string
	NoContainer string
}

// NewPageData returns the page data for a glyph.
func NewPageData(mark string) PageData {
	return PageData{
		Title:       messages.Get(messages.MarkTitle, mark),
		Mark:        mark,
		NoContainer: messages.Get(messages.NoContainer),
	}
}

// NewRootView creates the glyph page and the views it contains, fed by a session's changes.
// Views live as long as ctx.
func NewRootView(
	ctx context.Context,
	changes <-chan tile_views.Change,
	log *slog.Logger,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[tile_views.Change, tile_views.Frame]().
		WithContext(ctx).
		WithModel(changes, tile_views.Convert).
		WithView(func(
			done <-chan struct{},
			frames <-chan tile_views.Frame) fastview.ViewComponent {
			return tile_views.NewTileGrid(done, frames, log)
		}).
		WithView(func(
			done <-chan struct{},
			frames <-chan tile_views.Frame) fastview.ViewComponent {
			return tile_views.NewNavigation(done, frames)
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views, flushRate),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the glyph page's template, with websocket bootstrap code, and returns its name.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	viewTemplates := []string{}
	for _, vc := range rv.views {
		if tname, parseErr := vc.Parse(parent); parseErr != nil {
			err = parseErr
			return
		} else {
			viewTemplates = append(viewTemplates, tname)
		}
	}

	// Specify the nested templates
	var bodySpec string
	for _, tname := range viewTemplates {
		bodySpec += (`{{ template "` + tname + `" . }}`)
	}

	name = "mainpage"
	_, err = parent.Parse(`{{ define "` + name + `" }}` + head + `
		<body class="mark">
		` + bodySpec + `
		` + bootstrap + `
		</body></html>
	{{ end }}`)
	return
}

const head = `<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<link rel="icon" href="data:,">
		<title>{{ .Title }}</title>
		<style>
			html, body { margin: 0; height: 100%; font-family: sans-serif; }
			body.mark { overflow: hidden; touch-action: none; }
			.grid-container { position: relative; cursor: grab; user-select: none; -webkit-user-select: none; }
			.punctuation-cell {
				position: absolute;
				display: flex;
				flex-direction: column;
				align-items: center;
				justify-content: center;
				font-size: 48px;
			}
			.punctuation-cell a { text-decoration: none; color: inherit; }
			.typeface-name { display: none; font-size: 11px; font-family: sans-serif; }
			.punctuation-cell:hover .typeface-name { display: block; }
			.marks { list-style: none; display: flex; flex-wrap: wrap; gap: 24px; padding: 24px; font-size: 48px; }
			.marks a { text-decoration: none; color: inherit; }
		</style>
	</head>`

// bootstrap is the client code: it forwards input to the server and applies the server's
// ele-updates. The page holds no grid state of its own.
const bootstrap = `<script>
	(function () {
		const container = document.getElementById("grid-container");
		if (!container) {
			document.body.textContent = {{ .NoContainer }};
			return;
		}
		const scheme = window.location.protocol === "https:" ? "wss://" : "ws://";
		const ws = new WebSocket(scheme + window.location.host + "/ws" + window.location.search);

		const send = function (ev) {
			if (ws.readyState === WebSocket.OPEN) {
				ws.send(JSON.stringify(ev));
			}
		};
		const resize = function () {
			send({kind: "resize", width: window.innerWidth, height: window.innerHeight});
		};

		ws.onopen = function () {
			console.log("Web socket opened");
			resize();
		};
		ws.onerror = function (event) {
			console.log("WebSocket error: ", event);
		};
		window.addEventListener("resize", resize);

		// Input is forwarded only while a pointer is pressed on the grid.
		let pressed = false;
		container.addEventListener("pointerdown", function (e) {
			pressed = true;
			send({kind: "pointerdown", x: e.clientX, y: e.clientY});
			e.preventDefault();
		});
		container.addEventListener("pointermove", function (e) {
			if (!pressed) {
				return;
			}
			send({kind: "pointermove", x: e.clientX, y: e.clientY});
			e.preventDefault();
		});
		for (const kind of ["pointerup", "pointercancel", "pointerleave"]) {
			container.addEventListener(kind, function (e) {
				if (!pressed) {
					return;
				}
				pressed = false;
				send({kind: kind, x: e.clientX, y: e.clientY});
			});
		}
		// Scroll and selection stay suppressed for as long as the server says a gesture is on.
		const suppress = function (e) {
			if (container.getAttribute("data-suppress") === "true") {
				e.preventDefault();
			}
		};
		container.addEventListener("selectstart", suppress);
		container.addEventListener("touchmove", suppress, {passive: false});

		// The server decides what a pointer click is; links are followed on its say.
		// Keyboard activation (detail 0) has no pointer events and navigates natively.
		container.addEventListener("click", function (e) {
			if (e.detail > 0 && e.target.closest("a")) {
				e.preventDefault();
			}
		});

		const faces = new Map();
		const loadFace = function (ele, req) {
			const tile = parseInt(ele.id.slice("tile-".length), 10);
			// A face that cannot draw the page's glyph fails, so the tile keeps its fallback.
			if (!faces.has(req.family)) {
				faces.set(req.family, fetch(req.url).then(function (resp) {
					if (!resp.ok) {
						throw new Error(resp.status + " " + resp.statusText);
					}
					if (resp.headers.get("X-Covers-Mark") === "false") {
						throw new Error(req.family + " does not cover the glyph");
					}
					return resp.arrayBuffer();
				}).then(function (data) {
					return new FontFace(req.family, data).load();
				}).then(function (loaded) {
					document.fonts.add(loaded);
				}));
			}
			faces.get(req.family).then(function () {
				send({kind: "faceReady", tile: tile});
			}).catch(function (err) {
				send({kind: "faceFailed", tile: tile, reason: String(err)});
			});
		};

		// The meat: when the server pushes view updates, find these eles and update them.
		ws.onmessage = function (event) {
			const items = JSON.parse(event.data) || [];
			for (const update of items) {
				if (update.EleId === "window") {
					for (const op of update.Ops) {
						if (op.Key === "location") {
							window.location.assign(op.Value);
						}
					}
					continue;
				}
				// Tiles of a discarded pool are gone; their updates are moot.
				const ele = document.getElementById(update.EleId);
				if (!ele) {
					continue;
				}
				for (const op of update.Ops) {
					if (op.Key === "textContent") {
						ele.textContent = op.Value;
					} else if (op.Key === "innerHTML") {
						ele.innerHTML = op.Value;
					} else if (op.Key.startsWith("style.")) {
						ele.style[op.Key.slice("style.".length)] = op.Value;
					} else if (op.Key === "loadFace") {
						loadFace(ele, JSON.parse(op.Value));
					} else {
						ele.setAttribute(op.Key, op.Value);
					}
				}
			}
		};
	})();
	</script>`
