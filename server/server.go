package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"punctuation/config"
	"punctuation/glyph_grid"
	"punctuation/messages"
	"punctuation/server/fastview"
	"punctuation/server/root_view"
	"punctuation/server/tile_views"

	"github.com/gorilla/mux"
	"golang.org/x/text/unicode/norm"
)

// shutdownGrace bounds how long Serve waits for in-flight requests once its context ends.
const shutdownGrace = 5 * time.Second

// Server serves the home page, the glyph pages and their websockets, and the face proxy.
// Every websocket owns one grid session; the catalog is shared and read-only.
type Server struct {
	cfg     config.Config
	catalog []glyph_grid.Face
	faces   http.Handler
	log     *slog.Logger
	router  *mux.Router
}

// NewServer returns a server for the given, already fetched, catalog. Faces is the handler
// for /faces/{family}.
func NewServer(
	cfg config.Config,
	catalog []glyph_grid.Face,
	faces http.Handler,
	log *slog.Logger,
) *Server {
	server := &Server{
		cfg:     cfg,
		catalog: catalog,
		faces:   faces,
		log:     log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveHome).Methods(http.MethodGet)
	router.HandleFunc("/mark", server.serveMark).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	if faces != nil {
		router.Handle("/faces/{family}", faces).Methods(http.MethodGet)
	}
	server.router = router
	return server
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the configured address until ctx is cancelled.
func (server *Server) Serve(ctx context.Context) (err error) {
	srv := &http.Server{
		Addr:    server.cfg.Server.Addr(),
		Handler: server.router,
		// Websocket handlers run until their request context ends, so derive it from ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			server.log.Warn("shutdown", "err", shutdownErr)
		}
	}()

	server.log.Info("serving", "addr", srv.Addr, "faces", len(server.catalog))
	if err = srv.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		err = fmt.Errorf("serve: %w", err)
	}
	return
}

// markParam returns the NFC normalized mark query parameter, so that equivalent
// spellings of a glyph share a page.
func markParam(r *http.Request) string {
	return norm.NFC.String(r.URL.Query().Get("mark"))
}

// Serve the home page listing every glyph.
func (server *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := root_view.RenderHome(w, root_view.NewHomeData(server.cfg.Glyphs)); err != nil {
		server.log.Error("render home", "err", err)
	}
}

// Serve a glyph page, or the placeholder when there is no glyph.
func (server *Server) serveMark(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	mark := markParam(r)
	if mark == "" {
		server.log.Debug("no mark specified", "url", r.URL.String())
		w.WriteHeader(http.StatusBadRequest)
		if err := root_view.RenderPlaceholder(w, root_view.NewPlaceholderData()); err != nil {
			server.log.Error("render placeholder", "err", err)
		}
		return
	}

	// The views are only parsed here; they stop with the request.
	rootView, err := root_view.NewRootView(r.Context(), nil, server.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := renderTemplate(w, rootView, root_view.NewPageData(mark)); err != nil {
		server.log.Error("render page", "mark", mark, "err", err)
	}
}

// serveWebsocket runs one grid session for the lifetime of the websocket: client input
// drives the session and the session's output is published back as ele-updates.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	mark := markParam(r)
	if mark == "" {
		http.Error(w, messages.Get(messages.NoMark), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := server.log.With("mark", mark, "remote", r.RemoteAddr)
	feed := tile_views.NewFeed(ctx.Done(), mark)
	session, err := server.newSession(mark, feed, log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rootView, err := root_view.NewRootView(ctx, feed.Changes(), log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cli, err := fastview.NewClient[[]fastview.EleUpdate, glyph_grid.InputEvent](rootView.Updates(), w, r)
	if err != nil {
		log.Warn("websocket upgrade", "err", err)
		return
	}

	log.Debug("session started")
	err = cli.Sync(func(syncCtx context.Context, events <-chan glyph_grid.InputEvent) error {
		// The session blocks on the views; release it as soon as the client stops.
		stop := context.AfterFunc(syncCtx, cancel)
		defer stop()

		for {
			select {
			case <-syncCtx.Done():
				return nil
			case ev := <-events:
				if handleErr := session.Handle(ev); handleErr != nil {
					log.Warn("bad event", "err", handleErr)
				}
			}
		}
	})
	if err != nil {
		log.Warn("session ended", "err", err)
		return
	}
	log.Debug("session ended")
}

func (server *Server) newSession(
	mark string,
	feed *tile_views.Feed,
	log *slog.Logger,
) (*glyph_grid.Session, error) {
	grid := server.cfg.Grid
	builder := glyph_grid.NewSessionBuilder(mark).
		WithGlyphs(server.cfg.Glyphs).
		WithCatalog(server.catalog).
		WithChances(glyph_grid.Chances{
			Current: grid.CurrentGlyphChance,
			Home:    grid.HomeLinkChance,
		}).
		WithGeometry(grid.CellSize, grid.MarginCells, grid.DragThreshold).
		WithMaxViewport(grid.MaxViewport).
		WithDebug(server.cfg.Debug).
		WithView(feed).
		WithFaceLoader(feed).
		WithActivator(feed).
		WithLogger(log)
	if server.cfg.Seed != 0 {
		builder = builder.WithRand(rand.New(rand.NewSource(server.cfg.Seed)))
	}
	return builder.Build()
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
