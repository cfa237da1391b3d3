/*
Punctuation is a wall of punctuation marks that never ends: a glyph page tiles the window with
its mark, each tile in another face from a web fonts catalog, and dragging pans the wall in any
direction for as long as you like. A few tiles are links to the other marks, or home.

The grid lives on the server. The page forwards pointer and resize events over a websocket and
applies the element updates it gets back, so a fixed pool of tiles is re-projected under the
pointer rather than the page ever growing.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"punctuation/catalog"
	"punctuation/config"
	"punctuation/glyph_grid"
	"punctuation/server"
	"punctuation/server/face_proxy"
)

var (
	configPath = flag.String("config", "", "path to a config.yaml; defaults are used when empty")
	dbg        = flag.Bool("debug", false, "debug logging and tile pool checks")
	host       = flag.String("host", "", "The host ip, overrides config")
	port       = flag.String("port", "", "The host port, overrides config")
)

func loadConfig() (cfg *config.Config, err error) {
	if *configPath == "" {
		cfg = config.Default()
	} else if cfg, err = config.FromYaml(*configPath); err != nil {
		return
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	cfg.Debug = cfg.Debug || *dbg
	return
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runApp() (err error) {
	var cfg *config.Config
	if cfg, err = loadConfig(); err != nil {
		return
	}

	log := newLogger(cfg.Debug)
	glyph_grid.SetLogger(log)

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer appCancel()

	timeout, err := cfg.Catalog.FetchTimeout()
	if err != nil {
		return
	}

	// Every session draws from the same catalog, so it is complete before anything is served.
	fetchCtx, fetchCancel := context.WithTimeout(appCtx, timeout)
	faces := catalog.NewProvider(
		cfg.Catalog.URL,
		cfg.Catalog.APIKey,
		cfg.Catalog.Limit,
		timeout,
		log.With("component", "catalog"),
	).Fetch(fetchCtx)
	fetchCancel()

	proxy := face_proxy.NewProxy(
		catalog.NewIndex(faces),
		&http.Client{Timeout: timeout},
		cfg.Catalog.FaceCacheSize,
		log.With("component", "faces"),
	)

	srv := server.NewServer(*cfg, faces, proxy, log)
	err = srv.Serve(appCtx)
	return
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
