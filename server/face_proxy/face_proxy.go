// face_proxy serves catalog faces same-origin: it fetches a face file from its catalog
// source once, checks that it parses as a font, and keeps it in a bounded cache.
package face_proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"punctuation/catalog"

	"github.com/go-text/typesetting/font"
	"github.com/gorilla/mux"
)

var (
	// ErrUnknownFace is returned for families not in the catalog.
	ErrUnknownFace error = errors.New("face not in catalog")
	// ErrBadFace is returned when the fetched file does not parse as a font.
	ErrBadFace error = errors.New("face file is not a font")
	// ErrFaceTooLarge is returned for face files over the size limit.
	ErrFaceTooLarge error = errors.New("face file too large")
)

const (
	// maxFaceSize bounds a single face file.
	maxFaceSize = 16 << 20
	// fetchTimeout bounds a face fetch when no client is given.
	fetchTimeout = 10 * time.Second
)

// entry is a validated face file.
type entry struct {
	data []byte
	font *font.Font
}

// Proxy is an http.Handler for /faces/{family}.
type Proxy struct {
	faces   catalog.Index
	client  *http.Client
	maxSize int64
	log     *slog.Logger

	mu    sync.RWMutex
	cache map[string]*entry
	order []string // insertion order, for eviction
	size  int
}

// NewProxy returns a proxy for the given catalog keeping at most size faces in memory.
// A nil client means one with a ten second timeout.
func NewProxy(
	faces catalog.Index,
	client *http.Client,
	size int,
	log *slog.Logger,
) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if size <= 0 {
		size = 1
	}
	return &Proxy{
		faces:   faces,
		client:  client,
		maxSize: maxFaceSize,
		log:     log,
		cache:   map[string]*entry{},
		size:    size,
	}
}

// ServeHTTP writes the face file. A `mark` query parameter is checked against the face's
// character map and reported in the X-Covers-Mark header; the page keeps its fallback
// face when it is false.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	family := mux.Vars(r)["family"]
	e, err := p.load(r.Context(), family)
	switch {
	case errors.Is(err, ErrUnknownFace):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		p.log.Warn("face load failed", "family", family, "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if mark := r.URL.Query().Get("mark"); mark != "" {
		w.Header().Set("X-Covers-Mark", strconv.FormatBool(Covers(e.font, mark)))
	}
	w.Header().Set("Content-Type", "font/ttf")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(e.data)
}

// Cached reports whether the family is in the cache.
func (p *Proxy) Cached(family string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.cache[family]
	return ok
}

func (p *Proxy) load(ctx context.Context, family string) (*entry, error) {
	p.mu.RLock()
	if e, ok := p.cache[family]; ok {
		p.mu.RUnlock()
		return e, nil
	}
	p.mu.RUnlock()

	face, ok := p.faces[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFace, family)
	}

	// Fetch outside the lock; concurrent misses for the same family may both fetch.
	e, err := p.fetch(ctx, face.SourceURL)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.cache[family]; ok {
		return cached, nil
	}
	if len(p.order) >= p.size {
		delete(p.cache, p.order[0])
		p.order = p.order[1:]
	}
	p.cache[family] = e
	p.order = append(p.order, family)
	return e, nil
}

func (p *Proxy) fetch(ctx context.Context, src string) (*entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build face request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get face: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get face: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read face: %w", err)
	}
	if int64(len(data)) > p.maxSize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrFaceTooLarge, p.maxSize)
	}

	// Keep the Font, which is read-only and safe to share, not the Face.
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFace, err)
	}
	return &entry{data: data, font: face.Font}, nil
}

// Covers reports whether the font maps every rune of glyph to a glyph of its own.
func Covers(f *font.Font, glyph string) bool {
	for _, r := range glyph {
		if _, ok := f.NominalGlyph(r); !ok {
			return false
		}
	}
	return true
}
