// catalog fetches the ordered list of display faces from a webfonts style API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"punctuation/glyph_grid"
)

// ErrStatus is returned when the fonts API answers with a non-2xx status.
var ErrStatus error = errors.New("unexpected status from fonts api")

// item is one family as returned by the fonts API: a name and a file url per variant.
type item struct {
	Family string            `json:"family"`
	Files  map[string]string `json:"files"`
}

type response struct {
	Items []item `json:"items"`
}

// Provider fetches the face catalog.
type Provider struct {
	endpoint string
	apiKey   string
	limit    int
	client   *http.Client
	log      *slog.Logger
}

// NewProvider returns a provider for the given endpoint. Limit caps the catalog size when
// positive; timeout bounds the whole request.
func NewProvider(
	endpoint string,
	apiKey string,
	limit int,
	timeout time.Duration,
	log *slog.Logger,
) *Provider {
	return &Provider{
		endpoint: endpoint,
		apiKey:   apiKey,
		limit:    limit,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Fetch returns the catalog, most popular first. It never fails: any error is logged and
// an empty catalog returned, on which the grid falls back to its default typeface.
func (p *Provider) Fetch(ctx context.Context) []glyph_grid.Face {
	faces, err := p.fetch(ctx)
	if err != nil {
		p.log.Error("fetching face catalog, continuing with fallback faces", "err", err)
		return nil
	}
	p.log.Info("fetched face catalog", "faces", len(faces))
	return faces
}

func (p *Provider) fetch(ctx context.Context) (faces []glyph_grid.Face, err error) {
	var req *http.Request
	if req, err = http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(), nil); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var resp *http.Response
	if resp, err = p.client.Do(req); err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	var body response
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for _, it := range body.Items {
		src := sourceURL(it.Files)
		if it.Family == "" || src == "" {
			continue
		}
		faces = append(faces, glyph_grid.Face{Family: it.Family, SourceURL: src})
		if p.limit > 0 && len(faces) == p.limit {
			break
		}
	}
	return faces, nil
}

func (p *Provider) requestURL() string {
	q := url.Values{}
	if p.apiKey != "" {
		q.Set("key", p.apiKey)
	}
	q.Set("sort", "popularity")
	q.Set("subset", "latin")
	q.Set("fields", "items(family,files)")
	return p.endpoint + "?" + q.Encode()
}

// sourceURL prefers the regular variant, else the first variant by name so the
// choice is stable across fetches.
func sourceURL(files map[string]string) string {
	if src, ok := files["regular"]; ok && src != "" {
		return src
	}
	variants := make([]string, 0, len(files))
	for variant := range files {
		variants = append(variants, variant)
	}
	sort.Strings(variants)
	for _, variant := range variants {
		if files[variant] != "" {
			return files[variant]
		}
	}
	return ""
}

// Index maps face families to faces, for looking up a face by name.
type Index map[string]glyph_grid.Face

// NewIndex indexes the catalog by family.
func NewIndex(faces []glyph_grid.Face) Index {
	index := make(Index, len(faces))
	for _, face := range faces {
		index[face.Family] = face
	}
	return index
}
