package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Kind is the only document kind FromYaml accepts.
const Kind = "punctuation"

// DefaultGlyphs is the stock glyph set.
var DefaultGlyphs = []string{
	".", ",", "!", "?", ";", ":", `"`, "'",
	"()", "[]", "{}",
	"-", "_", "/", "&", "@", "#", "%", "*", "+", "=", "~",
}

// ErrWrongKind is returned when the config document is not of Kind.
var ErrWrongKind error = errors.New("unexpected config kind")

// OuterConfig is the envelope: a kind selector and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Config holds everything outside of code: where to serve, grid geometry and odds,
// the glyph set and where faces come from.
// Keys are lower case because viper lower-cases every key it reads.
type Config struct {
	Server  Server   `yaml:"server"`
	Grid    Grid     `yaml:"grid"`
	Catalog Catalog  `yaml:"catalog"`
	Glyphs  []string `yaml:"glyphs"`

	// Seed fixes content assignment for every session; zero means time-seeded.
	Seed int64 `yaml:"seed"`

	// Debug checks the tile pool partition after every rebuild and drag.
	Debug bool `yaml:"debug"`
}

type Server struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

type Grid struct {
	CellSize           float64 `yaml:"cellsize"`
	MarginCells        int     `yaml:"margincells"`
	DragThreshold      float64 `yaml:"dragthreshold"`
	CurrentGlyphChance float64 `yaml:"currentglyphchance"`
	HomeLinkChance     float64 `yaml:"homelinkchance"`

	// MaxViewport caps each axis of a client's viewport in pixels, bounding the pool.
	MaxViewport float64 `yaml:"maxviewport"`
}

type Catalog struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apikey"`

	// Timeout bounds the catalog fetch, e.g. "5s".
	Timeout string `yaml:"timeout"`

	// Limit caps the number of faces used; zero keeps them all.
	Limit int `yaml:"limit"`

	// FaceCacheSize caps the number of face files the face proxy keeps in memory.
	FaceCacheSize int `yaml:"facecachesize"`
}

// FetchTimeout parses Timeout, defaulting to five seconds.
func (c Catalog) FetchTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("catalog timeout: %w", err)
	}
	return d, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Grid.CellSize <= 0 {
		cfg.Grid.CellSize = 140
	}
	if cfg.Grid.MarginCells <= 0 {
		cfg.Grid.MarginCells = 2
	}
	if cfg.Grid.DragThreshold <= 0 {
		cfg.Grid.DragThreshold = 10
	}
	if cfg.Grid.CurrentGlyphChance <= 0 {
		cfg.Grid.CurrentGlyphChance = 0.98
	}
	if cfg.Grid.HomeLinkChance <= 0 {
		cfg.Grid.HomeLinkChance = 0.10
	}
	if cfg.Grid.MaxViewport <= 0 {
		cfg.Grid.MaxViewport = 8192
	}
	if cfg.Catalog.URL == "" {
		cfg.Catalog.URL = "https://www.googleapis.com/webfonts/v1/webfonts"
	}
	if cfg.Catalog.FaceCacheSize <= 0 {
		cfg.Catalog.FaceCacheSize = 256
	}
	if len(cfg.Glyphs) == 0 {
		cfg.Glyphs = DefaultGlyphs
	}
}

// FromYaml reads a {kind, def} document, unwraps def into a Config and fills in defaults.
// The fonts API key may also come from PUNCTUATION_FONTS_API_KEY.
// Same two-step as ever: viper for reading and env binding, yaml for the typed definition.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.BindEnv("def.catalog.apikey", "PUNCTUATION_FONTS_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%w: %q", ErrWrongKind, outerConfig.Kind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, fmt.Errorf("marshal def: %w", err)
	}

	innerConfig := &Config{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, fmt.Errorf("unmarshal def: %w", err)
	}

	innerConfig.applyDefaults()
	return innerConfig, nil
}
