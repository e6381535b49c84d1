package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a JSON and YAML friendly wrapper around time.Duration that
// accepts human readable strings such as "100ms" in configuration files while
// still allowing numeric representations when necessary.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML documents.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar, got kind %d", node.Kind)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	if node.Tag == "!!null" {
		*d = 0
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures every tunable of the world engine and its host process.
type Config struct {
	World      WorldConfig      `json:"world" yaml:"world"`
	Terrain    TerrainConfig    `json:"terrain" yaml:"terrain"`
	Vegetation VegetationConfig `json:"vegetation" yaml:"vegetation"`
	Streaming  StreamingConfig  `json:"streaming" yaml:"streaming"`
	Viewport   ViewportConfig   `json:"viewport" yaml:"viewport"`
	Actor      ActorConfig      `json:"actor" yaml:"actor"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

type WorldConfig struct {
	Seed       int64 `json:"seed" yaml:"seed"`
	ChunkSize  int   `json:"chunkSize" yaml:"chunkSize"`   // tiles per chunk side
	TileWidth  int   `json:"tileWidth" yaml:"tileWidth"`   // pixels
	TileHeight int   `json:"tileHeight" yaml:"tileHeight"` // pixels
}

// NoiseConfig parameterises a domain warped fractal noise field.
type NoiseConfig struct {
	Frequency     float64 `json:"frequency" yaml:"frequency"`
	Octaves       int     `json:"octaves" yaml:"octaves"`
	Persistence   float64 `json:"persistence" yaml:"persistence"`
	Lacunarity    float64 `json:"lacunarity" yaml:"lacunarity"`
	WarpFrequency float64 `json:"warpFrequency" yaml:"warpFrequency"`
	WarpScale     float64 `json:"warpScale" yaml:"warpScale"`
	WarpOffset    float64 `json:"warpOffset" yaml:"warpOffset"`
}

type TerrainConfig struct {
	Noise          NoiseConfig `json:"noise" yaml:"noise"`
	WaterThreshold float64     `json:"waterThreshold" yaml:"waterThreshold"` // samples below are water
	SandThreshold  float64     `json:"sandThreshold" yaml:"sandThreshold"`   // samples below are sand
	Workers        int         `json:"workers" yaml:"workers"`               // 0 picks GOMAXPROCS
}

type VegetationConfig struct {
	Density float64         `json:"density" yaml:"density"`
	Noise   NoiseConfig     `json:"noise" yaml:"noise"`
	Species []SpeciesConfig `json:"species" yaml:"species"`
}

// SpeciesConfig selects a vegetation species once the vegetation noise
// reaches Threshold. Later entries win over earlier ones.
type SpeciesConfig struct {
	Name      string  `json:"name" yaml:"name"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
}

type StreamingConfig struct {
	Radius           int      `json:"radius" yaml:"radius"`                     // 0 derives the radius from the viewport
	Padding          int      `json:"padding" yaml:"padding"`                   // extra chunks around the derived radius
	MaxStoredChunks  int      `json:"maxStoredChunks" yaml:"maxStoredChunks"`   // 0 derives radius²×16
	CreationCooldown Duration `json:"creationCooldown" yaml:"creationCooldown"` // e.g. "100ms"
	ResetDebounce    Duration `json:"resetDebounce" yaml:"resetDebounce"`       // e.g. "200ms"
	TickRate         Duration `json:"tickRate" yaml:"tickRate"`
	TraceDir         string   `json:"traceDir" yaml:"traceDir"` // empty disables tick traces
}

type ViewportConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type ActorConfig struct {
	Width         int      `json:"width" yaml:"width"`
	Height        int      `json:"height" yaml:"height"`
	Speed         float64  `json:"speed" yaml:"speed"` // pixels per frame at 60 fps
	FrameCount    int      `json:"frameCount" yaml:"frameCount"`
	FrameDuration Duration `json:"frameDuration" yaml:"frameDuration"`
}

type ServerConfig struct {
	ListenAddress    string   `json:"listenAddress" yaml:"listenAddress"`
	ShutdownTimeout  Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	WriteTimeout     Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PreviewMaxRadius int      `json:"previewMaxRadius" yaml:"previewMaxRadius"`
}

// Load reads configuration from a YAML or JSON file. An empty path returns
// defaults. Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	format := FormatFromPath(path)
	if err := ValidateDocument(data, format); err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}
	if err := Decode(data, format, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Format names a configuration encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yml/.yaml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode unmarshals data into cfg using the given format.
func Decode(data []byte, format Format, cfg *Config) error {
	if format == FormatYAML {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:       47208,
			ChunkSize:  16,
			TileWidth:  128,
			TileHeight: 64,
		},
		Terrain: TerrainConfig{
			Noise: NoiseConfig{
				Frequency:     0.025,
				Octaves:       6,
				Persistence:   0.5,
				Lacunarity:    2,
				WarpFrequency: 0.005,
				WarpScale:     80,
				WarpOffset:    1000,
			},
			WaterThreshold: 0.15,
			SandThreshold:  0.22,
		},
		Vegetation: VegetationConfig{
			Density: 0.1,
			Noise: NoiseConfig{
				Frequency:     0.05,
				Octaves:       6,
				Persistence:   0.6,
				Lacunarity:    2.6,
				WarpFrequency: 0.0005,
				WarpScale:     80,
				WarpOffset:    1000,
			},
			Species: []SpeciesConfig{
				{Name: "oak-tree", Threshold: 0.05, Width: 128, Height: 160},
			},
		},
		Streaming: StreamingConfig{
			Radius:           1,
			Padding:          0,
			MaxStoredChunks:  0,
			CreationCooldown: Duration(100 * time.Millisecond),
			ResetDebounce:    Duration(200 * time.Millisecond),
			TickRate:         Duration(16 * time.Millisecond),
		},
		Viewport: ViewportConfig{
			Width:  1280,
			Height: 720,
		},
		Actor: ActorConfig{
			Width:         32,
			Height:        64,
			Speed:         3,
			FrameCount:    3,
			FrameDuration: Duration(100 * time.Millisecond),
		},
		Server: ServerConfig{
			ListenAddress:    ":8080",
			ShutdownTimeout:  Duration(5 * time.Second),
			WriteTimeout:     Duration(5 * time.Second),
			PreviewMaxRadius: 4,
		},
	}
}

func (c *Config) Validate() error {
	if c.World.ChunkSize <= 0 {
		return errors.New("world.chunkSize must be positive")
	}
	if c.World.TileWidth <= 0 || c.World.TileHeight <= 0 {
		return errors.New("world tile dimensions must be positive")
	}
	if err := validateNoise("terrain.noise", c.Terrain.Noise); err != nil {
		return err
	}
	if c.Terrain.Workers < 0 {
		return errors.New("terrain.workers cannot be negative")
	}
	if c.Terrain.SandThreshold < c.Terrain.WaterThreshold {
		return errors.New("terrain.sandThreshold must be >= waterThreshold")
	}
	if c.Vegetation.Density < 0 || c.Vegetation.Density > 1 {
		return errors.New("vegetation.density must be within [0, 1]")
	}
	if err := validateNoise("vegetation.noise", c.Vegetation.Noise); err != nil {
		return err
	}
	for i, species := range c.Vegetation.Species {
		if species.Name == "" {
			return fmt.Errorf("vegetation.species[%d].name must be set", i)
		}
		if species.Width <= 0 || species.Height <= 0 {
			return fmt.Errorf("vegetation.species[%d] dimensions must be positive", i)
		}
	}
	if c.Streaming.Radius < 0 {
		return errors.New("streaming.radius cannot be negative")
	}
	if c.Streaming.Padding < 0 {
		return errors.New("streaming.padding cannot be negative")
	}
	if c.Streaming.MaxStoredChunks < 0 {
		return errors.New("streaming.maxStoredChunks cannot be negative")
	}
	if c.Streaming.CreationCooldown < 0 || c.Streaming.ResetDebounce < 0 {
		return errors.New("streaming cooldowns cannot be negative")
	}
	if c.Streaming.TickRate <= 0 {
		return errors.New("streaming.tickRate must be positive")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return errors.New("viewport dimensions must be positive")
	}
	if c.Actor.Width <= 0 || c.Actor.Height <= 0 {
		return errors.New("actor dimensions must be positive")
	}
	if c.Actor.Speed < 0 {
		return errors.New("actor.speed cannot be negative")
	}
	if c.Actor.FrameCount <= 0 {
		return errors.New("actor.frameCount must be positive")
	}
	if c.Server.ListenAddress == "" {
		return errors.New("server.listenAddress must be set")
	}
	return nil
}

func validateNoise(section string, n NoiseConfig) error {
	if n.Octaves <= 0 {
		return fmt.Errorf("%s.octaves must be positive", section)
	}
	if n.Frequency <= 0 {
		return fmt.Errorf("%s.frequency must be positive", section)
	}
	return nil
}
