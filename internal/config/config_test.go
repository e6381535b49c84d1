package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "non positive chunk size",
			mutate: func(cfg *Config) {
				cfg.World.ChunkSize = 0
			},
			wantErr: "world.chunkSize must be positive",
		},
		{
			name: "non positive tile height",
			mutate: func(cfg *Config) {
				cfg.World.TileHeight = -64
			},
			wantErr: "world tile dimensions must be positive",
		},
		{
			name: "missing terrain octaves",
			mutate: func(cfg *Config) {
				cfg.Terrain.Noise.Octaves = 0
			},
			wantErr: "terrain.noise.octaves must be positive",
		},
		{
			name: "negative terrain workers",
			mutate: func(cfg *Config) {
				cfg.Terrain.Workers = -1
			},
			wantErr: "terrain.workers cannot be negative",
		},
		{
			name: "thresholds out of order",
			mutate: func(cfg *Config) {
				cfg.Terrain.SandThreshold = 0.1
			},
			wantErr: "terrain.sandThreshold must be >= waterThreshold",
		},
		{
			name: "density above one",
			mutate: func(cfg *Config) {
				cfg.Vegetation.Density = 1.5
			},
			wantErr: "vegetation.density must be within [0, 1]",
		},
		{
			name: "vegetation frequency",
			mutate: func(cfg *Config) {
				cfg.Vegetation.Noise.Frequency = 0
			},
			wantErr: "vegetation.noise.frequency must be positive",
		},
		{
			name: "missing species name",
			mutate: func(cfg *Config) {
				cfg.Vegetation.Species[0].Name = ""
			},
			wantErr: "vegetation.species[0].name must be set",
		},
		{
			name: "negative radius",
			mutate: func(cfg *Config) {
				cfg.Streaming.Radius = -1
			},
			wantErr: "streaming.radius cannot be negative",
		},
		{
			name: "negative cooldown",
			mutate: func(cfg *Config) {
				cfg.Streaming.CreationCooldown = Duration(-time.Millisecond)
			},
			wantErr: "streaming cooldowns cannot be negative",
		},
		{
			name: "zero tick rate",
			mutate: func(cfg *Config) {
				cfg.Streaming.TickRate = 0
			},
			wantErr: "streaming.tickRate must be positive",
		},
		{
			name: "empty viewport",
			mutate: func(cfg *Config) {
				cfg.Viewport.Width = 0
			},
			wantErr: "viewport dimensions must be positive",
		},
		{
			name: "missing listen address",
			mutate: func(cfg *Config) {
				cfg.Server.ListenAddress = ""
			},
			wantErr: "server.listenAddress must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected an error, got nil")
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("unexpected error: got %q want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if want := Default(); !reflect.DeepEqual(cfg, want) {
		t.Fatalf("default configuration mismatch:\nwant: %#v\n got: %#v", want, cfg)
	}
}

func TestLoadReadsJSONFileAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.World.Seed = 99
	cfg.Streaming.CreationCooldown = Duration(250 * time.Millisecond)

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("loaded configuration mismatch:\nwant: %#v\n got: %#v", cfg, got)
	}
}

func TestLoadReadsPartialYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")

	doc := "world:\n  chunkSize: 32\nstreaming:\n  creationCooldown: 50ms\n  radius: 2\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.World.ChunkSize != 32 {
		t.Fatalf("chunk size = %d, want 32", got.World.ChunkSize)
	}
	if got.Streaming.CreationCooldown.Duration() != 50*time.Millisecond {
		t.Fatalf("cooldown = %v, want 50ms", got.Streaming.CreationCooldown.Duration())
	}
	if got.Streaming.Radius != 2 {
		t.Fatalf("radius = %d, want 2", got.Streaming.Radius)
	}
	if got.World.Seed != Default().World.Seed {
		t.Fatalf("seed should keep its default, got %d", got.World.Seed)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	doc := "world:\n  chunkSzie: 32\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected schema check to fail")
	}
	if !strings.Contains(err.Error(), "schema check") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.World.ChunkSize = 0

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err = Load(path)
	if err == nil {
		t.Fatalf("expected load to fail")
	}
	if !strings.Contains(err.Error(), "validate config: world.chunkSize must be positive") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDurationDecodesStringsAndNumbers(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Duration
	}{
		{name: "string", json: `"150ms"`, want: 150 * time.Millisecond},
		{name: "nanoseconds", json: `1000`, want: time.Microsecond},
		{name: "empty", json: `""`, want: 0},
		{name: "null", json: `null`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			if err := json.Unmarshal([]byte(tt.json), &d); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if d.Duration() != tt.want {
				t.Fatalf("duration = %v, want %v", d.Duration(), tt.want)
			}
		})
	}

	var d Duration
	if err := yaml.Unmarshal([]byte(`2s`), &d); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if d.Duration() != 2*time.Second {
		t.Fatalf("yaml duration = %v, want 2s", d.Duration())
	}
}
