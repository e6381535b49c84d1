package main

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"isoworld/internal/config"
)

func TestWriteConfigFromEnvJSON(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"world":{"seed":99}}`)

	path := filepath.Join(t.TempDir(), "conf", "world.json")
	wrote, err := writeConfigFromEnv(path)
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if !wrote {
		t.Fatalf("expected config to be written")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.World.Seed != 99 {
		t.Fatalf("seed = %d, want 99", cfg.World.Seed)
	}
	if cfg.World.ChunkSize != config.Default().World.ChunkSize {
		t.Fatalf("partial payload should keep default chunk size, got %d", cfg.World.ChunkSize)
	}
}

func TestWriteConfigFromEnvYAML(t *testing.T) {
	cfg := config.Default()
	cfg.Streaming.Radius = 3
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, base64.StdEncoding.EncodeToString(data))

	path := filepath.Join(t.TempDir(), "world.yaml")
	wrote, err := writeConfigFromEnv(path)
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if !wrote {
		t.Fatalf("expected config to be written")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var decoded config.Config
	if err := yaml.Unmarshal(contents, &decoded); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if decoded.Streaming.Radius != 3 {
		t.Fatalf("radius = %d, want 3", decoded.Streaming.Radius)
	}
}

func TestWriteConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")

	t.Setenv(envConfigJSON, `{"world":{"chunkSize":0}}`)
	if _, err := writeConfigFromEnv(filepath.Join(t.TempDir(), "c.json")); err == nil || !strings.Contains(err.Error(), "validate env config") {
		t.Fatalf("expected validation error, got %v", err)
	}

	t.Setenv(envConfigJSON, `{"bogus":true}`)
	if _, err := writeConfigFromEnv(filepath.Join(t.TempDir(), "c.json")); err == nil || !strings.Contains(err.Error(), "schema check") {
		t.Fatalf("expected schema error, got %v", err)
	}

	t.Setenv(envConfigJSON, `{"world":{}}`)
	if _, err := writeConfigFromEnv(""); err == nil {
		t.Fatalf("expected error without a config path")
	}
}

func TestWriteConfigFromEnvNoPayload(t *testing.T) {
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, "")

	wrote, err := writeConfigFromEnv(filepath.Join(t.TempDir(), "unused.json"))
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if wrote {
		t.Fatalf("expected no config to be written")
	}
}

func TestWrittenJSONIsIndented(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{}`)
	path := filepath.Join(t.TempDir(), "world.json")
	if _, err := writeConfigFromEnv(path); err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(contents, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["streaming"]; !ok {
		t.Fatalf("written config lacks the streaming section")
	}
}
