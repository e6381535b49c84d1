package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"isoworld/internal/config"
)

const (
	envConfigJSON    = "ISOWORLD_CONFIG_JSON"
	envConfigYAMLB64 = "ISOWORLD_CONFIG_YAML_B64"
)

// writeConfigFromEnv materialises a configuration passed through the
// environment at cfgPath so the regular Load path picks it up. Payloads are
// applied on top of the defaults.
func writeConfigFromEnv(cfgPath string) (bool, error) {
	jsonPayload := os.Getenv(envConfigJSON)
	yamlPayload := os.Getenv(envConfigYAMLB64)

	if jsonPayload == "" && yamlPayload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("configuration provided through the environment but no --config path supplied")
	}

	cfg := config.Default()
	if jsonPayload != "" {
		if err := config.ValidateDocument([]byte(jsonPayload), config.FormatJSON); err != nil {
			return false, fmt.Errorf("schema check env config json: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonPayload), cfg); err != nil {
			return false, fmt.Errorf("decode env config json: %w", err)
		}
	} else {
		data, err := base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return false, fmt.Errorf("decode env config yaml: %w", err)
		}
		if err := config.ValidateDocument(data, config.FormatYAML); err != nil {
			return false, fmt.Errorf("schema check env config yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parse env config yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate env config: %w", err)
	}

	dir := filepath.Dir(cfgPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create config directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if config.FormatFromPath(cfgPath) == config.FormatYAML {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
