package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vodhunter/config.yaml",
	"/etc/vodhunter/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration in three layers, each overriding the
// last: struct defaults, an optional YAML file, then environment
// variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config
// paths: TWITCH_CLIENT_ID -> twitch.client_id, INGEST_CHUNK_SECONDS ->
// ingest.chunk_seconds, SERVER_PORT -> server.port.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	prefixes := []string{"twitch_", "ingest_", "align_", "server_", "data_"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			section := strings.TrimSuffix(prefix, "_")
			rest := strings.TrimPrefix(key, prefix)
			return section + "." + rest
		}
	}

	return strings.ReplaceAll(key, "_", ".")
}
