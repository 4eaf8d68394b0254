package config

import (
	"fmt"
	"time"
)

// Config is the root configuration struct, assembled by LoadWithKoanf
// from struct defaults, an optional YAML file, and environment variables.
type Config struct {
	Twitch TwitchConfig `koanf:"twitch"`
	Ingest IngestConfig `koanf:"ingest"`
	Align  AlignConfig  `koanf:"align"`
	Server ServerConfig `koanf:"server"`
	Data   DataConfig   `koanf:"data"`
}

// TwitchConfig holds Helix API OAuth2 client-credentials.
type TwitchConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// IngestConfig tunes the archive-follower and monitor supervisor.
type IngestConfig struct {
	ChunkSeconds        int           `koanf:"chunk_seconds"`
	LagSeconds          int           `koanf:"lag_seconds"`
	PollSeconds         int           `koanf:"poll_seconds"`
	FinalizeChecks      int           `koanf:"finalize_checks"`
	MonitorPollInterval time.Duration `koanf:"monitor_poll_seconds"`
	MonitorRetryBackoff time.Duration `koanf:"monitor_retry_seconds"`
	MediaURLCacheTTL    time.Duration `koanf:"media_url_cache_seconds"`
}

// AlignConfig tunes the alignment engine's voting thresholds.
type AlignConfig struct {
	MinVoteCount int     `koanf:"min_vote_count"`
	MinVoteRatio float64 `koanf:"min_vote_ratio"`
	TopK         int     `koanf:"top_k"`
}

// ServerConfig holds the HTTP API's bind settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// DataConfig lays out the on-disk directory tree.
type DataConfig struct {
	Dir            string `koanf:"dir"`
	MetadataDBPath string `koanf:"metadata_db_path"`
	VectorFilePath string `koanf:"vector_file_path"`
	IDFilePath     string `koanf:"id_file_path"`
	TempLiveDir    string `koanf:"temp_live_dir"`
	TempSearchDir  string `koanf:"temp_search_dir"`
	TempUploadDir  string `koanf:"temp_upload_dir"`
}

// defaultConfig returns a Config with all sensible default values. These
// are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	dataDir := "/data/vodhunter"
	return &Config{
		Twitch: TwitchConfig{},
		Ingest: IngestConfig{
			ChunkSeconds:        60,
			LagSeconds:          120,
			PollSeconds:         30,
			FinalizeChecks:      3,
			MonitorPollInterval: 30 * time.Second,
			MonitorRetryBackoff: 5 * time.Second,
			MediaURLCacheTTL:    60 * time.Second,
		},
		Align: AlignConfig{
			MinVoteCount: 3,
			MinVoteRatio: 0.08,
			TopK:         20,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Data: DataConfig{
			Dir:            dataDir,
			MetadataDBPath: dataDir + "/metadata.duckdb",
			VectorFilePath: dataDir + "/vectors.f32",
			IDFilePath:     dataDir + "/ids.i64",
			TempLiveDir:    dataDir + "/temp_live_chunks",
			TempSearchDir:  dataDir + "/temp_search",
			TempUploadDir:  dataDir + "/temp_uploads",
		},
	}
}

// Validate checks the loaded configuration for missing required fields
// and out-of-range values.
func (c *Config) Validate() error {
	if c.Twitch.ClientID == "" || c.Twitch.ClientSecret == "" {
		return fmt.Errorf("twitch.client_id and twitch.client_secret are required")
	}
	if c.Ingest.ChunkSeconds <= 0 {
		return fmt.Errorf("ingest.chunk_seconds must be positive, got %d", c.Ingest.ChunkSeconds)
	}
	if c.Ingest.LagSeconds < 0 {
		return fmt.Errorf("ingest.lag_seconds must be non-negative, got %d", c.Ingest.LagSeconds)
	}
	if c.Ingest.PollSeconds <= 0 {
		return fmt.Errorf("ingest.poll_seconds must be positive, got %d", c.Ingest.PollSeconds)
	}
	if c.Ingest.FinalizeChecks <= 0 {
		return fmt.Errorf("ingest.finalize_checks must be positive, got %d", c.Ingest.FinalizeChecks)
	}
	if c.Align.MinVoteCount <= 0 {
		return fmt.Errorf("align.min_vote_count must be positive, got %d", c.Align.MinVoteCount)
	}
	if c.Align.MinVoteRatio < 0 || c.Align.MinVoteRatio > 1 {
		return fmt.Errorf("align.min_vote_ratio must be in [0,1], got %f", c.Align.MinVoteRatio)
	}
	if c.Align.TopK <= 0 {
		return fmt.Errorf("align.top_k must be positive, got %d", c.Align.TopK)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	return nil
}
