package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	Database   DatabaseConfig   `json:"database"`
	LogConfig  logger.LogConfig `json:"log_config"`
	AI         AIConfig         `json:"ai"`
	Ingest     IngestConfig     `json:"ingest"`
	CommitSync CommitSyncConfig `json:"commit_sync"`
	CORSAllow  []string         `json:"cors_allow"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	EmbedModel string      `json:"embed_model"`
	EmbedDims  int         `json:"embed_dims"`
	TimeoutSec int         `json:"timeout_sec"`
	MaxCalls   int         `json:"max_calls"`
	WindowSec  int         `json:"window_sec"`
	CooldownMS int         `json:"cooldown_ms"`
	Data       interface{} `json:"data"`
}

type IngestConfig struct {
	MaxFileSize   int64 `json:"max_file_size"`
	MaxChunkChars int   `json:"max_chunk_chars"`
	MaxRetries    int   `json:"max_retries"`
	HostDelayMS   int   `json:"host_delay_ms"`
}

type CommitSyncConfig struct {
	Spec    string `json:"spec"`
	Enabled bool   `json:"enabled"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-1.5-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.EmbedDims == 0 {
		cfg.AI.EmbedDims = 768
	}
	if cfg.AI.TimeoutSec == 0 {
		cfg.AI.TimeoutSec = 120
	}
	if cfg.AI.MaxCalls == 0 {
		cfg.AI.MaxCalls = 10
	}
	if cfg.AI.WindowSec == 0 {
		cfg.AI.WindowSec = 60
	}
	if cfg.AI.CooldownMS == 0 {
		cfg.AI.CooldownMS = 1000
	}
	if cfg.Ingest.MaxFileSize == 0 {
		cfg.Ingest.MaxFileSize = 100 * 1024
	}
	if cfg.Ingest.MaxChunkChars == 0 {
		cfg.Ingest.MaxChunkChars = 75000
	}
	if cfg.Ingest.MaxRetries == 0 {
		cfg.Ingest.MaxRetries = 3
	}
	if cfg.Ingest.HostDelayMS == 0 {
		cfg.Ingest.HostDelayMS = 1000
	}
	if cfg.CommitSync.Spec == "" {
		cfg.CommitSync.Spec = "0 * * * *"
	}
	return &cfg, nil
}
