package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Source      SourceConfig
	Sink        SinkConfig
	History     HistoryConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path string
}

type SourceConfig struct {
	URL   string
	Token string
	Owner string
	Repo  string
}

type SinkConfig struct {
	URL   string
	Token string
}

type HistoryConfig struct {
	Limit           int
	ChunkSize       int
	MergeWindowDays int
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("mergelog_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("mergelog_port", 8080)
	v.SetDefault("mergelog_db_path", "data/mergelog")
	v.SetDefault("mergelog_source_url", "")
	v.SetDefault("mergelog_source_token", "")
	v.SetDefault("mergelog_source_owner", "integration-app")
	v.SetDefault("mergelog_source_repo", "core")
	v.SetDefault("mergelog_sink_url", "")
	v.SetDefault("mergelog_sink_token", "")
	v.SetDefault("mergelog_history_limit", 50)
	v.SetDefault("mergelog_chunk_size", 1900)
	v.SetDefault("mergelog_merge_window_days", 7)

	env := resolveEnvironment(v)
	port := v.GetInt("mergelog_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid MERGELOG_PORT: %d", port)
	}

	historyLimit := v.GetInt("mergelog_history_limit")
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if historyLimit > 500 {
		historyLimit = 500
	}

	chunkSize := v.GetInt("mergelog_chunk_size")
	if chunkSize <= 0 {
		chunkSize = 1900
	}
	if chunkSize > 2000 {
		chunkSize = 2000
	}

	windowDays := v.GetInt("mergelog_merge_window_days")
	if windowDays <= 0 {
		windowDays = 7
	}
	if windowDays > 90 {
		windowDays = 90
	}

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			Path: strings.TrimSpace(v.GetString("mergelog_db_path")),
		},
		Source: SourceConfig{
			URL:   strings.TrimSpace(v.GetString("mergelog_source_url")),
			Token: strings.TrimSpace(v.GetString("mergelog_source_token")),
			Owner: strings.TrimSpace(v.GetString("mergelog_source_owner")),
			Repo:  strings.TrimSpace(v.GetString("mergelog_source_repo")),
		},
		Sink: SinkConfig{
			URL:   strings.TrimSpace(v.GetString("mergelog_sink_url")),
			Token: strings.TrimSpace(v.GetString("mergelog_sink_token")),
		},
		History: HistoryConfig{
			Limit:           historyLimit,
			ChunkSize:       chunkSize,
			MergeWindowDays: windowDays,
		},
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		cfg.Database.Path = "data/mergelog"
	}
	if !cfg.IsLocalDevelopment() {
		if cfg.Source.URL == "" || cfg.Source.Token == "" {
			return Config{}, fmt.Errorf("MERGELOG_SOURCE_URL and MERGELOG_SOURCE_TOKEN are required outside local/dev environments")
		}
		if cfg.Sink.URL == "" || cfg.Sink.Token == "" {
			return Config{}, fmt.Errorf("MERGELOG_SINK_URL and MERGELOG_SINK_TOKEN are required outside local/dev environments")
		}
	}

	return cfg, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// MergeWindow returns the ingestion merge window as a duration.
func (c Config) MergeWindow() time.Duration {
	return time.Duration(c.History.MergeWindowDays) * 24 * time.Hour
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"mergelog_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
