package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Exarkun1/pylab4/internal/utils"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tsanalyser")
	}

	setDefaults(v)

	// TSA_STORAGE_TYPE overrides storage.type, and so on.
	v.SetEnvPrefix("TSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("analysis.index_column", d.Analysis.IndexColumn)
	v.SetDefault("analysis.value_column", d.Analysis.ValueColumn)
	v.SetDefault("analysis.strict_autocorrelation", d.Analysis.StrictAutocorrelation)
	v.SetDefault("analysis.timezone", d.Analysis.Timezone)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.workbook", d.Storage.Workbook)
	v.SetDefault("storage.compression", d.Storage.Compression)
	v.SetDefault("storage.redis_url", d.Storage.RedisURL)
	v.SetDefault("storage.redis_db", d.Storage.RedisDB)

	v.SetDefault("downloader.base_url", d.Downloader.BaseURL)
	v.SetDefault("downloader.field", d.Downloader.Field)
	v.SetDefault("downloader.timeout", d.Downloader.Timeout.String())
	v.SetDefault("downloader.max_retries", d.Downloader.MaxRetries)
	v.SetDefault("downloader.retry_backoff", d.Downloader.RetryBackoff.String())

	v.SetDefault("render.output_dir", d.Render.OutputDir)
	v.SetDefault("render.width", d.Render.Width)
	v.SetDefault("render.height", d.Render.Height)
	v.SetDefault("render.max_points", d.Render.MaxPoints)
	v.SetDefault("render.downsampling", d.Render.Downsampling)

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.api_keys", d.Server.APIKeys)

	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			IndexColumn: "Date",
			ValueColumn: "Open",
			Timezone:    "UTC",
		},
		Storage: StorageConfig{
			Type:        "file",
			DataDir:     "./data",
			Workbook:    "Storage",
			Compression: "snappy",
			RedisURL:    "redis://localhost:6379",
		},
		Downloader: DownloaderConfig{
			BaseURL:      "https://query1.finance.yahoo.com",
			Field:        "open",
			Timeout:      20 * time.Second,
			MaxRetries:   utils.DefaultMaxRetries,
			RetryBackoff: utils.DefaultRetryBackoff,
		},
		Render: RenderConfig{
			OutputDir:    "./charts",
			Width:        960,
			Height:       480,
			MaxPoints:    500,
			Downsampling: "lttb",
		},
		Server: ServerConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			HTTPPort: 5555,
		},
		Queue: QueueConfig{
			Enabled:     false,
			Type:        "nats",
			URL:         "nats://localhost:4222",
			Subject:     "tsanalyser.tables",
			RedisStream: "tsanalyser",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			TimeFormat: "RFC3339",
		},
	}
}
