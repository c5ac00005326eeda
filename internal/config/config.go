package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Render     RenderConfig     `mapstructure:"render"`
	Server     ServerConfig     `mapstructure:"server"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AnalysisConfig controls the pipeline and table layout
type AnalysisConfig struct {
	IndexColumn           string `mapstructure:"index_column"`           // Timestamp column of stored sheets (default: Date)
	ValueColumn           string `mapstructure:"value_column"`           // Column holding downloaded quotes (default: Open)
	StrictAutocorrelation bool   `mapstructure:"strict_autocorrelation"` // Fail on zero-variance lags instead of NaN/Inf
	Timezone              string `mapstructure:"timezone"`               // Zone used when printing tables (e.g., "Europe/Moscow", "+03:00")
}

// StorageConfig represents the workbook configuration
type StorageConfig struct {
	Type        string `mapstructure:"type"`        // file (default) or redis
	DataDir     string `mapstructure:"data_dir"`    // Root directory for file workbooks
	Workbook    string `mapstructure:"workbook"`    // Workbook name (directory or hash suffix)
	Compression string `mapstructure:"compression"` // snappy (default) or none

	RedisURL      string `mapstructure:"redis_url"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// DownloaderConfig represents the quote downloader configuration
type DownloaderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Field        string        `mapstructure:"field"` // open (default), high, low, close
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// RenderConfig represents chart rendering configuration
type RenderConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	Width        int    `mapstructure:"width"`
	Height       int    `mapstructure:"height"`
	MaxPoints    int    `mapstructure:"max_points"`   // Per-column point budget, 0 disables downsampling
	Downsampling string `mapstructure:"downsampling"` // auto, lttb, minmax, m4, avg, none
}

// ServerConfig represents the read-only HTTP API configuration
type ServerConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	HTTPPort int      `mapstructure:"http_port"`
	APIKeys  []string `mapstructure:"api_keys"` // Required on /v1 routes when non-empty
}

// QueueConfig represents result publishing configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Subject  string `mapstructure:"subject"`  // Subject tables are published to
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "tsanalyser")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Downloader.Validate(); err != nil {
		return fmt.Errorf("downloader config: %w", err)
	}

	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if c.IndexColumn == "" {
		return fmt.Errorf("index_column is required")
	}
	if c.ValueColumn == "" {
		return fmt.Errorf("value_column is required")
	}
	if c.IndexColumn == c.ValueColumn {
		return fmt.Errorf("index_column and value_column cannot be the same")
	}
	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Type {
	case "file":
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required for redis storage")
		}
	default:
		return fmt.Errorf("storage.type must be 'file' or 'redis'")
	}

	if c.Workbook == "" {
		return fmt.Errorf("workbook is required")
	}

	if c.Compression != "snappy" && c.Compression != "none" {
		return fmt.Errorf("storage.compression must be 'snappy' or 'none'")
	}

	return nil
}

// Validate validates downloader configuration
func (c *DownloaderConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("downloader.timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("downloader.max_retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("downloader.retry_backoff cannot be negative")
	}
	return nil
}

// Validate validates render configuration
func (c *RenderConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Width < 100 || c.Height < 100 {
		return fmt.Errorf("render size must be at least 100x100, got %dx%d", c.Width, c.Height)
	}
	if c.MaxPoints < 0 {
		return fmt.Errorf("render.max_points cannot be negative")
	}

	validModes := map[string]bool{
		"auto": true, "lttb": true, "minmax": true, "m4": true, "avg": true, "none": true,
	}
	if !validModes[c.Downsampling] {
		return fmt.Errorf("render.downsampling must be one of: auto, lttb, minmax, m4, avg, none")
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Type {
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	case "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
