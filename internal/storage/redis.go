package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
)

// RedisConfig configures the Redis workbook.
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Key      string // Hash key holding the workbook (default: "tsanalyser:workbook")
}

// RedisStore keeps the workbook in a Redis hash with one field per sheet.
type RedisStore struct {
	client *redis.Client
	key    string
	codec  Codec
	logger *logging.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, codec Codec) (*RedisStore, error) {
	client := redis.NewClient(redisOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Key == "" {
		cfg.Key = "tsanalyser:workbook"
	}

	return &RedisStore{
		client: client,
		key:    cfg.Key,
		codec:  codec,
		logger: logging.Global().With("component", "storage", "backend", BackendRedis),
	}, nil
}

// Load reads the sheet field of the workbook hash.
func (s *RedisStore) Load(ctx context.Context, sheet, indexColumn string) (*models.Table, error) {
	if err := validateSheetName(sheet); err != nil {
		return nil, err
	}

	payload, err := s.client.HGet(ctx, s.key, sheet).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	table, err := s.codec.decode(payload, indexColumn)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	s.logger.Debug("Sheet loaded", "sheet", sheet, "rows", table.Len(), "bytes", len(payload))
	return table, nil
}

// Save writes the sheet field of the workbook hash.
func (s *RedisStore) Save(ctx context.Context, table *models.Table, sheet string) error {
	if err := validateSheetName(sheet); err != nil {
		return err
	}
	if table == nil {
		return fmt.Errorf("save sheet %q: nil table", sheet)
	}

	payload, err := s.codec.encode(table)
	if err != nil {
		return fmt.Errorf("encode sheet %q: %w", sheet, err)
	}
	if err := s.client.HSet(ctx, s.key, sheet, payload).Err(); err != nil {
		return fmt.Errorf("save sheet %q: %w", sheet, err)
	}

	s.logger.Debug("Sheet saved", "sheet", sheet, "rows", table.Len(), "bytes", len(payload))
	return nil
}

// Sheets lists the fields of the workbook hash.
func (s *RedisStore) Sheets(ctx context.Context) ([]string, error) {
	sheets, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	sort.Strings(sheets)
	return sheets, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisOptions parses cfg.URL, falling back to a bare address. Password and
// DB from cfg override what the URL carries when set.
func redisOptions(cfg RedisConfig) *redis.Options {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return opts
}
