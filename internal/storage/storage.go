// Package storage persists result tables as named sheets of a workbook.
// A sheet is a CSV document sealed with a compression tag; the workbook
// lives either in a directory or in a Redis hash.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/compression"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/utils"
)

var (
	// ErrSheetNotFound is returned when loading a sheet the workbook does not have.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrMalformedSheet is returned when a stored sheet cannot be parsed.
	ErrMalformedSheet = errors.New("malformed sheet")

	// ErrInvalidSheetName is returned for empty names or names with path separators.
	ErrInvalidSheetName = errors.New("invalid sheet name")
)

// Store reads and writes sheets of a workbook.
type Store interface {
	// Load reads sheet and indexes its rows by indexColumn.
	Load(ctx context.Context, sheet, indexColumn string) (*models.Table, error)

	// Save writes table to sheet, replacing any previous content.
	Save(ctx context.Context, table *models.Table, sheet string) error

	// Sheets lists the sheet names in the workbook, sorted.
	Sheets(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Config.Type.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures a Store backend.
type Config struct {
	Type        string
	Compression string
	IndexColumn string // header written for the index on save

	File  FileConfig
	Redis RedisConfig
}

// New creates a Store for cfg.Type.
func New(cfg Config) (Store, error) {
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return nil, err
	}
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	codec := NewCodec(compressor, cfg.IndexColumn)

	switch strings.ToLower(cfg.Type) {
	case "", BackendFile:
		return NewFileStore(cfg.File, codec)
	case BackendRedis:
		return NewRedisStore(cfg.Redis, codec)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// ToSeries extracts column from a loaded table as a series. Rows without a
// cell in column are skipped.
func ToSeries(table *models.Table, column string) (*analytics.Series, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", analytics.ErrInvalidInput)
	}
	return table.Column(column)
}

// Codec turns tables into sealed sheet payloads and back.
type Codec struct {
	compressor  compression.Compressor
	indexColumn string
}

// NewCodec creates a codec that seals sheets with compressor and writes the
// index under indexColumn ("Date" when empty).
func NewCodec(compressor compression.Compressor, indexColumn string) Codec {
	if compressor == nil {
		compressor = compression.NewSnappyCompressor()
	}
	if indexColumn == "" {
		indexColumn = utils.DefaultIndexColumn
	}
	return Codec{compressor: compressor, indexColumn: indexColumn}
}

func (c Codec) encode(table *models.Table) ([]byte, error) {
	raw, err := EncodeSheet(table, c.indexColumn)
	if err != nil {
		return nil, err
	}
	return compression.Seal(c.compressor, raw)
}

func (c Codec) decode(payload []byte, indexColumn string) (*models.Table, error) {
	raw, err := compression.Open(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}
	return DecodeSheet(raw, indexColumn)
}

func validateSheetName(sheet string) error {
	if sheet == "" || strings.ContainsAny(sheet, `/\`) || sheet == "." || sheet == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSheetName, sheet)
	}
	return nil
}
