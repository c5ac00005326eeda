package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
)

const sheetExt = ".sheet"

// FileConfig configures the directory workbook.
type FileConfig struct {
	Dir string
}

// FileStore keeps one file per sheet in a workbook directory.
type FileStore struct {
	dir    string
	codec  Codec
	logger *logging.Logger
}

// NewFileStore creates the workbook directory if needed.
func NewFileStore(cfg FileConfig, codec Codec) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file storage: directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create %s: %w", cfg.Dir, err)
	}
	return &FileStore{
		dir:    cfg.Dir,
		codec:  codec,
		logger: logging.Global().With("component", "storage", "backend", BackendFile),
	}, nil
}

func (s *FileStore) path(sheet string) string {
	return filepath.Join(s.dir, sheet+sheetExt)
}

// Load reads a sheet file.
func (s *FileStore) Load(ctx context.Context, sheet, indexColumn string) (*models.Table, error) {
	if err := validateSheetName(sheet); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(s.path(sheet))
	if errors.Is(err, fs.ErrNotExist) {
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

// Save writes the sheet to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, table *models.Table, sheet string) error {
	if err := validateSheetName(sheet); err != nil {
		return err
	}
	if table == nil {
		return fmt.Errorf("save sheet %q: nil table", sheet)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := s.codec.encode(table)
	if err != nil {
		return fmt.Errorf("encode sheet %q: %w", sheet, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+sheet+"-*")
	if err != nil {
		return fmt.Errorf("save sheet %q: %w", sheet, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save sheet %q: %w", sheet, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save sheet %q: %w", sheet, err)
	}
	if err := os.Rename(tmpName, s.path(sheet)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save sheet %q: %w", sheet, err)
	}

	s.logger.Debug("Sheet saved", "sheet", sheet, "rows", table.Len(), "bytes", len(payload))
	return nil
}

// Sheets lists the sheet files in the workbook directory.
func (s *FileStore) Sheets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}

	sheets := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sheetExt) {
			continue
		}
		sheets = append(sheets, strings.TrimSuffix(name, sheetExt))
	}
	sort.Strings(sheets)
	return sheets, nil
}

// Close is a no-op for the directory workbook.
func (s *FileStore) Close() error {
	return nil
}
