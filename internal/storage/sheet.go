package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Exarkun1/pylab4/internal/models"
)

// timeLayouts are tried in order when parsing the index column.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EncodeSheet writes table as CSV with indexColumn as the first header.
// Missing cells are written as empty fields.
func EncodeSheet(table *models.Table, indexColumn string) ([]byte, error) {
	columns := table.Columns()
	for _, c := range columns {
		if c == indexColumn {
			return nil, fmt.Errorf("column %q collides with the index column", c)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{indexColumn}, columns...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(header))
	for _, row := range table.Rows() {
		record[0] = row.Time.Format(time.RFC3339Nano)
		for i, c := range columns {
			if v, ok := row.Values[c]; ok {
				record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
			} else {
				record[i+1] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSheet parses CSV produced by EncodeSheet, or any sheet whose header
// contains indexColumn. Every other column must hold numbers or empty cells.
func DecodeSheet(data []byte, indexColumn string) (*models.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: sheet has no header", ErrMalformedSheet)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
	}

	indexIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == indexColumn {
			indexIdx = i
		}
	}
	if indexIdx == -1 {
		return nil, fmt.Errorf("%w: index column %q not in header %v", ErrMalformedSheet, indexColumn, header)
	}

	table := models.NewTable()
	for i, h := range header {
		if i != indexIdx {
			table.AddColumn(h)
		}
	}

	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSheet, line, err)
		}

		ts, err := parseTime(record[indexIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSheet, line, err)
		}

		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if i == indexIdx || cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformedSheet, line, header[i], err)
			}
			table.Set(ts, header[i], v)
		}
	}

	return table, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
