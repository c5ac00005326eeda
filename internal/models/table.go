package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Exarkun1/pylab4/internal/analytics"
)

// ErrColumnNotFound is returned when a table has no column with the requested name.
var ErrColumnNotFound = errors.New("column not found")

// Table is a timestamp-indexed set of named columns. Each column is sparse:
// a row only has a cell in the columns that produced a value at its timestamp.
// Rows are kept in ascending time order and columns in insertion order.
type Table struct {
	index   []time.Time
	rows    map[int64]int
	columns []string
	cells   map[string]map[int64]float64
}

// Row is one timestamp of a table with the cells present at it.
type Row struct {
	Time   time.Time
	Values map[string]float64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		rows:  make(map[int64]int),
		cells: make(map[string]map[int64]float64),
	}
}

// AddSeries stores s under column, adding any new timestamps to the index.
// An existing column of the same name is replaced in place.
func (t *Table) AddSeries(column string, s *analytics.Series) error {
	if column == "" {
		return fmt.Errorf("add series: empty column name")
	}
	if s == nil {
		return fmt.Errorf("add series %q: nil series", column)
	}

	cells := make(map[int64]float64, s.Len())
	for _, p := range s.Points() {
		t.addTime(p.Time)
		cells[p.Time.UnixNano()] = p.Value
	}
	t.putColumn(column, cells)
	t.sortIndex()
	return nil
}

// Set writes a single cell, creating the row and column if needed.
func (t *Table) Set(ts time.Time, column string, value float64) {
	if _, ok := t.cells[column]; !ok {
		t.putColumn(column, make(map[int64]float64))
	}
	t.insertTime(ts)
	t.cells[column][ts.UnixNano()] = value
}

// AddColumn registers an empty column so it keeps its position even if no
// cell is ever written to it.
func (t *Table) AddColumn(column string) {
	if _, ok := t.cells[column]; !ok {
		t.putColumn(column, make(map[int64]float64))
	}
}

// Value returns the cell at ts in column and whether it is present.
func (t *Table) Value(ts time.Time, column string) (float64, bool) {
	cells, ok := t.cells[column]
	if !ok {
		return 0, false
	}
	v, ok := cells[ts.UnixNano()]
	return v, ok
}

// HasColumn reports whether the table has a column named column.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.cells[column]
	return ok
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Index returns the row timestamps in ascending order.
func (t *Table) Index() []time.Time {
	out := make([]time.Time, len(t.index))
	copy(out, t.index)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.index)
}

// Rows returns every row with its present cells.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.index))
	for i, ts := range t.index {
		key := ts.UnixNano()
		values := make(map[string]float64, len(t.columns))
		for _, c := range t.columns {
			if v, ok := t.cells[c][key]; ok {
				values[c] = v
			}
		}
		rows[i] = Row{Time: ts, Values: values}
	}
	return rows
}

// Column returns the present cells of column as a series named after it.
func (t *Table) Column(column string) (*analytics.Series, error) {
	cells, ok := t.cells[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	ts := make([]time.Time, 0, len(cells))
	vals := make([]float64, 0, len(cells))
	for _, stamp := range t.index {
		if v, ok := cells[stamp.UnixNano()]; ok {
			ts = append(ts, stamp)
			vals = append(vals, v)
		}
	}
	return analytics.NewSeries(column, ts, vals)
}

// addTime appends ts unsorted; callers sort once when done.
func (t *Table) addTime(ts time.Time) {
	key := ts.UnixNano()
	if _, ok := t.rows[key]; ok {
		return
	}
	t.rows[key] = len(t.index)
	t.index = append(t.index, ts)
}

// insertTime places ts in the sorted index. Timestamps arriving in order are
// appended without touching existing rows.
func (t *Table) insertTime(ts time.Time) {
	key := ts.UnixNano()
	if _, ok := t.rows[key]; ok {
		return
	}
	n := len(t.index)
	if n == 0 || t.index[n-1].Before(ts) {
		t.rows[key] = n
		t.index = append(t.index, ts)
		return
	}

	pos := sort.Search(n, func(i int) bool { return t.index[i].After(ts) })
	t.index = append(t.index, time.Time{})
	copy(t.index[pos+1:], t.index[pos:])
	t.index[pos] = ts
	for i := pos; i <= n; i++ {
		t.rows[t.index[i].UnixNano()] = i
	}
}

func (t *Table) sortIndex() {
	sort.Slice(t.index, func(i, j int) bool { return t.index[i].Before(t.index[j]) })
	for i, ts := range t.index {
		t.rows[ts.UnixNano()] = i
	}
}

func (t *Table) putColumn(column string, cells map[int64]float64) {
	if _, ok := t.cells[column]; !ok {
		t.columns = append(t.columns, column)
	}
	t.cells[column] = cells
}

// MarshalJSON encodes the table as its column list and rows. Non-finite
// cells are encoded as null since JSON has no NaN or Inf.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewTableResponse(t))
}

// TableResponse is the wire form of a table.
type TableResponse struct {
	Columns []string      `json:"columns"`
	Rows    []RowResponse `json:"rows"`
	Count   int           `json:"count"`
}

// RowResponse is the wire form of a row.
type RowResponse struct {
	Time   string              `json:"time"`
	Values map[string]*float64 `json:"values"`
}

// NewTableResponse converts a table into its wire form.
func NewTableResponse(t *Table) TableResponse {
	rows := t.Rows()
	out := TableResponse{
		Columns: t.Columns(),
		Rows:    make([]RowResponse, len(rows)),
		Count:   len(rows),
	}
	for i, r := range rows {
		values := make(map[string]*float64, len(r.Values))
		for c, v := range r.Values {
			values[c] = finite(v)
		}
		out.Rows[i] = RowResponse{Time: r.Time.Format(time.RFC3339), Values: values}
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
