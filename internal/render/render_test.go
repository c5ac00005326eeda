package render

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/downsampling"
	"github.com/Exarkun1/pylab4/internal/models"
)

func testTable(t *testing.T, n int) *models.Table {
	t.Helper()
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	ts := make([]time.Time, n)
	open := make([]float64, n)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * 24 * time.Hour)
		open[i] = 100 + 10*math.Sin(float64(i)/7)
	}
	s, err := analytics.NewSeries("Open", ts, open)
	require.NoError(t, err)

	a, err := analytics.NewAnalyserWithInterval(s, 24*time.Hour)
	require.NoError(t, err)
	diff, err := a.Differentiate()
	require.NoError(t, err)

	table := models.NewTable()
	require.NoError(t, table.AddSeries("Open", s))
	require.NoError(t, table.AddSeries("Diff", diff))
	return table
}

func newTestRenderer(t *testing.T, maxPoints int) *SVGRenderer {
	t.Helper()
	r, err := NewSVGRenderer(Config{
		OutputDir:    filepath.Join(t.TempDir(), "charts"),
		MaxPoints:    maxPoints,
		Downsampling: downsampling.ModeLTTB,
	})
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestNewSVGRenderer_Defaults(t *testing.T) {
	r, err := NewSVGRenderer(Config{OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 960, r.cfg.Width)
	assert.Equal(t, 480, r.cfg.Height)
	assert.Equal(t, downsampling.ModeAuto, r.cfg.Downsampling)
	assert.Equal(t, time.UTC, r.cfg.Location)

	_, err = NewSVGRenderer(Config{})
	assert.Error(t, err)
}

func TestRender_WritesSVGFile(t *testing.T) {
	r := newTestRenderer(t, 50)

	path, err := r.Render(context.Background(), testTable(t, 200), []string{"Open", "Diff"})
	require.NoError(t, err)

	assert.Equal(t, "chart-20240930-120000.000-Open_Diff.svg", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Open")
	assert.Contains(t, string(data), "Diff")
}

func TestRenderTo_SkipsNonFiniteCells(t *testing.T) {
	r := newTestRenderer(t, 0)

	ts := []time.Time{
		time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 4, 0, 0, 0, 0, time.UTC),
	}
	s, err := analytics.NewSeries("Autocor", ts, []float64{1, math.NaN(), 0.5})
	require.NoError(t, err)
	table := models.NewTable()
	require.NoError(t, table.AddSeries("Autocor", s))

	var buf bytes.Buffer
	require.NoError(t, r.RenderTo(context.Background(), &buf, table, []string{"Autocor"}))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestRender_Errors(t *testing.T) {
	r := newTestRenderer(t, 50)
	ctx := context.Background()
	table := testTable(t, 10)

	_, err := r.Render(ctx, table, nil)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = r.Render(ctx, table, []string{"Open", "Close"})
	assert.ErrorIs(t, err, models.ErrColumnNotFound)

	_, err = r.Render(ctx, nil, []string{"Open"})
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Render(canceled, table, []string{"Open"})
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(r.cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed renders leave no files")
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "Open_Movavg", fileSafe([]string{"Open", "Movavg"}))
	assert.Equal(t, "etc_passwd", fileSafe([]string{"../etc", "passwd"}))
	assert.Equal(t, "columns", fileSafe([]string{"%%%"}))
	assert.Len(t, fileSafe([]string{strings.Repeat("a", 100)}), 60)
}

func TestTickFormat(t *testing.T) {
	r := newTestRenderer(t, 0)
	assert.Equal(t, "2006-01-02", r.tickFormat(testTable(t, 30)))
	assert.Equal(t, "01-02 15:04", r.tickFormat(testTable(t, 2)))
}
