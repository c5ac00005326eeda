package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/queue"
	"github.com/Exarkun1/pylab4/internal/render"
	"github.com/Exarkun1/pylab4/internal/storage"
	"github.com/Exarkun1/pylab4/internal/utils"
)

var day0 = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

type fakeDownloader struct {
	mu       sync.Mutex
	series   *analytics.Series
	err      error
	symbol   string
	lookback time.Duration
	interval string
}

func (f *fakeDownloader) Download(_ context.Context, symbol string, lookback time.Duration, interval string) (*analytics.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbol, f.lookback, f.interval = symbol, lookback, interval
	return f.series, f.err
}

func dailySeries(t *testing.T, values ...float64) *analytics.Series {
	t.Helper()
	ts := make([]time.Time, len(values))
	for i := range values {
		ts[i] = day0.Add(time.Duration(i) * utils.Day)
	}
	s, err := analytics.NewSeries("Open", ts, values)
	require.NoError(t, err)
	return s
}

type fixture struct {
	svc   *AnalysisService
	store storage.Store
	dl    *fakeDownloader
	q     *queue.MemoryQueue
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.New(storage.Config{Type: storage.BackendFile, File: storage.FileConfig{Dir: dir}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	renderer, err := render.NewSVGRenderer(render.Config{OutputDir: dir, MaxPoints: 100})
	require.NoError(t, err)

	dl := &fakeDownloader{series: dailySeries(t, 1, 2, 3, 4, 5, 6, 7, 8, 9)}
	q := queue.NewMemoryQueue()
	t.Cleanup(func() { _ = q.Close() })

	svc := NewAnalysisService(logging.NewNop(), store, dl, renderer, q, AnalysisOptions{Subject: "tables"})
	return &fixture{svc: svc, store: store, dl: dl, q: q, dir: dir}
}

func (f *fixture) download(t *testing.T) *models.Table {
	t.Helper()
	table, err := f.svc.Download(context.Background(), DownloadInput{
		Symbol: "AAPL", Period: "9d", Interval: "1d", Window: "3d",
	})
	require.NoError(t, err)
	return table
}

func TestAnalysisService_NoTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Table()
	assert.ErrorIs(t, err, ErrNoTable)

	assert.ErrorIs(t, f.svc.Save(context.Background(), "Storage"), ErrNoTable)

	_, err = f.svc.Draw(context.Background(), []string{"Open"})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = f.svc.Extremes("Open", true)
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestAnalysisService_Download(t *testing.T) {
	f := newFixture(t)
	table := f.download(t)

	assert.Equal(t, "AAPL", f.dl.symbol)
	assert.Equal(t, 9*utils.Day, f.dl.lookback)
	assert.Equal(t, "1d", f.dl.interval)

	assert.Equal(t, []string{"Open", "Movavg", "Diff", "Autocor"}, table.Columns())
	assert.Equal(t, 9, table.Len())
	assert.Equal(t, "download:AAPL", f.svc.Source())

	current, err := f.svc.Table()
	require.NoError(t, err)
	assert.Same(t, table, current)
}

func TestAnalysisService_DownloadPublishes(t *testing.T) {
	f := newFixture(t)
	f.download(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := f.q.Next(ctx, "tables")
	require.NoError(t, err)

	var event queue.TableEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "download", event.Source)
	assert.Equal(t, "AAPL", event.Symbol)
	assert.Equal(t, 9, event.Table.Count)
}

func TestAnalysisService_DownloadInvalidArguments(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   DownloadInput
		code string
	}{
		{"empty symbol", DownloadInput{Period: "1d", Interval: "1d", Window: "1d"}, CodeInvalidArgument},
		{"bad period", DownloadInput{Symbol: "A", Period: "x", Interval: "1d", Window: "1d"}, CodeInvalidFormat},
		{"bad interval", DownloadInput{Symbol: "A", Period: "1d", Interval: "", Window: "1d"}, CodeInvalidFormat},
		{"bad window", DownloadInput{Symbol: "A", Period: "1d", Interval: "1d", Window: "3q"}, CodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Download(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, FromError(err).Code)
		})
	}

	_, err := f.svc.Table()
	assert.ErrorIs(t, err, ErrNoTable, "failed downloads must not set a table")
}

func TestAnalysisService_DownloadFailureKeepsTable(t *testing.T) {
	f := newFixture(t)
	before := f.download(t)

	f.dl.err = errors.New("connection refused")
	_, err := f.svc.Download(context.Background(), DownloadInput{
		Symbol: "MSFT", Period: "9d", Interval: "1d", Window: "3d",
	})
	require.Error(t, err)

	current, err := f.svc.Table()
	require.NoError(t, err)
	assert.Same(t, before, current)
}

func TestAnalysisService_SaveAndLoad(t *testing.T) {
	f := newFixture(t)
	saved := f.download(t)
	require.NoError(t, f.svc.Save(context.Background(), "Storage"))

	sheets, err := f.store.Sheets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Storage"}, sheets)

	loaded, err := f.svc.Load(context.Background(), "Storage")
	require.NoError(t, err)
	assert.Equal(t, saved.Columns(), loaded.Columns())
	assert.Equal(t, saved.Len(), loaded.Len())
	assert.Equal(t, "sheet:Storage", f.svc.Source())

	last := saved.Index()[saved.Len()-1]
	_, ok := loaded.Value(last, "Diff")
	assert.False(t, ok, "missing cells stay missing after a round trip")
}

func TestAnalysisService_LoadMissingSheet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Load(context.Background(), "Nope")
	assert.ErrorIs(t, err, storage.ErrSheetNotFound)
	assert.Equal(t, CodeSheetNotFound, FromError(err).Code)
}

func TestAnalysisService_Draw(t *testing.T) {
	f := newFixture(t)
	f.download(t)

	path, err := f.svc.Draw(context.Background(), []string{"Open", "Movavg"})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = f.svc.Draw(context.Background(), []string{"Open", "Volume"})
	require.Error(t, err)
	assert.Equal(t, CodeColumnNotFound, FromError(err).Code)

	_, err = f.svc.Draw(context.Background(), nil)
	assert.ErrorIs(t, err, render.ErrNoColumns)
}

func TestAnalysisService_DrawTo(t *testing.T) {
	f := newFixture(t)
	f.download(t)

	var buf bytes.Buffer
	require.NoError(t, f.svc.DrawTo(context.Background(), &buf, []string{"Diff"}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestAnalysisService_Extremes(t *testing.T) {
	f := newFixture(t)
	f.dl.series = dailySeries(t, 3, 1, 4, 1, 5, 9, 2, 6)
	f.download(t)

	global, err := f.svc.Extremes("Open", true)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, analytics.Min, global[0].Kind)
	assert.Equal(t, 1.0, global[0].Value)
	assert.Equal(t, 1, global[0].Index)
	assert.Equal(t, analytics.Max, global[1].Kind)
	assert.Equal(t, 9.0, global[1].Value)

	local, err := f.svc.Extremes("Open", false)
	require.NoError(t, err)
	kinds := make([]analytics.ExtremumKind, len(local))
	for i, e := range local {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []analytics.ExtremumKind{
		analytics.Min, analytics.Max, analytics.Min, analytics.Max, analytics.Min,
	}, kinds)

	_, err = f.svc.Extremes("Volume", true)
	assert.ErrorIs(t, err, models.ErrColumnNotFound)
}

func TestAnalysisService_ExtremesSingleSample(t *testing.T) {
	f := newFixture(t)

	table := models.NewTable()
	table.Set(day0, "Open", 42)
	require.NoError(t, f.store.Save(context.Background(), table, "One"))
	_, err := f.svc.Load(context.Background(), "One")
	require.NoError(t, err)

	global, err := f.svc.Extremes("Open", true)
	require.NoError(t, err)
	require.Len(t, global, 2)
	assert.Equal(t, 42.0, global[0].Value)
	assert.Equal(t, 42.0, global[1].Value)

	_, err = f.svc.Extremes("Open", false)
	assert.ErrorIs(t, err, analytics.ErrInvalidInput)
}

func TestAnalysisService_WithoutPublisher(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(storage.Config{File: storage.FileConfig{Dir: dir}})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	dl := &fakeDownloader{series: dailySeries(t, 1, 2, 3)}
	svc := NewAnalysisService(logging.NewNop(), store, dl, nil, nil, AnalysisOptions{})

	table, err := svc.Download(context.Background(), DownloadInput{Symbol: "X", Period: "3d", Interval: "1d", Window: "1d"})
	require.NoError(t, err)
	assert.True(t, table.HasColumn(utils.DefaultValueColumn))
}

func TestAnalysisService_ConcurrentReads(t *testing.T) {
	f := newFixture(t)
	f.download(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = f.svc.Column("Movavg")
				return
			}
			_, _ = f.svc.Download(context.Background(), DownloadInput{
				Symbol: "AAPL", Period: "9d", Interval: "1d", Window: "3d",
			})
		}(i)
	}
	wg.Wait()

	_, err := f.svc.Table()
	assert.NoError(t, err)
}
