package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/downloader"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/pipeline"
	"github.com/Exarkun1/pylab4/internal/queue"
	"github.com/Exarkun1/pylab4/internal/render"
	"github.com/Exarkun1/pylab4/internal/storage"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// AnalysisOptions configures an AnalysisService.
type AnalysisOptions struct {
	IndexColumn           string
	ValueColumn           string
	StrictAutocorrelation bool
	// Subject receives a TableEvent after every load and download. Empty
	// disables publishing even when a publisher is set.
	Subject string
}

// AnalysisService owns the current table. Loads and downloads replace it;
// every other operation reads it. Safe for concurrent use.
type AnalysisService struct {
	logger     *logging.Logger
	store      storage.Store
	downloader downloader.Downloader
	renderer   render.Renderer
	publisher  queue.Publisher
	opts       AnalysisOptions

	mu     sync.RWMutex
	table  *models.Table
	source string
}

// NewAnalysisService creates a new AnalysisService. publisher may be nil.
func NewAnalysisService(
	logger *logging.Logger,
	store storage.Store,
	dl downloader.Downloader,
	renderer render.Renderer,
	publisher queue.Publisher,
	opts AnalysisOptions,
) *AnalysisService {
	if opts.IndexColumn == "" {
		opts.IndexColumn = utils.DefaultIndexColumn
	}
	if opts.ValueColumn == "" {
		opts.ValueColumn = utils.DefaultValueColumn
	}
	return &AnalysisService{
		logger:     logger,
		store:      store,
		downloader: dl,
		renderer:   renderer,
		publisher:  publisher,
		opts:       opts,
	}
}

// DownloadInput holds the arguments of a download command. Period, Interval
// and Window use the compound duration grammar; Interval is also passed to
// the quote source as its bar size.
type DownloadInput struct {
	Symbol   string
	Period   string
	Interval string
	Window   string
}

// Load reads sheet from storage and makes it the current table.
func (s *AnalysisService) Load(ctx context.Context, sheet string) (*models.Table, error) {
	table, err := s.store.Load(ctx, sheet, s.opts.IndexColumn)
	if err != nil {
		return nil, err
	}

	s.setTable(table, "sheet:"+sheet)
	s.log(ctx).Info("Sheet loaded", "sheet", sheet, "rows", table.Len(), "columns", len(table.Columns()))

	s.publish(ctx, queue.TableEvent{Source: "load", Sheet: sheet, Table: models.NewTableResponse(table)})
	return table, nil
}

// Save writes the current table to sheet.
func (s *AnalysisService) Save(ctx context.Context, sheet string) error {
	table, err := s.Table()
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, table, sheet); err != nil {
		return err
	}

	s.log(ctx).Info("Sheet saved", "sheet", sheet, "rows", table.Len())
	return nil
}

// Download fetches quotes for the symbol over the lookback period, runs the
// analysis pipeline over them and makes the result the current table.
func (s *AnalysisService) Download(ctx context.Context, in DownloadInput) (*models.Table, error) {
	if strings.TrimSpace(in.Symbol) == "" {
		return nil, NewServiceError(CodeInvalidArgument, "symbol is required")
	}
	period, err := utils.ParsePeriod(in.Period)
	if err != nil {
		return nil, fmt.Errorf("period: %w", err)
	}
	interval, err := utils.ParsePeriod(in.Interval)
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}
	window, err := utils.ParsePeriod(in.Window)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	dlCtx, cancel := context.WithTimeout(ctx, utils.DownloadTimeout)
	defer cancel()

	raw, err := s.downloader.Download(dlCtx, in.Symbol, period, in.Interval)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", in.Symbol, err)
	}

	table, err := pipeline.Compute(ctx, raw, interval, window, pipeline.Options{
		ValueColumn:           s.opts.ValueColumn,
		StrictAutocorrelation: s.opts.StrictAutocorrelation,
	})
	if err != nil {
		return nil, err
	}

	s.setTable(table, "download:"+in.Symbol)
	s.log(ctx).Info("Quotes analysed",
		"symbol", in.Symbol,
		"period", utils.FormatPeriod(period),
		"interval", in.Interval,
		"window", utils.FormatPeriod(window),
		"rows", table.Len())

	s.publish(ctx, queue.TableEvent{Source: "download", Symbol: in.Symbol, Table: models.NewTableResponse(table)})
	return table, nil
}

// Draw renders the named columns of the current table and returns the chart path.
func (s *AnalysisService) Draw(ctx context.Context, columns []string) (string, error) {
	table, err := s.Table()
	if err != nil {
		return "", err
	}
	if err := requireColumns(table, columns); err != nil {
		return "", err
	}
	return s.renderer.Render(ctx, table, columns)
}

// DrawTo renders the named columns of the current table to w.
func (s *AnalysisService) DrawTo(ctx context.Context, w io.Writer, columns []string) error {
	table, err := s.Table()
	if err != nil {
		return err
	}
	if err := requireColumns(table, columns); err != nil {
		return err
	}
	return s.renderer.RenderTo(ctx, w, table, columns)
}

// Table returns the current table or ErrNoTable.
func (s *AnalysisService) Table() (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, ErrNoTable
	}
	return s.table, nil
}

// Source describes where the current table came from, e.g. "sheet:Storage".
func (s *AnalysisService) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Column returns the present cells of one column of the current table.
func (s *AnalysisService) Column(name string) (*analytics.Series, error) {
	table, err := s.Table()
	if err != nil {
		return nil, err
	}
	return table.Column(name)
}

// Extremes finds the extrema of one column of the current table.
func (s *AnalysisService) Extremes(column string, global bool) ([]analytics.Extremum, error) {
	series, err := s.Column(column)
	if err != nil {
		return nil, err
	}

	var session *analytics.Analyser
	if series.Len() == 1 {
		// a lone sample has no gap to estimate; extrema ignore the interval
		session, err = analytics.NewAnalyserWithInterval(series, utils.Day)
	} else {
		session, err = analytics.NewAnalyser(series)
	}
	if err != nil {
		return nil, err
	}
	return session.FindExtremes(global)
}

func (s *AnalysisService) setTable(table *models.Table, source string) {
	s.mu.Lock()
	s.table = table
	s.source = source
	s.mu.Unlock()
}

// publish sends the event if publishing is configured. Failures are only logged.
func (s *AnalysisService) publish(ctx context.Context, event queue.TableEvent) {
	if s.publisher == nil || s.opts.Subject == "" {
		return
	}

	start := time.Now()
	if err := queue.PublishTable(ctx, s.publisher, s.opts.Subject, event); err != nil {
		s.log(ctx).Warn("Failed to publish table", "subject", s.opts.Subject, "source", event.Source, "error", err)
		return
	}
	s.log(ctx).Debug("Table published",
		"subject", s.opts.Subject,
		"source", event.Source,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *AnalysisService) log(ctx context.Context) *logging.Logger {
	return s.logger.WithContext(ctx)
}

func requireColumns(table *models.Table, columns []string) error {
	if len(columns) == 0 {
		return render.ErrNoColumns
	}
	for _, c := range columns {
		if !table.HasColumn(c) {
			return NewServiceErrorWithDetails(CodeColumnNotFound,
				fmt.Sprintf("column %q not found", c),
				map[string]interface{}{"column": c, "available": table.Columns()})
		}
	}
	return nil
}
