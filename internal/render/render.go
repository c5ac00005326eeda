// Package render draws table columns as an SVG line chart.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/Exarkun1/pylab4/internal/downsampling"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// ErrNoColumns is returned when Render is called without column names.
var ErrNoColumns = errors.New("no columns to draw")

// Renderer draws charts of table columns, either to a new file whose path
// is returned or straight to a writer.
type Renderer interface {
	Render(ctx context.Context, table *models.Table, columns []string) (string, error)
	RenderTo(ctx context.Context, w io.Writer, table *models.Table, columns []string) error
}

// Config configures an SVGRenderer.
type Config struct {
	OutputDir    string
	Width        int // pixels
	Height       int // pixels
	MaxPoints    int // per column, 0 disables downsampling
	Downsampling downsampling.Mode
	Location     *time.Location // zone of the time axis labels
}

// SVGRenderer draws line charts with gonum/plot.
type SVGRenderer struct {
	cfg    Config
	now    func() time.Time
	logger *logging.Logger
}

// NewSVGRenderer creates the output directory and a renderer writing to it.
func NewSVGRenderer(cfg Config) (*SVGRenderer, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("render: output directory is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: create %s: %w", cfg.OutputDir, err)
	}
	if cfg.Width <= 0 {
		cfg.Width = utils.DefaultChartWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = utils.DefaultChartHeight
	}
	if cfg.Downsampling == "" {
		cfg.Downsampling = downsampling.ModeAuto
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SVGRenderer{
		cfg:    cfg,
		now:    time.Now,
		logger: logging.Global().With("component", "render"),
	}, nil
}

// Render draws columns of table into a new SVG file under the output
// directory and returns its path.
func (r *SVGRenderer) Render(ctx context.Context, table *models.Table, columns []string) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(ctx, &buf, table, columns); err != nil {
		return "", err
	}

	name := fmt.Sprintf("chart-%s-%s.svg", r.now().UTC().Format("20060102-150405.000"), fileSafe(columns))
	path := filepath.Join(r.cfg.OutputDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}

	logging.FromContext(ctx).WithContext(ctx).Info("Chart rendered",
		"path", path,
		"columns", strings.Join(columns, ","))
	return path, nil
}

// RenderTo draws columns of table as SVG into w.
func (r *SVGRenderer) RenderTo(ctx context.Context, w io.Writer, table *models.Table, columns []string) error {
	if table == nil {
		return fmt.Errorf("render: nil table")
	}
	if len(columns) == 0 {
		return ErrNoColumns
	}

	p := plot.New()
	p.Title.Text = strings.Join(columns, ", ")
	p.X.Label.Text = "Time"
	p.X.Tick.Marker = plot.TimeTicks{
		Format: r.tickFormat(table),
		Time: func(t float64) time.Time {
			return plot.UTCUnixTime(t).In(r.cfg.Location)
		},
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, column := range columns {
		if err := ctx.Err(); err != nil {
			return err
		}

		series, err := table.Column(column)
		if err != nil {
			return fmt.Errorf("render column %q: %w", column, err)
		}

		mode := r.cfg.Downsampling
		if r.cfg.MaxPoints == 0 {
			mode = downsampling.ModeNone
		}
		sampled, err := downsampling.Downsample(series, mode, r.cfg.MaxPoints)
		if err != nil {
			return fmt.Errorf("render column %q: %w", column, err)
		}

		xys := make(plotter.XYs, sampled.Len())
		for j, pt := range sampled.Points() {
			xys[j].X = float64(pt.Time.Unix())
			xys[j].Y = pt.Value
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("render column %q: %w", column, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.2)
		p.Add(line)
		p.Legend.Add(column, line)

		r.logger.Debug("Column plotted", "column", column, "points", sampled.Len(), "source_points", series.Len())
	}

	canvas := vgsvg.New(pixels(r.cfg.Width), pixels(r.cfg.Height))
	p.Draw(draw.New(canvas))
	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// tickFormat shows clock time only when the table spans less than a few days.
func (r *SVGRenderer) tickFormat(table *models.Table) string {
	index := table.Index()
	if len(index) < 2 || index[len(index)-1].Sub(index[0]) > 72*time.Hour {
		return "2006-01-02"
	}
	return "01-02 15:04"
}

// pixels converts CSS pixels (96 per inch) to a plot length.
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / 96
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func fileSafe(columns []string) string {
	name := unsafeChars.ReplaceAllString(strings.Join(columns, "_"), "")
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "columns"
	}
	return name
}
