// Package pipeline runs the standard analysis over a raw quote series:
// a duration moving average, then the differential and autocorrelation of
// that average, assembled into one timestamp-aligned table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// Options tunes Compute.
type Options struct {
	// ValueColumn names the raw series column. Defaults to "Open".
	ValueColumn string

	// StrictAutocorrelation fails the run on zero-variance lags instead of
	// storing NaN/Inf cells.
	StrictAutocorrelation bool
}

func (o Options) valueColumn() string {
	if o.ValueColumn == "" {
		return utils.DefaultValueColumn
	}
	return o.ValueColumn
}

// Compute analyses raw sampled at interval with a moving average window of
// the given duration. The resulting table holds the raw values, the moving
// average, and the differential and autocorrelation of the moving average.
// Diff and Autocor have one sample fewer than the input, so their last row
// is empty.
func Compute(ctx context.Context, raw *analytics.Series, interval, window time.Duration, opts Options) (*models.Table, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil series", analytics.ErrInvalidInput)
	}
	log := logging.FromContext(ctx)
	start := time.Now()

	rawSession, err := analytics.NewAnalyserWithInterval(raw, interval)
	if err != nil {
		return nil, fmt.Errorf("raw session: %w", err)
	}

	movavg, err := rawSession.MovingAverageByDuration(window)
	if err != nil {
		return nil, fmt.Errorf("moving average: %w", err)
	}

	smoothed, err := analytics.NewAnalyserWithInterval(movavg, interval)
	if err != nil {
		return nil, fmt.Errorf("smoothed session: %w", err)
	}

	var diff, autocor *analytics.Series
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		diff, err = smoothed.Differentiate()
		if err != nil {
			return fmt.Errorf("differential: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		if opts.StrictAutocorrelation {
			autocor, err = smoothed.AutocorrelationStrict()
		} else {
			autocor, err = smoothed.Autocorrelation()
		}
		if err != nil {
			return fmt.Errorf("autocorrelation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := models.NewTable()
	for _, col := range []struct {
		name   string
		series *analytics.Series
	}{
		{opts.valueColumn(), raw},
		{analytics.MovingAverageName, movavg},
		{analytics.DifferentialName, diff},
		{analytics.AutocorrelationName, autocor},
	} {
		if err := table.AddSeries(col.name, col.series); err != nil {
			return nil, err
		}
	}

	log.Debug("Pipeline computed",
		"samples", raw.Len(),
		"interval", interval.String(),
		"window", window.String(),
		"duration", time.Since(start).String())

	return table, nil
}

// ComputeFromStrings is Compute with interval and window given in the period
// grammar, e.g. "1d" and "1w,2d".
func ComputeFromStrings(ctx context.Context, raw *analytics.Series, interval, window string, opts Options) (*models.Table, error) {
	step, err := utils.ParsePeriod(interval)
	if err != nil {
		return nil, fmt.Errorf("interval %q: %w", interval, err)
	}
	span, err := utils.ParsePeriod(window)
	if err != nil {
		return nil, fmt.Errorf("window %q: %w", window, err)
	}
	return Compute(ctx, raw, step, span, opts)
}
