package analytics

import (
	"fmt"
	"time"
)

// Output series names.
const (
	MovingAverageName   = "Movavg"
	DifferentialName    = "Diff"
	AutocorrelationName = "Autocor"
)

// Analyser binds a series to its sampling interval and exposes the
// transform engine over it. An Analyser is read-only and safe for
// concurrent use.
type Analyser struct {
	series   *Series
	interval time.Duration
}

// NewAnalyser creates an analyser whose interval is estimated from the series.
func NewAnalyser(series *Series) (*Analyser, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInvalidInput)
	}
	interval, err := EstimateInterval(series)
	if err != nil {
		return nil, err
	}
	return &Analyser{series: series, interval: interval}, nil
}

// NewAnalyserWithInterval creates an analyser with a declared interval.
// Single-point series are accepted since no estimate is needed.
func NewAnalyserWithInterval(series *Series, interval time.Duration) (*Analyser, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInvalidInput)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidArgument, interval)
	}
	return &Analyser{series: series, interval: interval}, nil
}

// Len returns the number of observations.
func (a *Analyser) Len() int {
	return a.series.Len()
}

// Timestamps returns a copy of the series timestamps.
func (a *Analyser) Timestamps() []time.Time {
	return a.series.Timestamps()
}

// Interval returns the sampling interval.
func (a *Analyser) Interval() time.Duration {
	return a.interval
}

// Series returns the underlying series.
func (a *Analyser) Series() *Series {
	return a.series
}
