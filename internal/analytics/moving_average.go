package analytics

import (
	"fmt"
	"time"
)

// MovingAverage dispatches to the count or duration variant.
func (a *Analyser) MovingAverage(w Window) (*Series, error) {
	switch w.kind {
	case WindowCount:
		return a.MovingAverageByCount(w.count)
	case WindowDuration:
		return a.MovingAverageByDuration(w.duration)
	default:
		return nil, fmt.Errorf("%w: moving average needs a count or duration window", ErrInvalidArgument)
	}
}

// MovingAverageByCount averages the trailing window positions
// [max(0, i-window+1), i]. The first window-1 points use a partial window.
func (a *Analyser) MovingAverageByCount(window int) (*Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window must be at least 1, got %d", ErrInvalidArgument, window)
	}

	values := a.series.values
	result := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for j := start; j <= i; j++ {
			sum += values[j]
		}
		result[i] = sum / float64(i-start+1)
	}

	return newSeries(MovingAverageName, a.series.Timestamps(), result), nil
}

// MovingAverageByDuration averages, for each sample i, every sample j <= i
// with t[i]-t[j] <= window. Sample i always qualifies.
func (a *Analyser) MovingAverageByDuration(window time.Duration) (*Series, error) {
	if window < 0 {
		return nil, fmt.Errorf("%w: window must not be negative, got %s", ErrInvalidArgument, window)
	}

	ts := a.series.timestamps
	values := a.series.values
	result := make([]float64, len(values))
	for i := range values {
		sum := 0.0
		n := 0
		for j := i; j >= 0 && ts[i].Sub(ts[j]) <= window; j-- {
			sum += values[j]
			n++
		}
		result[i] = sum / float64(n)
	}

	return newSeries(MovingAverageName, a.series.Timestamps(), result), nil
}
