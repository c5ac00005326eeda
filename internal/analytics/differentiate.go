package analytics

import (
	"fmt"
	"time"
)

// Differentiate returns the rate of change between adjacent samples,
// normalized by how many sampling intervals elapsed between them. Each value
// is anchored at the earlier sample of its pair, so the output drops the
// last timestamp.
func (a *Analyser) Differentiate() (*Series, error) {
	n := a.series.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: differentiate needs at least 2 samples, got %d", ErrInvalidInput, n)
	}

	ts := a.series.timestamps
	values := a.series.values
	interval := float64(a.interval)

	result := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		elapsed := float64(ts[i+1].Sub(ts[i])) / interval
		result[i] = (values[i+1] - values[i]) / elapsed
	}

	timestamps := make([]time.Time, n-1)
	copy(timestamps, ts[:n-1])

	return newSeries(DifferentialName, timestamps, result), nil
}
