package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Autocorrelation returns the lag-k autocorrelation for k in [0, n-2],
// anchored at timestamps[k]. For each lag the suffix x = v[k:] is correlated
// with the prefix y = v[:n-k] using population standard deviations.
//
// A constant sub-series yields a zero denominator; the result then follows
// IEEE-754 (NaN or ±Inf). Use AutocorrelationStrict to get an error instead.
func (a *Analyser) Autocorrelation() (*Series, error) {
	return a.autocorrelation(false)
}

// AutocorrelationStrict is Autocorrelation but fails with
// ErrArithmeticDegenerate when any lag has a zero-variance operand.
func (a *Analyser) AutocorrelationStrict() (*Series, error) {
	return a.autocorrelation(true)
}

func (a *Analyser) autocorrelation(strict bool) (*Series, error) {
	n := a.series.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: autocorrelation needs at least 2 samples, got %d", ErrInvalidInput, n)
	}

	values := a.series.values
	result := make([]float64, n-1)
	product := make([]float64, n)

	for k := 0; k < n-1; k++ {
		x := values[k:]
		y := values[:n-k]
		xy := floats.MulTo(product[:n-k], x, y)

		meanX, stdX := stat.PopMeanStdDev(x, nil)
		meanY, stdY := stat.PopMeanStdDev(y, nil)
		if strict && (stdX == 0 || stdY == 0) {
			return nil, fmt.Errorf("%w: zero variance at lag %d", ErrArithmeticDegenerate, k)
		}

		result[k] = (stat.Mean(xy, nil) - meanX*meanY) / (stdX * stdY)
	}

	timestamps := make([]time.Time, n-1)
	copy(timestamps, a.series.timestamps[:n-1])

	return newSeries(AutocorrelationName, timestamps, result), nil
}
