// Package analytics implements the time series analyser: the series model,
// sampling interval estimation and the transform engine (moving average,
// differencing, autocorrelation and extrema detection).
package analytics

import (
	"fmt"
	"time"
)

// Series is an immutable timestamp-indexed sequence of observations.
// Timestamps are strictly increasing and positionally aligned with Values.
type Series struct {
	name       string
	timestamps []time.Time
	values     []float64
}

// Point is a single observation.
type Point struct {
	Time  time.Time
	Value float64
}

// NewSeries validates and copies the given samples into a new Series.
func NewSeries(name string, timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrInvalidInput, len(timestamps), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: series is empty", ErrInvalidInput)
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, fmt.Errorf("%w: timestamp %d (%s) does not follow %s",
				ErrInvalidInput, i, timestamps[i].Format(time.RFC3339), timestamps[i-1].Format(time.RFC3339))
		}
	}

	ts := make([]time.Time, len(timestamps))
	copy(ts, timestamps)
	vals := make([]float64, len(values))
	copy(vals, values)

	return &Series{name: name, timestamps: ts, values: vals}, nil
}

// NewSeriesFromPoints builds a Series from points already in time order.
func NewSeriesFromPoints(name string, points []Point) (*Series, error) {
	ts := make([]time.Time, len(points))
	vals := make([]float64, len(points))
	for i, p := range points {
		ts[i] = p.Time
		vals[i] = p.Value
	}
	return NewSeries(name, ts, vals)
}

// newSeries wraps freshly allocated slices without copying. Callers must
// not retain the slices.
func newSeries(name string, timestamps []time.Time, values []float64) *Series {
	return &Series{name: name, timestamps: timestamps, values: values}
}

// Name returns the series name.
func (s *Series) Name() string {
	return s.name
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.values)
}

// Timestamps returns a copy of the timestamps.
func (s *Series) Timestamps() []time.Time {
	ts := make([]time.Time, len(s.timestamps))
	copy(ts, s.timestamps)
	return ts
}

// Values returns a copy of the values.
func (s *Series) Values() []float64 {
	vals := make([]float64, len(s.values))
	copy(vals, s.values)
	return vals
}

// At returns the observation at index i.
func (s *Series) At(i int) Point {
	return Point{Time: s.timestamps[i], Value: s.values[i]}
}

// Points returns the observations as a slice of points.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.values))
	for i := range s.values {
		points[i] = Point{Time: s.timestamps[i], Value: s.values[i]}
	}
	return points
}

// Start returns the first timestamp.
func (s *Series) Start() time.Time {
	return s.timestamps[0]
}

// End returns the last timestamp.
func (s *Series) End() time.Time {
	return s.timestamps[len(s.timestamps)-1]
}

// WithName returns a copy of the series under a different name.
func (s *Series) WithName(name string) *Series {
	return newSeries(name, s.Timestamps(), s.Values())
}
