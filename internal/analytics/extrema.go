package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// ExtremumKind distinguishes minima from maxima.
type ExtremumKind string

const (
	Min ExtremumKind = "Min"
	Max ExtremumKind = "Max"
)

// Extremum is a detected minimum or maximum.
type Extremum struct {
	Index int          `json:"index"`
	Time  time.Time    `json:"time"`
	Value float64      `json:"value"`
	Kind  ExtremumKind `json:"type"`
}

// FindExtremes returns the global [Min, Max] pair when global is set,
// otherwise every local extremum among the interior points in time order.
func (a *Analyser) FindExtremes(global bool) ([]Extremum, error) {
	if global {
		return a.globalExtremes(), nil
	}
	return a.localExtremes()
}

// globalExtremes picks the first index holding the minimum and the first
// index holding the maximum.
func (a *Analyser) globalExtremes() []Extremum {
	minIdx := floats.MinIdx(a.series.values)
	maxIdx := floats.MaxIdx(a.series.values)
	return []Extremum{
		a.extremum(minIdx, Min),
		a.extremum(maxIdx, Max),
	}
}

// localExtremes classifies interior points against both neighbours. Min is
// tested first, so a flat run is reported as Min. Endpoints are never
// reported.
func (a *Analyser) localExtremes() ([]Extremum, error) {
	n := a.series.Len()
	if n < 3 {
		return nil, fmt.Errorf("%w: local extrema need at least 3 samples, got %d", ErrInvalidInput, n)
	}

	v := a.series.values
	result := []Extremum{}
	for i := 1; i < n-1; i++ {
		switch {
		case v[i] <= v[i-1] && v[i] <= v[i+1]:
			result = append(result, a.extremum(i, Min))
		case v[i] >= v[i-1] && v[i] >= v[i+1]:
			result = append(result, a.extremum(i, Max))
		}
	}
	return result, nil
}

func (a *Analyser) extremum(i int, kind ExtremumKind) Extremum {
	return Extremum{
		Index: i,
		Time:  a.series.timestamps[i],
		Value: a.series.values[i],
		Kind:  kind,
	}
}
