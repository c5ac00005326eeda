// Package downsampling reduces a series to a point budget for charting while
// keeping its visual shape.
package downsampling

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Exarkun1/pylab4/internal/analytics"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone means no downsampling
	ModeNone Mode = "none"
	// ModeAuto picks an algorithm from the shape of the data
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets algorithm
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps min and max values per bucket (preserves peaks/spikes)
	ModeMinMax Mode = "minmax"
	// ModeAverage uses average value per bucket
	ModeAverage Mode = "avg"
	// ModeM4 keeps First, Min, Max, Last per bucket (4 points per bucket)
	ModeM4 Mode = "m4"
)

// DefaultThreshold is the point budget used when none is given
const DefaultThreshold = 500

// ValidModes returns all valid downsampling modes
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4}
}

// ParseMode validates a mode name. The empty name selects ModeAuto.
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return ModeAuto, nil
	}
	for _, m := range ValidModes() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown downsampling mode: %s", name)
}

// point is a finite sample with x in seconds since the first sample.
type point struct {
	x, y  float64
	index int // position in the source series
}

// Downsample reduces s to about threshold points. Non-finite values are
// dropped first since they cannot be plotted. A series already within the
// budget is returned with only that filtering applied.
func Downsample(s *analytics.Series, mode Mode, threshold int) (*analytics.Series, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil series", analytics.ErrInvalidInput)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold < 3 {
		threshold = 3
	}

	points := finitePoints(s)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: series %q has no finite values", analytics.ErrInvalidInput, s.Name())
	}

	if mode == ModeAuto {
		if len(points) <= threshold {
			return subset(s, points, allIndices(points))
		}
		mode = detectBestAlgorithm(points)
	}

	if mode == ModeNone || len(points) <= threshold {
		return subset(s, points, allIndices(points))
	}

	switch mode {
	case ModeLTTB:
		return subset(s, points, lttb(points, threshold))
	case ModeMinMax:
		return subset(s, points, minmax(points, threshold))
	case ModeM4:
		return subset(s, points, m4(points, threshold))
	case ModeAverage:
		return average(s, points, threshold)
	default:
		return nil, fmt.Errorf("unknown downsampling mode: %s", mode)
	}
}

func finitePoints(s *analytics.Series) []point {
	origin := s.Start()
	points := make([]point, 0, s.Len())
	for i, p := range s.Points() {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		points = append(points, point{x: p.Time.Sub(origin).Seconds(), y: p.Value, index: i})
	}
	return points
}

func allIndices(points []point) []int {
	out := make([]int, len(points))
	for i := range points {
		out[i] = i
	}
	return out
}

// subset builds a series from the selected positions of points.
func subset(s *analytics.Series, points []point, selected []int) (*analytics.Series, error) {
	src := s.Points()
	out := make([]analytics.Point, len(selected))
	for i, k := range selected {
		out[i] = src[points[k].index]
	}
	return analytics.NewSeriesFromPoints(s.Name(), out)
}

// detectBestAlgorithm selects a mode from how spiky the data is:
// MinMax for spiky data, M4 for moderately spiky data, LTTB otherwise.
func detectBestAlgorithm(points []point) Mode {
	spikiness := calculateSpikiness(points)
	switch {
	case spikiness > 0.2:
		return ModeMinMax
	case spikiness > 0.1:
		return ModeM4
	default:
		return ModeLTTB
	}
}

// calculateSpikiness returns a value in [0, 1] combining the share of points
// beyond two standard deviations with the share of jumps larger than one.
func calculateSpikiness(points []point) float64 {
	if len(points) < 10 {
		return 0
	}

	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.y
	}
	mean, stdDev := stat.PopMeanStdDev(ys, nil)
	if stdDev == 0 {
		return 0
	}

	spikeCount := 0
	jumpCount := 0
	for i, y := range ys {
		if math.Abs(y-mean) > 2*stdDev {
			spikeCount++
		}
		if i > 0 && math.Abs(y-ys[i-1]) > stdDev {
			jumpCount++
		}
	}

	absolute := float64(spikeCount) / float64(len(ys))
	jumps := float64(jumpCount) / float64(len(ys)-1)

	return math.Min(1, (absolute+1.5*jumps)/2.5)
}

// lttb implements Largest-Triangle-Three-Buckets over real time offsets, so
// irregular spacing is taken into account. Returns positions into data.
func lttb(data []point, threshold int) []int {
	sampled := make([]int, 0, threshold)
	sampled = append(sampled, 0)

	bucketSize := float64(len(data)-2) / float64(threshold-2)
	a := 0

	for i := 0; i < threshold-2; i++ {
		// Average of the next bucket.
		nextStart := int(math.Floor(float64(i+1)*bucketSize)) + 1
		nextEnd := int(math.Floor(float64(i+2)*bucketSize)) + 1
		if nextEnd > len(data) {
			nextEnd = len(data)
		}
		var avgX, avgY float64
		for j := nextStart; j < nextEnd; j++ {
			avgX += data[j].x
			avgY += data[j].y
		}
		n := float64(nextEnd - nextStart)
		avgX /= n
		avgY /= n

		from := int(math.Floor(float64(i)*bucketSize)) + 1
		to := int(math.Floor(float64(i+1)*bucketSize)) + 1

		ax, ay := data[a].x, data[a].y
		maxArea := -1.0
		best := from
		for j := from; j < to; j++ {
			area := math.Abs((ax-avgX)*(data[j].y-ay)-(ax-data[j].x)*(avgY-ay)) * 0.5
			if area > maxArea {
				maxArea = area
				best = j
			}
		}

		sampled = append(sampled, best)
		a = best
	}

	return append(sampled, len(data)-1)
}

// buckets splits n points into count contiguous ranges.
func buckets(n, count int) [][2]int {
	if count < 1 {
		count = 1
	}
	size := float64(n) / float64(count)
	out := make([][2]int, 0, count)
	for i := 0; i < count; i++ {
		start := int(float64(i) * size)
		end := int(float64(i+1) * size)
		if i == count-1 || end > n {
			end = n
		}
		if start < end {
			out = append(out, [2]int{start, end})
		}
	}
	return out
}

func extremaIn(data []point, start, end int) (minIdx, maxIdx int) {
	minIdx, maxIdx = start, start
	for j := start + 1; j < end; j++ {
		if data[j].y < data[minIdx].y {
			minIdx = j
		}
		if data[j].y > data[maxIdx].y {
			maxIdx = j
		}
	}
	return minIdx, maxIdx
}

// minmax keeps the min and max of each bucket in time order.
func minmax(data []point, threshold int) []int {
	sampled := make([]int, 0, threshold)
	for _, b := range buckets(len(data), threshold/2) {
		lo, hi := extremaIn(data, b[0], b[1])
		if lo > hi {
			lo, hi = hi, lo
		}
		sampled = append(sampled, lo)
		if hi != lo {
			sampled = append(sampled, hi)
		}
	}
	return sampled
}

// m4 keeps first, min, max and last of each bucket in time order.
func m4(data []point, threshold int) []int {
	sampled := make([]int, 0, threshold)
	for _, b := range buckets(len(data), threshold/4) {
		first, last := b[0], b[1]-1
		lo, hi := extremaIn(data, b[0], b[1])
		if lo > hi {
			lo, hi = hi, lo
		}
		for _, idx := range []int{first, lo, hi, last} {
			if n := len(sampled); n == 0 || sampled[n-1] < idx {
				sampled = append(sampled, idx)
			}
		}
	}
	return sampled
}

// average replaces each bucket with its mean placed at the bucket's middle sample.
func average(s *analytics.Series, data []point, threshold int) (*analytics.Series, error) {
	src := s.Points()
	out := make([]analytics.Point, 0, threshold)
	ys := make([]float64, 0, len(data))
	for _, b := range buckets(len(data), threshold) {
		ys = ys[:0]
		for j := b[0]; j < b[1]; j++ {
			ys = append(ys, data[j].y)
		}
		mid := data[b[0]+(b[1]-b[0])/2].index
		out = append(out, analytics.Point{Time: src[mid].Time, Value: stat.Mean(ys, nil)})
	}
	return analytics.NewSeriesFromPoints(s.Name(), out)
}
