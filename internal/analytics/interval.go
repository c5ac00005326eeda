package analytics

import (
	"fmt"
	"time"
)

// EstimateInterval returns the natural sampling interval of a series: the
// smallest gap between two adjacent timestamps.
func EstimateInterval(s *Series) (time.Duration, error) {
	if s == nil || s.Len() < 2 {
		return 0, fmt.Errorf("%w: interval estimation needs at least 2 samples", ErrInvalidInput)
	}

	interval := s.timestamps[1].Sub(s.timestamps[0])
	for i := 2; i < len(s.timestamps); i++ {
		if gap := s.timestamps[i].Sub(s.timestamps[i-1]); gap < interval {
			interval = gap
		}
	}
	return interval, nil
}
