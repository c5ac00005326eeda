package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for a malformed period string.
var ErrInvalidFormat = errors.New("invalid period format")

// Period units accepted by ParsePeriod.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// ParsePeriod parses a compound period such as "1y,2mo,3d" into a duration.
// Tokens are <int><unit> joined by commas with units s, m, h, d, w, mo (30
// days) and y (365 days).
func ParsePeriod(period string) (time.Duration, error) {
	var total time.Duration
	for _, token := range strings.Split(period, ",") {
		d, err := parseToken(token)
		if err != nil {
			return 0, err
		}
		if (d > 0 && total > math.MaxInt64-d) || (d < 0 && total < math.MinInt64-d) {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidFormat, period)
		}
		total += d
	}
	return total, nil
}

// MustParsePeriod is ParsePeriod for constants known to be valid.
func MustParsePeriod(period string) time.Duration {
	d, err := ParsePeriod(period)
	if err != nil {
		panic(err)
	}
	return d
}

func parseToken(token string) (time.Duration, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidFormat)
	}

	var (
		number string
		unit   time.Duration
	)
	switch {
	case strings.HasSuffix(token, "s"):
		number, unit = token[:len(token)-1], time.Second
	case strings.HasSuffix(token, "m"):
		number, unit = token[:len(token)-1], time.Minute
	case strings.HasSuffix(token, "h"):
		number, unit = token[:len(token)-1], time.Hour
	case strings.HasSuffix(token, "d"):
		number, unit = token[:len(token)-1], Day
	case strings.HasSuffix(token, "w"):
		number, unit = token[:len(token)-1], Week
	case strings.HasSuffix(token, "mo"):
		number, unit = token[:len(token)-2], Month
	case strings.HasSuffix(token, "y"):
		number, unit = token[:len(token)-1], Year
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidFormat, token)
	}

	n, err := strconv.Atoi(number)
	if err != nil {
		return 0, fmt.Errorf("%w: bad count in %q", ErrInvalidFormat, token)
	}
	limit := int64(math.MaxInt64 / unit)
	if int64(n) > limit || int64(n) < -limit {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidFormat, token)
	}
	return time.Duration(n) * unit, nil
}

// FormatPeriod renders a duration in the largest whole units of the period
// grammar, e.g. 26h becomes "1d,2h". Zero renders as "0s".
func FormatPeriod(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	units := []struct {
		suffix string
		size   time.Duration
	}{
		{"y", Year}, {"mo", Month}, {"w", Week}, {"d", Day},
		{"h", time.Hour}, {"m", time.Minute}, {"s", time.Second},
	}

	var parts []string
	for _, u := range units {
		if n := d / u.size; n > 0 {
			parts = append(parts, sign+strconv.FormatInt(int64(n), 10)+u.suffix)
			d -= n * u.size
		}
	}
	if len(parts) == 0 {
		return d.String()
	}
	return strings.Join(parts, ",")
}
