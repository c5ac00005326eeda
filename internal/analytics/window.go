package analytics

import (
	"fmt"
	"time"
)

// WindowKind tags the variant held by a Window.
type WindowKind uint8

const (
	// WindowNone is the zero value and is rejected by MovingAverage.
	WindowNone WindowKind = iota
	// WindowCount selects a fixed number of trailing samples.
	WindowCount
	// WindowDuration selects a trailing time span.
	WindowDuration
)

// Window is the argument of MovingAverage: either a sample count or a duration.
type Window struct {
	kind     WindowKind
	count    int
	duration time.Duration
}

// CountWindow returns a window of n trailing samples.
func CountWindow(n int) Window {
	return Window{kind: WindowCount, count: n}
}

// DurationWindow returns a window spanning d back from each sample.
func DurationWindow(d time.Duration) Window {
	return Window{kind: WindowDuration, duration: d}
}

// Kind returns the window variant.
func (w Window) Kind() WindowKind {
	return w.kind
}

func (w Window) String() string {
	switch w.kind {
	case WindowCount:
		return fmt.Sprintf("%d samples", w.count)
	case WindowDuration:
		return w.duration.String()
	default:
		return "none"
	}
}
