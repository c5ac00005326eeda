package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Timeouts
const (
	// DefaultRequestTimeout is the default timeout for read API requests
	DefaultRequestTimeout = 30 * time.Second

	// DownloadTimeout bounds a single quote download attempt
	DownloadTimeout = 20 * time.Second

	// PublishTimeout bounds publishing a table snapshot to the queue
	PublishTimeout = 5 * time.Second

	// ShutdownTimeout is how long the HTTP server gets to drain on exit
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = time.Second

	// MaxRetryBackoff is the maximum backoff duration
	MaxRetryBackoff = 5 * time.Second
)

// Backoff returns the delay before retry attempt n (starting at 1), doubling
// from base and capped at MaxRetryBackoff.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= MaxRetryBackoff {
			return MaxRetryBackoff
		}
	}
	if d > MaxRetryBackoff {
		return MaxRetryBackoff
	}
	return d
}

// =============================================================================
// Table Constants
// =============================================================================

const (
	// DefaultIndexColumn is the timestamp column name used by load
	DefaultIndexColumn = "Date"

	// DefaultValueColumn is the quote column taken from downloads
	DefaultValueColumn = "Open"

	// DefaultChartWidth and DefaultChartHeight size rendered charts in pixels
	DefaultChartWidth  = 960
	DefaultChartHeight = 480
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents a NATS publisher (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
