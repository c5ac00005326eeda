package queue

import (
	"context"
	"fmt"
	"sync"
)

const memoryChannelSize = 1024

// MemoryQueue is an in-process Publisher backed by buffered channels.
// Useful for tests and for running without a broker.
type MemoryQueue struct {
	channels map[string]chan []byte
	closed   bool
	mu       sync.Mutex
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{channels: make(map[string]chan []byte)}
}

// NewMemoryQueue creates an empty in-memory queue
func NewMemoryQueue() *MemoryQueue {
	return newMemoryQueue()
}

func (q *MemoryQueue) channel(subject string) (chan []byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, fmt.Errorf("memory queue is closed")
	}
	ch, ok := q.channels[subject]
	if !ok {
		ch = make(chan []byte, memoryChannelSize)
		q.channels[subject] = ch
	}
	return ch, nil
}

// Publish copies data onto the subject's channel. It fails rather than blocks when the channel is full.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	ch, err := q.channel(subject)
	if err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ch <- dataCopy:
		return nil
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// PublishBatch publishes each message in turn, skipping failures
func (q *MemoryQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	successCount := 0
	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			continue
		}
		successCount++
	}
	return successCount, nil
}

// Next returns the oldest pending message on subject, waiting until one arrives or ctx ends.
func (q *MemoryQueue) Next(ctx context.Context, subject string) ([]byte, error) {
	ch, err := q.channel(subject)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-ch:
		return data, nil
	}
}

// Pending returns the number of queued messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, ok := q.channels[subject]; ok {
		return len(ch)
	}
	return 0
}

// Close drops all channels. Further publishes fail.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.channels = make(map[string]chan []byte)
	return nil
}
