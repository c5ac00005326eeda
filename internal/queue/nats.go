package queue

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSConfig represents NATS JetStream publisher configuration
type NATSConfig struct {
	URL      string
	Username string
	Password string
	// Subject is bound to a JetStream stream on connect so publishes are acknowledged.
	Subject string
}

// NATSQueue publishes through NATS JetStream
type NATSQueue struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	stream string
}

func newNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	var opts []nats.Option
	opts = append(opts, nats.Name("tsanalyser"))
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, cfg.Subject)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn, subject string) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	q := &NATSQueue{conn: conn, js: js}
	if subject != "" {
		if err := q.ensureStream(subject); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ensureStream creates a file-backed stream covering subject and its column
// subjects unless one exists
func (q *NATSQueue) ensureStream(subject string) error {
	name := streamName(subject)
	if _, err := q.js.StreamInfo(name); err == nil {
		q.stream = name
		return nil
	}

	_, err := q.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subject, subject + ".>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
	}
	q.stream = name
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues every message asynchronously and waits for all acks
func (q *NATSQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		future, err := q.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	successCount := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			successCount++
		case <-future.Err():
		default:
			successCount++
		}
	}
	return successCount, nil
}

// Stream returns the JetStream stream name bound at connect time
func (q *NATSQueue) Stream() string {
	return q.stream
}

func (q *NATSQueue) Close() error {
	q.conn.Close()
	return nil
}

// streamName derives a valid stream name from a subject.
func streamName(subject string) string {
	return "tsanalyser-" + sanitize(subject)
}
