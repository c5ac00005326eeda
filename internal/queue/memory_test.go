package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueue_PublishAndNext(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	data := []byte("payload")
	if err := q.Publish(context.Background(), "s", data); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	data[0] = 'X'

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := q.Next(ctx, "s")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("expected copied payload, got %q", got)
	}
}

func TestMemoryQueue_NextTimesOut(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx, "empty"); err == nil {
		t.Error("expected deadline error")
	}
}

func TestMemoryQueue_PublishBatch(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	n, err := q.PublishBatch(context.Background(), []BatchMessage{
		{Subject: "a", Data: []byte("1")},
		{Subject: "a", Data: []byte("2")},
		{Subject: "b", Data: []byte("3")},
	})
	if err != nil {
		t.Fatalf("PublishBatch failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 published, got %d", n)
	}
	if q.Pending("a") != 2 || q.Pending("b") != 1 {
		t.Errorf("unexpected pending counts a=%d b=%d", q.Pending("a"), q.Pending("b"))
	}
}

func TestMemoryQueue_ChannelFull(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for i := 0; i < memoryChannelSize; i++ {
		if err := q.Publish(context.Background(), "full", []byte{byte(i)}); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	if err := q.Publish(context.Background(), "full", []byte("overflow")); err == nil {
		t.Error("expected error when channel is full")
	}
}

func TestMemoryQueue_PublishAfterClose(t *testing.T) {
	q := NewMemoryQueue()
	_ = q.Close()

	if err := q.Publish(context.Background(), "s", []byte("x")); err == nil {
		t.Error("expected error after close")
	}
}
