package queue

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/config"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *models.Table {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := analytics.NewSeries("Open",
		[]time.Time{start, start.Add(24 * time.Hour)},
		[]float64{1.5, 2.5})
	require.NoError(t, err)

	table := models.NewTable()
	require.NoError(t, table.AddSeries("Open", s))
	return table
}

func TestPublishTable(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	event := TableEvent{Source: "load", Sheet: "Storage", Table: models.NewTableResponse(sampleTable(t))}
	require.NoError(t, PublishTable(context.Background(), q, "tables", event))
	assert.Equal(t, 1, q.Pending("tables"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := q.Next(ctx, "tables")
	require.NoError(t, err)

	var got TableEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "load", got.Source)
	assert.Equal(t, "Storage", got.Sheet)
	assert.Equal(t, []string{"Open"}, got.Table.Columns)
	assert.Equal(t, 2, got.Table.Count)

	data, err = q.Next(ctx, ColumnSubject("tables", "Open"))
	require.NoError(t, err)

	var column ColumnEvent
	require.NoError(t, json.Unmarshal(data, &column))
	assert.Equal(t, "load", column.Source)
	assert.Equal(t, "Open", column.Column)
	assert.Equal(t, 2, column.Count)
	require.Len(t, column.Points, 2)
	assert.Equal(t, 2.5, *column.Points[1].Value)
}

func TestPublishTable_ColumnEventsKeepMissingCellsOut(t *testing.T) {
	table := sampleTable(t)
	table.Set(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "Diff", math.NaN())

	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	event := TableEvent{Source: "download", Symbol: "AAPL", Table: models.NewTableResponse(table)}
	require.NoError(t, PublishTable(context.Background(), q, "tables", event))
	assert.Equal(t, 1, q.Pending("tables"))
	assert.Equal(t, 1, q.Pending(ColumnSubject("tables", "Open")))
	assert.Equal(t, 1, q.Pending(ColumnSubject("tables", "Diff")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := q.Next(ctx, ColumnSubject("tables", "Diff"))
	require.NoError(t, err)

	var column ColumnEvent
	require.NoError(t, json.Unmarshal(data, &column))
	assert.Equal(t, "AAPL", column.Symbol)
	require.Len(t, column.Points, 1)
	assert.Nil(t, column.Points[0].Value, "NaN cells are published as null")
}

func TestPublishTable_IncompleteBatch(t *testing.T) {
	q := NewMemoryQueue()
	require.NoError(t, q.Close())

	event := TableEvent{Source: "load", Table: models.NewTableResponse(sampleTable(t))}
	assert.Error(t, PublishTable(context.Background(), q, "tables", event))
}

func TestColumnSubject(t *testing.T) {
	assert.Equal(t, "tables.columns.Open", ColumnSubject("tables", "Open"))
	assert.Equal(t, "tables.columns.Adj_Close", ColumnSubject("tables", "Adj Close"))
	assert.Equal(t, "tables.columns.a_b", ColumnSubject("tables", "a.b"))
}

func TestPublishTable_NilPublisher(t *testing.T) {
	assert.NoError(t, PublishTable(context.Background(), nil, "tables", TableEvent{}))
}

func TestPublishTable_EmptySubject(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	assert.Error(t, PublishTable(context.Background(), q, "", TableEvent{Source: "load"}))
}

func TestNewPublisher_Memory(t *testing.T) {
	p, err := NewPublisher(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, ok := p.(*MemoryQueue)
	assert.True(t, ok)
}

func TestNewPublisher_UnsupportedType(t *testing.T) {
	_, err := NewPublisher(config.QueueConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewPublisher_KafkaWithoutBrokers(t *testing.T) {
	_, err := NewPublisher(config.QueueConfig{Type: "kafka"})
	assert.Error(t, err)
}

func TestNewPublisher_KafkaFallsBackToURL(t *testing.T) {
	p, err := NewPublisher(config.QueueConfig{Type: "kafka", URL: "localhost:9092"})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	kq, ok := p.(*KafkaQueue)
	require.True(t, ok)
	assert.Equal(t, []string{"localhost:9092"}, kq.config.Brokers)
}
