package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes multiple messages and waits for all to complete.
	// Returns the number of successfully published messages.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// TableEvent is the payload published whenever the current table changes.
type TableEvent struct {
	Source string               `json:"source"`
	Sheet  string               `json:"sheet,omitempty"`
	Symbol string               `json:"symbol,omitempty"`
	Table  models.TableResponse `json:"table"`
}

// ColumnEvent carries one column of a published table.
type ColumnEvent struct {
	Source string `json:"source"`
	Sheet  string `json:"sheet,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	models.ColumnResponse
}

// ColumnSubject is the subject a column of a table published on subject goes to.
func ColumnSubject(subject, column string) string {
	return subject + ".columns." + sanitize(column)
}

// PublishTable publishes the TableEvent on subject and one ColumnEvent per
// column on ColumnSubject, as a single batch.
func PublishTable(ctx context.Context, p Publisher, subject string, event TableEvent) error {
	if p == nil {
		return nil
	}
	if subject == "" {
		return fmt.Errorf("queue subject is empty")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode table event: %w", err)
	}
	messages := []BatchMessage{{Subject: subject, Data: data}}

	for _, column := range columnEvents(event) {
		data, err := json.Marshal(column)
		if err != nil {
			return fmt.Errorf("failed to encode column %s: %w", column.Column, err)
		}
		messages = append(messages, BatchMessage{Subject: ColumnSubject(subject, column.Column), Data: data})
	}

	ctx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	n, err := p.PublishBatch(ctx, messages)
	if err != nil {
		return err
	}
	if n < len(messages) {
		return fmt.Errorf("published %d of %d messages to %s", n, len(messages), subject)
	}
	return nil
}

func columnEvents(event TableEvent) []ColumnEvent {
	out := make([]ColumnEvent, len(event.Table.Columns))
	for i, column := range event.Table.Columns {
		out[i] = ColumnEvent{Source: event.Source, Sheet: event.Sheet, Symbol: event.Symbol}
		out[i].Column = column
		out[i].Points = []models.PointView{}
	}
	for _, row := range event.Table.Rows {
		for i := range out {
			if v, ok := row.Values[out[i].Column]; ok {
				out[i].Points = append(out[i].Points, models.PointView{Time: row.Time, Value: v})
			}
		}
	}
	for i := range out {
		out[i].Count = len(out[i].Points)
	}
	return out
}

// sanitize maps a name onto the characters every backend accepts in
// subjects and stream names: A-Z, a-z, 0-9, dash and underscore.
func sanitize(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
