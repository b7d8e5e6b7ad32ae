package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func testEvent() domain.Event {
	return domain.NewEvent(domain.EventTypeCreated, &domain.Patent{
		ID:        42,
		Title:     "Optical sensor array",
		ClientIDs: []int64{7},
	}, "admin-1")
}

func TestPublisherWritesKeyedMessage(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &Publisher{writer: w, logger: logging.NewNopLogger()}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "42", string(msg.Key))

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, domain.EventTypeCreated, decoded.Type)
	assert.Equal(t, int64(42), decoded.PatentID)

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, domain.EventTypeCreated, string(msg.Headers[0].Value))
}

func TestPublisherClosedRejectsPublish(t *testing.T) {
	t.Parallel()

	p := &Publisher{writer: &fakeWriter{}, logger: logging.NewNopLogger()}
	require.NoError(t, p.Close())
	assert.Error(t, p.Publish(context.Background(), testEvent()))
}
