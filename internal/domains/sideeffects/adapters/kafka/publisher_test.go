package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublisherKeysByOrder(t *testing.T) {
	writer := &recordingWriter{}
	orderID := uuid.New()

	err := NewPublisher(writer).Publish(context.Background(), orderID.String(), domain.Envelope{
		EventType: "order.status_change",
		OrderID:   orderID,
		NewStatus: "repair",
	})
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, orderID.String(), string(msg.Key))
	var decoded domain.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "repair", decoded.NewStatus)
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
}

func TestPublisherReturnsWriterErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	err := NewPublisher(writer).Publish(context.Background(), "k", domain.Envelope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
