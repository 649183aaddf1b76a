package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   int
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed++
	return nil
}

func TestKafkaPublisher_PublishOrderEvent(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, zerolog.Nop())

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := publisher.PublishOrderEvent(context.Background(), OrderEvent{
		Type:           TypeOrderStatusChanged,
		OrderID:        "order-1",
		PreviousStatus: "Order Placed",
		CurrentStatus:  "shipped",
		ActorID:        "seller-a",
		OccurredAt:     occurred,
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, occurred, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TypeOrderStatusChanged, string(msg.Headers[0].Value))

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "shipped", decoded.CurrentStatus)
	assert.Equal(t, "seller-a", decoded.ActorID)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	publisher := newKafkaPublisher(writer, zerolog.Nop())

	err := publisher.PublishOrderEvent(context.Background(), OrderEvent{Type: TypeOrderCreated, OrderID: "o"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, zerolog.Nop())

	require.NoError(t, publisher.Close())
	require.NoError(t, publisher.Close())
	assert.Equal(t, 1, writer.closed)

	err := publisher.PublishOrderEvent(context.Background(), OrderEvent{Type: TypeOrderCreated, OrderID: "o"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestNopPublisher(t *testing.T) {
	publisher := NewNopPublisher()

	assert.NoError(t, publisher.PublishOrderEvent(context.Background(), OrderEvent{}))
	assert.NoError(t, publisher.Close())
}
