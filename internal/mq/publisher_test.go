package mq

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/content-worker/internal/message"
)

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func TestPublish_PersistentJSONToQueue(t *testing.T) {
	item, err := message.Decode([]byte(validBody))
	require.NoError(t, err)

	pub := &fakePublisher{}
	id, err := publish(context.Background(), pub, DefaultQueue, item, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "", pub.exchange)
	assert.Equal(t, DefaultQueue, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, id, pub.msg.MessageId)
	assert.False(t, pub.msg.Timestamp.IsZero())

	decoded, err := message.Decode(pub.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, item, decoded)
}

func TestPublish_Error(t *testing.T) {
	item, err := message.Decode([]byte(validBody))
	require.NoError(t, err)

	pub := &fakePublisher{err: amqp.ErrClosed}
	_, err = publish(context.Background(), pub, DefaultQueue, item, slog.Default())

	require.Error(t, err)
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}
