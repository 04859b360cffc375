package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/message"
)

// channelPublisher — часть *amqp.Channel, нужная для публикации.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует запросы генерации в очередь (для CLI и ручных проверок).
// Сам воркер ничего не публикует.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// PublishRequest кодирует WorkItem и публикует его persistent-сообщением
// в default exchange с routing key = имя очереди. Возвращает MessageId.
func (p *Publisher) PublishRequest(ctx context.Context, item *domain.WorkItem) (string, error) {
	if err := p.conn.Connect(); err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return "", lost("publish", nil)
	}

	return publish(ctx, ch, p.conn.Queue(), item, p.logger)
}

func publish(ctx context.Context, ch channelPublisher, queue string, item *domain.WorkItem, logger *slog.Logger) (string, error) {
	body, err := message.Encode(item)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	id := uuid.NewString()

	err = ch.PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
			MessageId:    id,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", queue, err)
	}

	logger.Debug("published request",
		"queue", queue,
		"message_id", id,
		"work_id", item.WorkID,
	)

	return id, nil
}
