package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue — очередь запросов генерации контента.
const DefaultQueue = "content-generate-queue"

// queueDeclarer — часть *amqp.Channel, нужная для объявления очереди.
type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// DeclareQueue объявляет durable очередь. Повторный вызов безопасен.
func DeclareQueue(ch queueDeclarer, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}
