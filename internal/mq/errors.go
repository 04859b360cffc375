package mq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrConnectionLost — соединение или канал с RabbitMQ непригодны.
	ErrConnectionLost = errors.New("rabbitmq connection lost")

	// ErrPipelinePanic — обработка доставки завершилась panic.
	ErrPipelinePanic = errors.New("pipeline panicked")
)

// IsConnectionLoss проверяет, относится ли ошибка к потере соединения.
func IsConnectionLoss(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionLost) || errors.Is(err, amqp.ErrClosed) {
		return true
	}
	var amqpErr *amqp.Error
	return errors.As(err, &amqpErr)
}

// lost помечает ошибку как потерю соединения.
func lost(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrConnectionLost)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrConnectionLost, err)
}
