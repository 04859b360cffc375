package domain

import "time"

// Disposition — чем завершилась доставка сообщения для broker.
type Disposition string

const (
	// DispositionAck — сообщение подтверждено.
	DispositionAck Disposition = "ack"

	// DispositionReject — nack без возврата в очередь.
	DispositionReject Disposition = "reject"

	// DispositionAbandon — ни ack, ни nack: соединение потеряно или воркер остановлен.
	// Broker доставит сообщение повторно.
	DispositionAbandon Disposition = "abandon"
)

// String возвращает строковое представление Disposition.
func (d Disposition) String() string {
	return string(d)
}

// Execution — итог обработки одной доставки (для архива).
type Execution struct {
	// ID — execution ID из журнала. Пусто, если пайплайн не запускался.
	ID string

	// WorkID — 0, если сообщение не удалось декодировать.
	WorkID int64

	Status      ExecutionStatus
	Disposition Disposition

	// Error — текст ошибки (пусто при успехе).
	Error string

	Steps []StepRecord

	IsTest     bool
	FinishedAt time.Time
}

// Failed возвращает true, если выполнение завершилось ошибкой.
func (e *Execution) Failed() bool {
	return e.Status == ExecutionStatusFailed
}
