package worker

import "errors"

// Ошибки воркера.
var (
	// ErrConsumerPanic — consumer завершился паникой.
	ErrConsumerPanic = errors.New("consumer panicked")
)
