package message

import (
	"errors"
	"fmt"
)

// ErrMissingField — в сообщении отсутствует обязательное поле.
var ErrMissingField = errors.New("missing required field")

// FormatError — сообщение некорректно или неполно.
// Повторная доставка не поможет, сообщение отклоняется без requeue.
type FormatError struct {
	// Key — путь к проблемному полю (например, "webhookUrls.keywordSelect").
	Key string

	// Err — исходная ошибка.
	Err error
}

func (e *FormatError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid message: %v", e.Err)
	}
	return fmt.Sprintf("invalid message field %q: %v", e.Key, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func missing(key string) *FormatError {
	return &FormatError{Key: key, Err: ErrMissingField}
}
