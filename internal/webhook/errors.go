package webhook

import (
	"errors"
	"fmt"
)

// ErrDelivery — webhook не доставлен (транспорт или не-2xx ответ).
var ErrDelivery = errors.New("webhook delivery failed")

// DeliveryError — ошибка доставки webhook.
//
// StatusCode = 0, если ответа не было (ошибка транспорта).
// Решение, фатальна ли ошибка, принимает вызывающий код.
type DeliveryError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("webhook %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("webhook %s: HTTP %d - %s", e.URL, e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDelivery}
	}
	return []error{ErrDelivery, e.Err}
}
