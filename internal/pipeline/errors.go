package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/content-worker/internal/message"
	"github.com/shaiso/content-worker/internal/webhook"
)

// Kind — класс ошибки пайплайна.
type Kind int

const (
	KindUnexpected Kind = iota
	KindFormat
	KindConfig
	KindBusiness
	KindDelivery
	KindCanceled
)

// String возвращает метку класса для логов и метрик.
func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindConfig:
		return "config"
	case KindBusiness:
		return "business"
	case KindDelivery:
		return "delivery"
	case KindCanceled:
		return "canceled"
	default:
		return "unexpected"
	}
}

// Ошибки пайплайна.
var (
	// ErrWebhookNotConfigured — не задан URL обязательного webhook.
	ErrWebhookNotConfigured = errors.New("webhook url is not configured")

	// ErrBusiness — нарушено бизнес-правило; повтор даст тот же результат.
	ErrBusiness = errors.New("business rule violated")

	// ErrEmptyKeywords — crawler не вернул ключевых слов.
	ErrEmptyKeywords = fmt.Errorf("%w: keyword list is empty", ErrBusiness)

	// ErrKeywordNotResolved — ключевое слово не выбрано.
	ErrKeywordNotResolved = fmt.Errorf("%w: selected keyword not found", ErrBusiness)

	// ErrEmptyCandidates — hasCrawledItems=true, но crawledProducts пуст.
	ErrEmptyCandidates = fmt.Errorf("%w: crawledProducts list is empty", ErrBusiness)

	// ErrProductNotResolved — товар не выбран и не найден.
	ErrProductNotResolved = fmt.Errorf("%w: product not resolved", ErrBusiness)

	// ErrEmptyProductInfo — нечем описать товар для генерации.
	ErrEmptyProductInfo = fmt.Errorf("%w: product info is empty", ErrBusiness)

	// ErrEmptyContent — генерация не вернула контент.
	ErrEmptyContent = fmt.Errorf("%w: content generation returned nothing", ErrBusiness)

	// ErrStepPanic — шаг завершился panic.
	ErrStepPanic = errors.New("step panicked")
)

// StepError — ошибка шага пайплайна с классом.
type StepError struct {
	Step string
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf определяет класс ошибки.
func KindOf(err error) Kind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	var formatErr *message.FormatError

	switch {
	case errors.As(err, &formatErr):
		return KindFormat
	case errors.Is(err, ErrWebhookNotConfigured):
		return KindConfig
	case errors.Is(err, ErrBusiness):
		return KindBusiness
	case errors.Is(err, webhook.ErrDelivery):
		return KindDelivery
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindUnexpected
	}
}
