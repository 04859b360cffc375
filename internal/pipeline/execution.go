package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/content-worker/internal/domain"
)

// ExecutionLog — журнал одного запуска пайплайна.
//
// Принадлежит одному запуску и не разделяется между горутинами.
// Записи только добавляются.
type ExecutionLog struct {
	id      string
	records []domain.StepRecord
	now     func() time.Time
}

// NewExecutionLog создаёт журнал с новым execution ID.
func NewExecutionLog(now func() time.Time) *ExecutionLog {
	if now == nil {
		now = time.Now
	}
	return &ExecutionLog{
		id:  uuid.NewString(),
		now: now,
	}
}

// ID возвращает идентификатор выполнения.
func (l *ExecutionLog) ID() string {
	return l.id
}

// Record добавляет запись о шаге.
func (l *ExecutionLog) Record(step string, status domain.StepStatus, message string, duration time.Duration) {
	l.records = append(l.records, domain.StepRecord{
		Step:            step,
		Status:          status,
		Message:         message,
		DurationSeconds: duration.Seconds(),
		Timestamp:       l.now().UTC(),
	})
}

// Records возвращает копию записей в порядке добавления.
func (l *ExecutionLog) Records() []domain.StepRecord {
	out := make([]domain.StepRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Status возвращает итог выполнения по журналу.
func (l *ExecutionLog) Status() domain.ExecutionStatus {
	for _, r := range l.records {
		if r.Status == domain.StepStatusFailed {
			return domain.ExecutionStatusFailed
		}
	}
	return domain.ExecutionStatusSucceeded
}
