package domain

// StepStatus — статус записи шага пайплайна.
//
// Жизненный цикл одного шага:
//
//	started → completed
//	        ↘ failed
type StepStatus string

const (
	// StepStatusStarted — шаг начал выполняться.
	StepStatusStarted StepStatus = "started"

	// StepStatusCompleted — шаг успешно завершён.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed — шаг завершился ошибкой, пайплайн остановлен.
	StepStatusFailed StepStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный для шага.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed:
		return true
	default:
		return false
	}
}

// ExecutionStatus — итог выполнения пайплайна для одного WorkItem.
type ExecutionStatus string

const (
	// ExecutionStatusSucceeded — все шаги и обязательные webhooks выполнены.
	ExecutionStatusSucceeded ExecutionStatus = "SUCCEEDED"

	// ExecutionStatusFailed — пайплайн прерван на одном из шагов.
	ExecutionStatusFailed ExecutionStatus = "FAILED"
)

// String возвращает строковое представление ExecutionStatus.
func (s ExecutionStatus) String() string {
	return string(s)
}
