package domain

import "time"

// StepRecord — запись о шаге пайплайна в журнале выполнения.
// Только добавляется, после вставки не меняется.
type StepRecord struct {
	Step            string     `json:"step"`
	Status          StepStatus `json:"status"`
	Message         string     `json:"message"`
	DurationSeconds float64    `json:"durationSeconds"`
	Timestamp       time.Time  `json:"timestamp"`
}
