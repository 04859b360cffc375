// Package telemetry обеспечивает наблюдаемость воркера.
//
// Включает:
//   - logging.go — structured logging через slog (stdout + ротируемый файл)
//   - metrics.go — Prometheus метрики
//
// Метрики экспортируются на /metrics endpoint HTTP-сервера воркера.
package telemetry
