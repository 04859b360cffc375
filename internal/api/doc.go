// Package api содержит служебный HTTP сервер воркера.
//
// Структура:
//   - handler.go    — Handler с DI (проверка готовности, gatherer метрик, logger)
//   - routes.go     — регистрация маршрутов
//   - middleware.go — middleware (logging, recovery)
//   - response.go   — унифицированные JSON-ответы
//
// Endpoints:
//   - GET /healthz — процесс жив
//   - GET /readyz  — соединение с RabbitMQ открыто
//   - GET /metrics — Prometheus
package api
