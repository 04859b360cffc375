package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReadinessChecker сообщает, готов ли воркер принимать сообщения.
// Реализуется *mq.Connection.
type ReadinessChecker interface {
	IsOpen() bool
}

// Handler — обработчик служебных endpoints.
type Handler struct {
	ready     ReadinessChecker
	gatherer  prometheus.Gatherer
	startedAt time.Time
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Ready ReadinessChecker

	// Gatherer — источник метрик для /metrics. nil — prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ready:     cfg.Ready,
		gatherer:  gatherer,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// HealthResponse — ответ /healthz и /readyz.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health сообщает, что процесс жив.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	Success(w, h.status("ok"))
}

// Ready сообщает, открыто ли соединение с broker.
// GET /readyz
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if h.ready == nil || !h.ready.IsOpen() {
		JSON(w, http.StatusServiceUnavailable, DataResponse{Data: h.status("not ready")})
		return
	}
	Success(w, h.status("ready"))
}

func (h *Handler) status(s string) HealthResponse {
	return HealthResponse{
		Status: s,
		Uptime: time.Since(h.startedAt).Truncate(time.Second).String(),
	}
}
