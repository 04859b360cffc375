package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/content-worker/internal/domain"
)

// Metrics — Prometheus метрики воркера.
type Metrics struct {
	deliveries *prometheus.CounterVec
	stepTime   *prometheus.HistogramVec
	webhooks   *prometheus.CounterVec
	restarts   *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg. nil — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_worker_deliveries_total",
			Help: "Deliveries processed by content_worker, by outcome (ack, reject, abandon)",
		}, []string{"outcome"}),

		stepTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "content_worker_pipeline_step_duration_seconds",
			Help:    "Duration of pipeline steps",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"step", "status"}),

		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_worker_webhook_requests_total",
			Help: "Outbound webhook requests, by kind and result",
		}, []string{"kind", "result"}),

		restarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_worker_restarts_total",
			Help: "Consumer restarts performed by the supervisor",
		}, []string{"reason"}),
	}
}

// ObserveDisposition учитывает решение по доставке.
func (m *Metrics) ObserveDisposition(d domain.Disposition) {
	m.deliveries.WithLabelValues(d.String()).Inc()
}

// ObserveStep учитывает длительность завершённого шага.
func (m *Metrics) ObserveStep(step string, status domain.StepStatus, duration time.Duration) {
	m.stepTime.WithLabelValues(step, string(status)).Observe(duration.Seconds())
}

// ObserveWebhook учитывает отправку webhook.
func (m *Metrics) ObserveWebhook(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.webhooks.WithLabelValues(kind, result).Inc()
}

// ObserveRestart учитывает перезапуск consumer.
func (m *Metrics) ObserveRestart(reason string) {
	m.restarts.WithLabelValues(reason).Inc()
}
