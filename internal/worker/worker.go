package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shaiso/content-worker/internal/mq"
)

// Default configuration values.
const (
	defaultRetryDelay = 5 * time.Second
)

// Метки причин перезапуска для метрик.
const (
	ReasonConnectionLost = "connection_lost"
	ReasonUnexpected     = "unexpected"
)

// Consumer — один сеанс потребления. Run блокируется до остановки или сбоя.
type Consumer interface {
	Run(ctx context.Context) error
}

// Supervisor держит воркер запущенным.
//
// Каждая итерация создаёт новый consumer и ждёт его завершения:
//   - отмена ctx — выход без переподключения
//   - nil от consumer — намеренная остановка, выход
//   - потеря соединения — Warn, пауза, перезапуск
//   - любая другая ошибка или panic — Error, пауза, перезапуск
type Supervisor struct {
	newConsumer func() Consumer
	retryDelay  time.Duration
	onRestart   func(reason string)

	logger *slog.Logger

	stopped   bool
	stoppedMu sync.RWMutex
}

// Config — конфигурация Supervisor.
type Config struct {
	// NewConsumer создаёт consumer для очередной итерации (обязателен).
	NewConsumer func() Consumer

	// RetryDelay — пауза перед перезапуском (default: 5s).
	RetryDelay time.Duration

	// OnRestart вызывается перед каждым перезапуском (для метрик).
	OnRestart func(reason string)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Supervisor.
func New(cfg Config) *Supervisor {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		newConsumer: cfg.NewConsumer,
		retryDelay:  retryDelay,
		onRestart:   cfg.OnRestart,
		logger:      logger,
	}
}

// Run выполняет цикл супервизора до отмены ctx или штатного завершения consumer.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.markStopped()

	s.logger.Info("worker started", "retry_delay", s.retryDelay)

	for attempt := 1; ; attempt++ {
		err := s.runOnce(ctx)

		if ctx.Err() != nil {
			s.logger.Info("worker stopped")
			return nil
		}

		if err == nil {
			s.logger.Info("consumer returned, worker stopped")
			return nil
		}

		reason := ReasonUnexpected
		if mq.IsConnectionLoss(err) {
			reason = ReasonConnectionLost
			s.logger.Warn("connection lost, restarting consumer",
				"error", err,
				"attempt", attempt,
				"retry_in", s.retryDelay,
			)
		} else {
			s.logger.Error("unexpected consumer error, restarting",
				"error", err,
				"attempt", attempt,
				"retry_in", s.retryDelay,
			)
		}

		if s.onRestart != nil {
			s.onRestart(reason)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("worker stopped")
			return nil
		case <-time.After(s.retryDelay):
		}
	}
}

// runOnce запускает один consumer. Panic превращается в ошибку.
func (s *Supervisor) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered",
				"error", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", ErrConsumerPanic, r)
		}
	}()

	return s.newConsumer().Run(ctx)
}

func (s *Supervisor) markStopped() {
	s.stoppedMu.Lock()
	s.stopped = true
	s.stoppedMu.Unlock()
}

// IsStopped проверяет, завершён ли цикл супервизора.
func (s *Supervisor) IsStopped() bool {
	s.stoppedMu.RLock()
	defer s.stoppedMu.RUnlock()
	return s.stopped
}
