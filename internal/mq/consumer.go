package mq

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/message"
	"github.com/shaiso/content-worker/internal/pipeline"
)

// recordTimeout — лимит на сохранение итога в архив.
const recordTimeout = 5 * time.Second

// Runner выполняет пайплайн для одного WorkItem.
type Runner interface {
	Run(ctx context.Context, item *domain.WorkItem) (*pipeline.ExecutionLog, error)
}

// Recorder сохраняет итог обработки доставки (опционально).
type Recorder interface {
	Save(ctx context.Context, exec *domain.Execution) error
}

// channelState — часть *amqp.Channel, по которой проверяется пригодность канала.
type channelState interface {
	IsClosed() bool
}

// deliverySource — часть *Connection, из которой Consumer читает очередь.
type deliverySource interface {
	Connect() error
	Queue() string
	Stop()
	consume() (<-chan amqp.Delivery, channelState, error)
}

// Consumer читает очередь по одной доставке и доводит каждую до ack, reject
// или abandon, прежде чем взять следующую.
type Consumer struct {
	source   deliverySource
	runner   Runner
	recorder Recorder
	logger   *slog.Logger

	onDisposition func(domain.Disposition)
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Runner — пайплайн (обязателен).
	Runner Runner

	// Recorder — архив выполнений (опционально).
	Recorder Recorder

	// OnDisposition вызывается после решения по каждой доставке (для метрик).
	OnDisposition func(domain.Disposition)

	Logger *slog.Logger
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	return newConsumer(conn, cfg)
}

func newConsumer(source deliverySource, cfg ConsumerConfig) *Consumer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		source:        source,
		runner:        cfg.Runner,
		recorder:      cfg.Recorder,
		onDisposition: cfg.OnDisposition,
		logger:        logger,
	}
}

// Run подключается, начинает потребление и обрабатывает доставки до отмены ctx
// или потери соединения.
//
// Отмена ctx — штатная остановка, возвращается nil. Потеря соединения
// возвращается как ошибка, для которой IsConnectionLoss == true.
// При выходе соединение всегда закрывается.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.source.Stop()

	if err := c.source.Connect(); err != nil {
		return lost("connect", err)
	}

	deliveries, state, err := c.source.consume()
	if err != nil {
		return err
	}

	c.logger.Info("consumer started", "queue", c.source.Queue())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "queue", c.source.Queue())
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return lost("deliveries stream closed", nil)
			}

			if _, err := c.Handle(ctx, d, state); err != nil {
				return err
			}
		}
	}
}

// Handle обрабатывает одну доставку и возвращает принятое решение.
//
// Ошибка возвращается только для потери соединения: в этом случае
// ни ack, ни nack не выполняются, и цикл потребления должен завершиться.
// Ошибки формата и пайплайна заканчиваются reject и ошибкой не считаются.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery, state channelState) (domain.Disposition, error) {
	logger := c.logger.With("delivery_tag", d.DeliveryTag, "redelivered", d.Redelivered)

	item, err := message.Decode(d.Body)
	if err != nil {
		logger.Error("invalid message, rejecting", "error", err, "kind", pipeline.KindFormat.String())

		exec := &domain.Execution{
			Status: domain.ExecutionStatusFailed,
			Error:  err.Error(),
		}
		return c.finish(ctx, logger, d, state, domain.DispositionReject, exec)
	}

	logger = logger.With("work_id", item.WorkID)

	execLog, runErr := c.run(ctx, logger, item)

	exec := &domain.Execution{
		WorkID: item.WorkID,
		IsTest: item.IsTest,
		Status: domain.ExecutionStatusSucceeded,
	}
	if execLog != nil {
		exec.ID = execLog.ID()
		exec.Steps = execLog.Records()
		exec.Status = execLog.Status()
	}
	if runErr != nil {
		exec.Status = domain.ExecutionStatusFailed
		exec.Error = runErr.Error()
	}

	switch {
	case state.IsClosed() || IsConnectionLoss(runErr):
		// Broker мог уже считать доставку потерянной
		logger.Warn("channel lost during processing, leaving message unacknowledged", "error", runErr)
		c.abandon(ctx, logger, exec)
		return domain.DispositionAbandon, lost("process delivery", runErr)

	case runErr != nil && ctx.Err() != nil:
		logger.Warn("worker stopping, leaving message for redelivery", "error", runErr)
		c.abandon(ctx, logger, exec)
		return domain.DispositionAbandon, nil

	case runErr != nil:
		logger.Error("pipeline failed, rejecting", "error", runErr, "kind", pipeline.KindOf(runErr).String())
		return c.finish(ctx, logger, d, state, domain.DispositionReject, exec)

	default:
		return c.finish(ctx, logger, d, state, domain.DispositionAck, exec)
	}
}

// run запускает пайплайн. Panic превращается в ошибку, и доставка
// отклоняется, а не возвращается в очередь бесконечно.
func (c *Consumer) run(ctx context.Context, logger *slog.Logger, item *domain.WorkItem) (execLog *pipeline.ExecutionLog, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPipelinePanic, r)
		}
	}()

	return c.runner.Run(ctx, item)
}

// finish подтверждает или отклоняет доставку и сохраняет итог.
// Закрытый канал делает ack/nack no-op: доставка остаётся за broker.
func (c *Consumer) finish(
	ctx context.Context,
	logger *slog.Logger,
	d amqp.Delivery,
	state channelState,
	disposition domain.Disposition,
	exec *domain.Execution,
) (domain.Disposition, error) {
	if state.IsClosed() {
		logger.Warn("channel closed, skipping settle", "disposition", disposition)
		c.abandon(ctx, logger, exec)
		return domain.DispositionAbandon, nil
	}

	if err := c.settle(logger, d, disposition); err != nil {
		c.abandon(ctx, logger, exec)
		return domain.DispositionAbandon, err
	}

	exec.Disposition = disposition
	c.observe(disposition)
	c.record(ctx, logger, exec)

	return disposition, nil
}

func (c *Consumer) abandon(ctx context.Context, logger *slog.Logger, exec *domain.Execution) {
	exec.Disposition = domain.DispositionAbandon
	c.observe(domain.DispositionAbandon)
	c.record(ctx, logger, exec)
}

// settle выполняет ack или nack без requeue.
func (c *Consumer) settle(logger *slog.Logger, d amqp.Delivery, disposition domain.Disposition) error {
	var err error
	switch disposition {
	case domain.DispositionAck:
		err = d.Ack(false)
	case domain.DispositionReject:
		err = d.Nack(false, false)
	default:
		return fmt.Errorf("unsupported disposition %q", disposition)
	}

	if err != nil {
		if IsConnectionLoss(err) {
			return lost(string(disposition), err)
		}
		return fmt.Errorf("%s delivery: %w", disposition, err)
	}

	logger.Info("delivery settled", "disposition", disposition)
	return nil
}

// record сохраняет итог в архив. Ошибки только логируются.
func (c *Consumer) record(ctx context.Context, logger *slog.Logger, exec *domain.Execution) {
	if c.recorder == nil {
		return
	}

	exec.FinishedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := c.recorder.Save(ctx, exec); err != nil {
		logger.Warn("failed to archive execution", "error", err)
	}
}

func (c *Consumer) observe(disposition domain.Disposition) {
	if c.onDisposition != nil {
		c.onDisposition(disposition)
	}
}
