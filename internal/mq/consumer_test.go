package mq

import (
	"context"
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/pipeline"
)

const validBody = `{
	"workId": 99999,
	"hasCrawledItems": false,
	"crawledProducts": [],
	"webhookSecret": "test-secret-123",
	"webhookUrls": {"keywordSelect": "k", "productSelect": "p", "contentGenerate": "c", "airflowLog": "l"},
	"siteUrl": "https://www.coupang.com",
	"trendCategory": {"category1": "A"},
	"isTest": true
}`

// fakeAcknowledger — in-memory amqp.Acknowledger.
type fakeAcknowledger struct {
	acks    int
	nacks   int
	rejects int
	requeue bool
	err     error
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acks++
	return f.err
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return f.err
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.rejects++
	f.requeue = requeue
	return f.err
}

func (f *fakeAcknowledger) settled() int {
	return f.acks + f.nacks + f.rejects
}

type fakeChannel struct {
	closed bool
}

func (f *fakeChannel) IsClosed() bool {
	return f.closed
}

type runnerFunc func(ctx context.Context, item *domain.WorkItem) (*pipeline.ExecutionLog, error)

func (f runnerFunc) Run(ctx context.Context, item *domain.WorkItem) (*pipeline.ExecutionLog, error) {
	return f(ctx, item)
}

type fakeRecorder struct {
	saved []*domain.Execution
	err   error
}

func (f *fakeRecorder) Save(_ context.Context, exec *domain.Execution) error {
	f.saved = append(f.saved, exec)
	return f.err
}

func succeeding(calls *int) Runner {
	return runnerFunc(func(_ context.Context, _ *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		*calls++
		log := pipeline.NewExecutionLog(nil)
		log.Record(pipeline.StepCrawler, domain.StepStatusStarted, "", 0)
		log.Record(pipeline.StepCrawler, domain.StepStatusCompleted, "3 keywords crawled", 0)
		return log, nil
	})
}

func failing(err error) Runner {
	return runnerFunc(func(_ context.Context, _ *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		log := pipeline.NewExecutionLog(nil)
		log.Record(pipeline.StepCrawler, domain.StepStatusStarted, "", 0)
		log.Record(pipeline.StepCrawler, domain.StepStatusFailed, err.Error(), 0)
		return log, &pipeline.StepError{Step: pipeline.StepCrawler, Kind: pipeline.KindOf(err), Err: err}
	})
}

func newTestConsumer(runner Runner, recorder Recorder, dispositions *[]domain.Disposition) *Consumer {
	cfg := ConsumerConfig{
		Runner:   runner,
		Recorder: recorder,
		OnDisposition: func(d domain.Disposition) {
			*dispositions = append(*dispositions, d)
		},
	}
	return NewConsumer(nil, cfg)
}

func delivery(body string, ack amqp.Acknowledger) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestHandle_SuccessAcks(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	recorder := &fakeRecorder{}
	ack := &fakeAcknowledger{}

	c := newTestConsumer(succeeding(&calls), recorder, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionAck, disposition)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 1, ack.settled())
	assert.Equal(t, []domain.Disposition{domain.DispositionAck}, dispositions)

	require.Len(t, recorder.saved, 1)
	exec := recorder.saved[0]
	assert.Equal(t, int64(99999), exec.WorkID)
	assert.Equal(t, domain.ExecutionStatusSucceeded, exec.Status)
	assert.Equal(t, domain.DispositionAck, exec.Disposition)
	assert.NotEmpty(t, exec.ID)
	assert.Len(t, exec.Steps, 2)
	assert.True(t, exec.IsTest)
}

func TestHandle_MalformedBodyRejectsWithoutRequeue(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{requeue: true}

	c := newTestConsumer(succeeding(&calls), nil, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(`{"workId": 1,`, ack), &fakeChannel{})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionReject, disposition)
	assert.Zero(t, calls)
	assert.Equal(t, 1, ack.nacks)
	assert.False(t, ack.requeue)
	assert.Zero(t, ack.acks)
}

func TestHandle_MissingFieldRejects(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	recorder := &fakeRecorder{}
	ack := &fakeAcknowledger{}

	c := newTestConsumer(succeeding(&calls), recorder, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(`{"workId": 1}`, ack), &fakeChannel{})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionReject, disposition)
	assert.Zero(t, calls)

	require.Len(t, recorder.saved, 1)
	assert.True(t, recorder.saved[0].Failed())
	assert.Empty(t, recorder.saved[0].ID)
}

func TestHandle_PipelineErrorsReject(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"business", pipeline.ErrEmptyKeywords},
		{"config", fmt.Errorf("%w: product_select", pipeline.ErrWebhookNotConfigured)},
		{"unexpected", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dispositions []domain.Disposition
			recorder := &fakeRecorder{}
			ack := &fakeAcknowledger{}

			c := newTestConsumer(failing(tt.err), recorder, &dispositions)

			disposition, err := c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})
			require.NoError(t, err)

			assert.Equal(t, domain.DispositionReject, disposition)
			assert.Equal(t, 1, ack.nacks)
			assert.False(t, ack.requeue)
			assert.Equal(t, 1, ack.settled())

			require.Len(t, recorder.saved, 1)
			assert.Equal(t, domain.ExecutionStatusFailed, recorder.saved[0].Status)
			assert.Contains(t, recorder.saved[0].Error, tt.err.Error())
		})
	}
}

func TestHandle_ChannelClosedDuringProcessingAbandons(t *testing.T) {
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}
	ch := &fakeChannel{}

	runner := runnerFunc(func(_ context.Context, _ *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		ch.closed = true
		return pipeline.NewExecutionLog(nil), nil
	})
	c := newTestConsumer(runner, nil, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(validBody, ack), ch)

	require.Error(t, err)
	assert.True(t, IsConnectionLoss(err))
	assert.Equal(t, domain.DispositionAbandon, disposition)
	assert.Zero(t, ack.settled())
	assert.Equal(t, []domain.Disposition{domain.DispositionAbandon}, dispositions)
}

func TestHandle_ConnectionLossFromPipelineAbandons(t *testing.T) {
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}

	c := newTestConsumer(failing(amqp.ErrClosed), nil, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})

	assert.True(t, IsConnectionLoss(err))
	assert.Equal(t, domain.DispositionAbandon, disposition)
	assert.Zero(t, ack.settled())
}

func TestHandle_AckFailureIsConnectionLoss(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{err: amqp.ErrClosed}

	c := newTestConsumer(succeeding(&calls), nil, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})

	require.Error(t, err)
	assert.True(t, IsConnectionLoss(err))
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.Equal(t, domain.DispositionAbandon, disposition)
}

func TestHandle_ClosedChannelMakesSettleNoop(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}

	c := newTestConsumer(succeeding(&calls), nil, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(`not json`, ack), &fakeChannel{closed: true})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionAbandon, disposition)
	assert.Zero(t, ack.settled())
}

func TestHandle_ShutdownDuringRunAbandons(t *testing.T) {
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}

	ctx, cancel := context.WithCancel(context.Background())
	runner := runnerFunc(func(ctx context.Context, _ *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		cancel()
		return pipeline.NewExecutionLog(nil), ctx.Err()
	})
	c := newTestConsumer(runner, nil, &dispositions)

	disposition, err := c.Handle(ctx, delivery(validBody, ack), &fakeChannel{})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionAbandon, disposition)
	assert.Zero(t, ack.settled())
}

func TestHandle_RecorderFailureKeepsDisposition(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}
	recorder := &fakeRecorder{err: errors.New("db down")}

	c := newTestConsumer(succeeding(&calls), recorder, &dispositions)

	disposition, err := c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})
	require.NoError(t, err)

	assert.Equal(t, domain.DispositionAck, disposition)
	assert.Equal(t, 1, ack.acks)
	assert.Len(t, recorder.saved, 1)
}

func TestIsConnectionLoss(t *testing.T) {
	assert.False(t, IsConnectionLoss(nil))
	assert.False(t, IsConnectionLoss(errors.New("boom")))
	assert.False(t, IsConnectionLoss(pipeline.ErrEmptyKeywords))

	assert.True(t, IsConnectionLoss(ErrConnectionLost))
	assert.True(t, IsConnectionLoss(amqp.ErrClosed))
	assert.True(t, IsConnectionLoss(fmt.Errorf("ack: %w", amqp.ErrClosed)))
	assert.True(t, IsConnectionLoss(&amqp.Error{Code: amqp.ConnectionForced, Reason: "shutdown"}))
	assert.True(t, IsConnectionLoss(lost("consume", nil)))
}

func TestConfig_URL(t *testing.T) {
	cfg := Config{Host: "rabbit", Port: 5672, Username: "worker", Password: "p@ss"}

	uri, err := amqp.ParseURI(cfg.URL())
	require.NoError(t, err)
	assert.Equal(t, "amqp", uri.Scheme)
	assert.Equal(t, "rabbit", uri.Host)
	assert.Equal(t, 5672, uri.Port)
	assert.Equal(t, "worker", uri.Username)
	assert.Equal(t, "p@ss", uri.Password)
	assert.Equal(t, "/", uri.Vhost)

	cfg.UseTLS = true
	cfg.Port = 5671
	cfg.Vhost = "content"

	uri, err = amqp.ParseURI(cfg.URL())
	require.NoError(t, err)
	assert.Equal(t, "amqps", uri.Scheme)
	assert.Equal(t, 5671, uri.Port)
	assert.Equal(t, "content", uri.Vhost)
}

func TestNewConnection_Defaults(t *testing.T) {
	conn := NewConnection(Config{}, nil)

	assert.Equal(t, DefaultQueue, conn.Queue())
	assert.Equal(t, DefaultPrefetch, conn.cfg.Prefetch)
	assert.Equal(t, DefaultHeartbeat, conn.cfg.Heartbeat)
	assert.Equal(t, DefaultBlockedTimeout, conn.cfg.BlockedTimeout)
	assert.False(t, conn.IsOpen())
	assert.Nil(t, conn.Channel())

	// Stop без Connect безопасен
	conn.Stop()
}

type fakeDeclarer struct {
	name    string
	durable bool
}

func (f *fakeDeclarer) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.name = name
	f.durable = durable
	return amqp.Queue{Name: name}, nil
}

func TestDeclareQueue_Durable(t *testing.T) {
	d := &fakeDeclarer{}
	require.NoError(t, DeclareQueue(d, DefaultQueue))

	assert.Equal(t, DefaultQueue, d.name)
	assert.True(t, d.durable)
}

func TestHandle_RunnerPanicRejects(t *testing.T) {
	var dispositions []domain.Disposition
	ack := &fakeAcknowledger{}
	recorder := &fakeRecorder{}
	runner := runnerFunc(func(context.Context, *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		panic("collaborator bug")
	})
	c := newTestConsumer(runner, recorder, &dispositions)

	var got domain.Disposition
	var err error
	require.NotPanics(t, func() {
		got, err = c.Handle(context.Background(), delivery(validBody, ack), &fakeChannel{})
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DispositionReject, got)
	assert.Equal(t, 1, ack.nacks)
	assert.Equal(t, 1, ack.settled())
	assert.False(t, ack.requeue)
	assert.Equal(t, []domain.Disposition{domain.DispositionReject}, dispositions)

	require.Len(t, recorder.saved, 1)
	assert.Contains(t, recorder.saved[0].Error, "collaborator bug")
}

// fakeSource — очередь в памяти вместо *Connection.
type fakeSource struct {
	deliveries chan amqp.Delivery
	state      *fakeChannel
	connectErr error
	consumeErr error
	stops      int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		deliveries: make(chan amqp.Delivery),
		state:      &fakeChannel{},
	}
}

func (f *fakeSource) Connect() error { return f.connectErr }
func (f *fakeSource) Queue() string  { return DefaultQueue }
func (f *fakeSource) Stop()          { f.stops++ }

func (f *fakeSource) consume() (<-chan amqp.Delivery, channelState, error) {
	if f.consumeErr != nil {
		return nil, nil, f.consumeErr
	}
	return f.deliveries, f.state, nil
}

func TestRun_ClosedStreamIsConnectionLoss(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	source := newFakeSource()
	c := newConsumer(source, ConsumerConfig{
		Runner:        succeeding(&calls),
		OnDisposition: func(d domain.Disposition) { dispositions = append(dispositions, d) },
	})

	close(source.deliveries)
	err := c.Run(context.Background())

	assert.True(t, IsConnectionLoss(err))
	assert.ErrorIs(t, err, ErrConnectionLost)
	assert.Zero(t, calls)
	assert.Empty(t, dispositions)
	assert.Equal(t, 1, source.stops)
}

func TestRun_CancelReturnsNil(t *testing.T) {
	var calls int
	source := newFakeSource()
	c := newConsumer(source, ConsumerConfig{Runner: succeeding(&calls)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, c.Run(ctx))
	assert.Zero(t, calls)
	assert.Equal(t, 1, source.stops)
}

func TestRun_ConnectAndConsumeErrorsStop(t *testing.T) {
	var calls int

	source := newFakeSource()
	source.connectErr = errors.New("dial tcp: connection refused")
	err := newConsumer(source, ConsumerConfig{Runner: succeeding(&calls)}).Run(context.Background())
	assert.True(t, IsConnectionLoss(err))
	assert.Equal(t, 1, source.stops)

	source = newFakeSource()
	source.consumeErr = lost("consume", amqp.ErrClosed)
	err = newConsumer(source, ConsumerConfig{Runner: succeeding(&calls)}).Run(context.Background())
	assert.True(t, IsConnectionLoss(err))
	assert.Equal(t, 1, source.stops)
}

func TestRun_ProcessesOneDeliveryAtATime(t *testing.T) {
	source := newFakeSource()
	acks := make([]*fakeAcknowledger, 3)
	for i := range acks {
		acks[i] = &fakeAcknowledger{}
	}

	var inFlight, maxInFlight, handled int
	runner := runnerFunc(func(context.Context, *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		handled++
		inFlight--
		return pipeline.NewExecutionLog(nil), nil
	})
	c := newConsumer(source, ConsumerConfig{Runner: runner})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	// Небуферизованный канал: следующая отправка проходит только после
	// того, как цикл закончил предыдущую доставку
	for _, ack := range acks {
		source.deliveries <- delivery(validBody, ack)
	}
	close(source.deliveries)

	err := <-done
	assert.True(t, IsConnectionLoss(err))
	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, maxInFlight)
	for _, ack := range acks {
		assert.Equal(t, 1, ack.acks)
	}
	assert.Equal(t, 1, source.stops)
}

func TestRun_ChannelClosedDuringProcessingStops(t *testing.T) {
	source := newFakeSource()
	ack := &fakeAcknowledger{}
	runner := runnerFunc(func(context.Context, *domain.WorkItem) (*pipeline.ExecutionLog, error) {
		source.state.closed = true
		return pipeline.NewExecutionLog(nil), nil
	})
	c := newConsumer(source, ConsumerConfig{Runner: runner})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	source.deliveries <- delivery(validBody, ack)

	err := <-done
	assert.True(t, IsConnectionLoss(err))
	assert.Zero(t, ack.settled())
	assert.Equal(t, 1, source.stops)
}

func TestHandle_RedeliveryArchivedAsNewAttempt(t *testing.T) {
	var calls int
	var dispositions []domain.Disposition
	recorder := &fakeRecorder{}
	c := newTestConsumer(succeeding(&calls), recorder, &dispositions)

	first := delivery(validBody, &fakeAcknowledger{})
	again := delivery(validBody, &fakeAcknowledger{})
	again.Redelivered = true

	_, err := c.Handle(context.Background(), first, &fakeChannel{})
	require.NoError(t, err)
	_, err = c.Handle(context.Background(), again, &fakeChannel{})
	require.NoError(t, err)

	require.Len(t, recorder.saved, 2)
	assert.Equal(t, recorder.saved[0].WorkID, recorder.saved[1].WorkID)
	assert.NotEqual(t, recorder.saved[0].ID, recorder.saved[1].ID)
}
