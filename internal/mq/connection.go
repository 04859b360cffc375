package mq

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Значения по умолчанию.
const (
	// Длинный heartbeat: шаги пайплайна (crawler, OpenAI) блокируют цикл надолго.
	DefaultHeartbeat         = 600 * time.Second
	DefaultBlockedTimeout    = 300 * time.Second
	DefaultConnectionTimeout = 30 * time.Second
	DefaultPrefetch          = 1
)

// Config — параметры подключения к RabbitMQ.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Vhost    string

	// UseTLS включает amqps.
	UseTLS bool

	// TLSConfig — настройки TLS (опционально; по умолчанию системные CA).
	TLSConfig *tls.Config

	// Queue — очередь запросов.
	Queue string

	// Prefetch — сколько неподтверждённых доставок broker выдаёт воркеру.
	Prefetch int

	// Heartbeat — интервал heartbeat (default: 600s).
	Heartbeat time.Duration

	// BlockedTimeout — сколько терпеть блокировку соединения broker'ом (default: 300s).
	BlockedTimeout time.Duration

	// ConnectionName — имя соединения в management UI.
	ConnectionName string
}

// URL собирает AMQP URI из параметров.
func (c Config) URL() string {
	scheme := "amqp"
	if c.UseTLS {
		scheme = "amqps"
	}

	vhost := c.Vhost
	if vhost == "" {
		vhost = "/"
	}

	return amqp.URI{
		Scheme:   scheme,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Vhost:    vhost,
	}.String()
}

// Connection — ConnectionManager: владеет соединением и каналом.
//
// Connect идемпотентен и защищён мьютексом. Переподключение после разрыва
// выполняет supervisor повторным вызовом Connect.
type Connection struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewConnection создаёт Connection без подключения.
func NewConnection(cfg Config, logger *slog.Logger) *Connection {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = DefaultPrefetch
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.BlockedTimeout <= 0 {
		cfg.BlockedTimeout = DefaultBlockedTimeout
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Connection{
		cfg:    cfg,
		logger: logger,
	}
}

// Queue возвращает имя очереди.
func (c *Connection) Queue() string {
	return c.cfg.Queue
}

// Connect устанавливает соединение, открывает канал, задаёт prefetch
// и объявляет очередь. Если соединение уже открыто — ничего не делает.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isOpenLocked() {
		return nil
	}

	// Полуоткрытое состояние после разрыва
	c.closeLocked()

	c.logger.Info("connecting to RabbitMQ",
		"host", c.cfg.Host,
		"port", c.cfg.Port,
		"queue", c.cfg.Queue,
		"tls", c.cfg.UseTLS,
	)

	props := amqp.NewConnectionProperties()
	if c.cfg.ConnectionName != "" {
		props.SetClientConnectionName(c.cfg.ConnectionName)
	}

	amqpCfg := amqp.Config{
		Heartbeat:  c.cfg.Heartbeat,
		Locale:     "en_US",
		Properties: props,
		Dial:       amqp.DefaultDial(DefaultConnectionTimeout),
	}
	if c.cfg.UseTLS {
		amqpCfg.TLSClientConfig = c.tlsConfig()
	}

	conn, err := amqp.DialConfig(c.cfg.URL(), amqpCfg)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	if err := DeclareQueue(ch, c.cfg.Queue); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.channel = ch

	go c.watchBlocked(conn)

	c.logger.Info("connected to RabbitMQ", "prefetch", c.cfg.Prefetch)
	return nil
}

func (c *Connection) tlsConfig() *tls.Config {
	if c.cfg.TLSConfig != nil {
		return c.cfg.TLSConfig
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: c.cfg.Host,
	}
}

// watchBlocked закрывает соединение, если broker блокирует его дольше BlockedTimeout
// (например, при flow control по памяти). Закрытие всплывает как потеря соединения.
func (c *Connection) watchBlocked(conn *amqp.Connection) {
	blockings := conn.NotifyBlocked(make(chan amqp.Blocking, 1))

	var timeout <-chan time.Time
	var timer *time.Timer

	for {
		select {
		case b, ok := <-blockings:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}

			if b.Active {
				c.logger.Warn("connection blocked by broker", "reason", b.Reason)
				if timer == nil {
					timer = time.NewTimer(c.cfg.BlockedTimeout)
					timeout = timer.C
				}
				continue
			}

			c.logger.Info("connection unblocked")
			if timer != nil {
				timer.Stop()
				timer, timeout = nil, nil
			}

		case <-timeout:
			c.logger.Error("connection blocked too long, closing", "timeout", c.cfg.BlockedTimeout)
			conn.Close()
			return
		}
	}
}

// Channel возвращает текущий канал (nil, если не подключено).
func (c *Connection) Channel() *amqp.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// consume начинает потребление очереди с ручным ack.
func (c *Connection) consume() (<-chan amqp.Delivery, channelState, error) {
	ch := c.Channel()
	if ch == nil {
		return nil, nil, lost("consume", nil)
	}

	deliveries, err := ch.Consume(
		c.cfg.Queue, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack (мы ack вручную)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, nil, lost("consume", err)
	}
	return deliveries, ch, nil
}

// IsOpen проверяет, открыты ли соединение и канал.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpenLocked()
}

func (c *Connection) isOpenLocked() bool {
	return c.conn != nil && !c.conn.IsClosed() &&
		c.channel != nil && !c.channel.IsClosed()
}

// Stop закрывает канал, затем соединение. Уже закрытые ресурсы пропускаются.
func (c *Connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil && c.channel == nil {
		return
	}

	c.closeLocked()
	c.logger.Info("RabbitMQ connection closed")
}

func (c *Connection) closeLocked() {
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Warn("close channel", "error", err)
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Warn("close connection", "error", err)
		}
	}

	c.channel = nil
	c.conn = nil
}

// String возвращает адрес без учётных данных (для логов).
func (c *Connection) String() string {
	return c.cfg.Host + ":" + strconv.Itoa(c.cfg.Port) + "/" + c.cfg.Queue
}
