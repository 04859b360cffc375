// Content Worker — генерирует контент по запросам из RabbitMQ.
//
// Worker:
//   - Получает запросы из content-generate-queue (prefetch 1, ручной ack)
//   - Собирает трендовые ключевые слова, выбирает ключевое слово и товар
//   - Генерирует контент и отправляет результаты на webhooks backend
//   - Переподключается к broker после потери соединения
//
// Служебный HTTP: /healthz, /readyz, /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/content-worker/internal/api"
	"github.com/shaiso/content-worker/internal/config"
	"github.com/shaiso/content-worker/internal/crawler"
	"github.com/shaiso/content-worker/internal/llm"
	"github.com/shaiso/content-worker/internal/mq"
	"github.com/shaiso/content-worker/internal/pipeline"
	"github.com/shaiso/content-worker/internal/repo"
	"github.com/shaiso/content-worker/internal/telemetry"
	"github.com/shaiso/content-worker/internal/webhook"
	"github.com/shaiso/content-worker/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "path to .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger, closeLog := telemetry.SetupLogger(telemetry.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.Log.Dir,
	})

	err = run(cfg, logger)
	if err != nil {
		logger.Error("content-worker failed", "error", err)
	}

	// Файл логов закрывается до os.Exit
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close log:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// run собирает зависимости и блокируется до сигнала завершения.
func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting content-worker", "queue", cfg.RabbitMQ.Queue)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// OpenAI
	llmClient, err := llm.NewClient(llm.Config{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.Model,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create OpenAI client: %w", err)
	}
	productSelector := llm.NewProductSelector(llmClient)

	// Headless Chrome
	browser := crawler.NewBrowser(cfg.Crawler.PageTimeout)
	defer browser.Close()

	var keywordCrawler pipeline.KeywordCrawler = crawler.NewKeywordCrawler(browser, crawler.KeywordConfig{
		URLTemplate: cfg.Crawler.KeywordSourceURL,
		Selector:    cfg.Crawler.KeywordSelector,
		Logger:      logger,
	})

	// Redis — опциональный кэш ключевых слов
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis not available, keyword cache will fall through", "error", err)
		}
		pingCancel()

		keywordCrawler = crawler.NewCachedCrawler(keywordCrawler, rdb, cfg.Redis.TTL, logger)
		logger.Info("keyword cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	sender := webhook.NewSender(webhook.Config{
		Timeout: cfg.Worker.WebhookTimeout,
		Observe: metrics.ObserveWebhook,
		Logger:  logger,
	})

	orchestrator := pipeline.New(pipeline.Config{
		Crawler:         keywordCrawler,
		KeywordSelector: llm.NewKeywordSelector(llmClient),
		ProductSelector: productSelector,
		ProductFinder: crawler.NewProductFinder(browser, crawler.FinderConfig{
			SearchPath:   cfg.Crawler.ProductSearchPath,
			ItemSelector: cfg.Crawler.ProductItemSelector,
			Selector:     productSelector,
			Logger:       logger,
		}),
		ContentGenerator: llm.NewContentGenerator(llmClient),
		Notifier:         sender,
		OnStep:           metrics.ObserveStep,
		Logger:           logger,
	})

	// PostgreSQL — опциональный архив выполнений
	var recorder mq.Recorder
	if cfg.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database not available, execution archive disabled", "error", err)
		} else {
			defer pool.Close()

			executions := repo.NewExecutionRepo(pool)
			if err := executions.EnsureSchema(ctx); err != nil {
				logger.Warn("failed to ensure archive schema", "error", err)
			}
			recorder = executions
			logger.Info("execution archive enabled")
		}
	}

	// RabbitMQ
	conn := mq.NewConnection(mq.Config{
		Host:           cfg.RabbitMQ.Host,
		Port:           cfg.RabbitMQ.Port,
		Username:       cfg.RabbitMQ.Username,
		Password:       cfg.RabbitMQ.Password,
		Vhost:          cfg.RabbitMQ.Vhost,
		UseTLS:         cfg.RabbitMQ.UseSSL,
		Queue:          cfg.RabbitMQ.Queue,
		Prefetch:       cfg.RabbitMQ.Prefetch,
		Heartbeat:      cfg.RabbitMQ.Heartbeat,
		BlockedTimeout: cfg.RabbitMQ.BlockedTimeout,
		ConnectionName: "content-worker",
	}, logger)
	defer conn.Stop()

	supervisor := worker.New(worker.Config{
		NewConsumer: func() worker.Consumer {
			return mq.NewConsumer(conn, mq.ConsumerConfig{
				Runner:        orchestrator,
				Recorder:      recorder,
				OnDisposition: metrics.ObserveDisposition,
				Logger:        logger,
			})
		},
		RetryDelay: cfg.Worker.RetryDelay,
		OnRestart:  metrics.ObserveRestart,
		Logger:     logger,
	})

	// HTTP: /healthz, /readyz, /metrics
	mux := http.NewServeMux()
	api.NewHandler(api.Config{
		Ready:    conn,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Блокируется до сигнала завершения
	if err := supervisor.Run(ctx); err != nil {
		logger.Error("supervisor stopped with error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("content-worker stopped")
	return nil
}
