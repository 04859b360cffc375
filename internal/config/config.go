// Package config загружает конфигурацию воркера из окружения и .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config — конфигурация воркера.
type Config struct {
	RabbitMQ RabbitMQConfig
	Worker   WorkerConfig
	Log      LogConfig
	OpenAI   OpenAIConfig
	Crawler  CrawlerConfig
	Redis    RedisConfig

	// DatabaseURL — архив выполнений. Пусто — архив выключен.
	DatabaseURL string
}

// RabbitMQConfig — подключение к broker.
type RabbitMQConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Vhost          string
	UseSSL         bool
	Prefetch       int
	Queue          string
	Heartbeat      time.Duration
	BlockedTimeout time.Duration
}

// WorkerConfig — параметры процесса воркера.
type WorkerConfig struct {
	RetryDelay     time.Duration
	Port           int
	WebhookTimeout time.Duration
}

// LogConfig — параметры логирования.
type LogConfig struct {
	Level  string
	Format string
	Dir    string
}

// OpenAIConfig — параметры LLM.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// CrawlerConfig — источники для chromedp.
type CrawlerConfig struct {
	// KeywordSourceURL — шаблон страницы трендов; {category} заменяется на уровни категории.
	KeywordSourceURL string
	KeywordSelector  string

	// ProductSearchPath — путь поиска на сайте; {keyword} заменяется на запрос.
	ProductSearchPath   string
	ProductItemSelector string

	PageTimeout time.Duration
}

// RedisConfig — кэш ключевых слов. Пустой Addr — кэш выключен.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Load читает .env (если есть) и переменные окружения.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// Без .env работаем только на переменных окружения
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		RabbitMQ: RabbitMQConfig{
			Host:           getEnv("RABBITMQ_HOST", "localhost"),
			Port:           getEnvAsInt("RABBITMQ_PORT", 5672),
			Username:       getEnv("RABBITMQ_USERNAME", "guest"),
			Password:       getEnv("RABBITMQ_PASSWORD", "guest"),
			Vhost:          getEnv("RABBITMQ_VHOST", "/"),
			UseSSL:         getEnvAsBool("RABBITMQ_USE_SSL", false),
			Prefetch:       getEnvAsInt("RABBITMQ_PREFETCH", 1),
			Queue:          getEnv("RABBITMQ_QUEUE", "content-generate-queue"),
			Heartbeat:      getEnvAsSeconds("RABBITMQ_HEARTBEAT_SEC", 600),
			BlockedTimeout: getEnvAsSeconds("RABBITMQ_BLOCKED_TIMEOUT_SEC", 300),
		},
		Worker: WorkerConfig{
			RetryDelay:     getEnvAsSeconds("WORKER_RETRY_DELAY_SEC", 5),
			Port:           getEnvAsInt("WORKER_PORT", 8083),
			WebhookTimeout: getEnvAsSeconds("WEBHOOK_TIMEOUT_SEC", 30),
		},
		Log: LogConfig{
			Level:  getEnv("WORKER_LOG_LEVEL", getEnv("LOG_LEVEL", "INFO")),
			Format: getEnv("LOG_FORMAT", "json"),
			Dir:    getEnv("WORKER_LOG_DIR", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Crawler: CrawlerConfig{
			KeywordSourceURL:    getEnv("KEYWORD_SOURCE_URL", "https://datalab.naver.com/shoppingInsight/sCategory.naver?cid={category}"),
			KeywordSelector:     getEnv("KEYWORD_SELECTOR", "ul.rank_top1000_list li a"),
			ProductSearchPath:   getEnv("PRODUCT_SEARCH_PATH", "/np/search?q={keyword}"),
			ProductItemSelector: getEnv("PRODUCT_ITEM_SELECTOR", "li.search-product"),
			PageTimeout:         getEnvAsSeconds("CRAWLER_PAGE_TIMEOUT_SEC", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsSeconds("KEYWORD_CACHE_TTL_SEC", 3600),
		},
		DatabaseURL: getEnv("DB_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, без которых воркер не запустится.
func (c *Config) Validate() error {
	var errs []error

	if c.RabbitMQ.Host == "" {
		errs = append(errs, errors.New("RABBITMQ_HOST is empty"))
	}
	if !validPort(c.RabbitMQ.Port) {
		errs = append(errs, fmt.Errorf("RABBITMQ_PORT out of range: %d", c.RabbitMQ.Port))
	}
	if c.RabbitMQ.Queue == "" {
		errs = append(errs, errors.New("RABBITMQ_QUEUE is empty"))
	}
	if c.RabbitMQ.Prefetch < 1 {
		errs = append(errs, fmt.Errorf("RABBITMQ_PREFETCH must be >= 1, got %d", c.RabbitMQ.Prefetch))
	}
	if !validPort(c.Worker.Port) {
		errs = append(errs, fmt.Errorf("WORKER_PORT out of range: %d", c.Worker.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port < 65536
}

// getEnv возвращает значение переменной или значение по умолчанию.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает переменную как int.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool принимает true/false/1/0 и т.п.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSeconds читает целое число секунд.
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
