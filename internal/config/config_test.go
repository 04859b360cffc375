package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RabbitMQ.Host)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, 1, cfg.RabbitMQ.Prefetch)
	assert.Equal(t, "content-generate-queue", cfg.RabbitMQ.Queue)
	assert.Equal(t, 600*time.Second, cfg.RabbitMQ.Heartbeat)
	assert.Equal(t, 300*time.Second, cfg.RabbitMQ.BlockedTimeout)
	assert.False(t, cfg.RabbitMQ.UseSSL)

	assert.Equal(t, 5*time.Second, cfg.Worker.RetryDelay)
	assert.Equal(t, 8083, cfg.Worker.Port)
	assert.Equal(t, 30*time.Second, cfg.Worker.WebhookTimeout)

	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RABBITMQ_HOST", "rabbit.internal")
	t.Setenv("RABBITMQ_PORT", "5671")
	t.Setenv("RABBITMQ_USE_SSL", "true")
	t.Setenv("RABBITMQ_PREFETCH", "3")
	t.Setenv("RABBITMQ_QUEUE", "custom-queue")
	t.Setenv("WORKER_RETRY_DELAY_SEC", "1")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("WORKER_LOG_LEVEL", "DEBUG")
	t.Setenv("WORKER_LOG_DIR", "/var/log/worker")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "rabbit.internal", cfg.RabbitMQ.Host)
	assert.Equal(t, 5671, cfg.RabbitMQ.Port)
	assert.True(t, cfg.RabbitMQ.UseSSL)
	assert.Equal(t, 3, cfg.RabbitMQ.Prefetch)
	assert.Equal(t, "custom-queue", cfg.RabbitMQ.Queue)
	assert.Equal(t, time.Second, cfg.Worker.RetryDelay)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "/var/log/worker", cfg.Log.Dir)
}

func TestLoad_LogLevelFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RABBITMQ_VHOST=content\nREDIS_ADDR=localhost:6379\n"), 0o600))

	// godotenv не перезаписывает уже заданные переменные
	t.Setenv("RABBITMQ_VHOST", "")
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("RABBITMQ_VHOST")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "content", cfg.RabbitMQ.Vhost)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("RABBITMQ_PREFETCH", "0")
	t.Setenv("WORKER_PORT", "70000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RABBITMQ_PREFETCH")
	assert.Contains(t, err.Error(), "WORKER_PORT")
}
