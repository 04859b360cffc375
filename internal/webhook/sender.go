package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SecretHeader — заголовок с секретом webhook.
const SecretHeader = "X-WEBHOOK-SECRET"

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 500
)

// Sender отправляет JSON webhooks на backend.
//
// Одна попытка на вызов: без retry и без ключа идемпотентности.
type Sender struct {
	client  *http.Client
	logger  *slog.Logger
	observe func(kind string, err error)
}

// Config — конфигурация Sender.
type Config struct {
	// Timeout — таймаут одного запроса (default: 30s).
	Timeout time.Duration

	// Client — HTTP клиент (опционально; Timeout тогда не применяется).
	Client *http.Client

	// Observe вызывается после каждой отправки (для метрик).
	Observe func(kind string, err error)

	Logger *slog.Logger
}

// NewSender создаёт Sender.
func NewSender(cfg Config) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sender{
		client:  client,
		logger:  logger,
		observe: cfg.Observe,
	}
}

// Send отправляет payload методом POST.
//
// kind — метка webhook для логов и метрик (keyword_select, product_select, ...).
// Заголовок X-WEBHOOK-SECRET добавляется, только если secret не пустой.
// Любой не-2xx ответ или ошибка транспорта возвращает *DeliveryError.
func (s *Sender) Send(ctx context.Context, kind, url, secret string, payload any) error {
	err := s.send(ctx, url, secret, payload)
	if s.observe != nil {
		s.observe(kind, err)
	}
	if err != nil {
		return err
	}

	s.logger.Debug("webhook sent", "kind", kind, "url", url)
	return nil
}

func (s *Sender) send(ctx context.Context, url, secret string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{URL: url, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return &DeliveryError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
		}
	}

	// Дочитываем тело, чтобы соединение вернулось в пул
	io.Copy(io.Discard, resp.Body)

	return nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
