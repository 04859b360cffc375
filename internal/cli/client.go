package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HealthResponse — ответ /healthz и /readyz (дублируется из api, CLI не импортирует internal/api).
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент служебных endpoints воркера.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт Client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Health возвращает состояние процесса.
func (c *Client) Health() (*HealthResponse, error) {
	var health HealthResponse
	_, err := c.get("/healthz", &health)
	return &health, err
}

// Ready возвращает состояние соединения с RabbitMQ.
// 503 не ошибка: ready=false.
func (c *Client) Ready() (*HealthResponse, bool, error) {
	var health HealthResponse
	status, err := c.get("/readyz", &health)
	if err != nil {
		return nil, false, err
	}
	return &health, status == http.StatusOK, nil
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) (int, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusServiceUnavailable {
		return resp.StatusCode, c.checkError(resp)
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(dr.Data, result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode data: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) checkError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
