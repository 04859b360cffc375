package webhook

import (
	"time"

	"github.com/shaiso/content-worker/internal/domain"
)

// KeywordSelectPayload — результат выбора ключевого слова.
type KeywordSelectPayload struct {
	WorkID      int64     `json:"workId"`
	Keyword     string    `json:"keyword"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// ProductSelectPayload — результат выбора/поиска товара.
type ProductSelectPayload struct {
	WorkID      int64          `json:"workId"`
	Success     bool           `json:"success"`
	CompletedAt time.Time      `json:"completedAt"`
	Product     ProductPayload `json:"product"`
}

// ProductPayload — товар в payload webhook.
type ProductPayload struct {
	ProductCode  string `json:"productCode"`
	ProductName  string `json:"productName"`
	ProductPrice *int64 `json:"productPrice"`
	ProductURL   string `json:"productUrl"`
	ImageURL     string `json:"imageUrl"`
	Mall         string `json:"mall"`
}

// ContentGeneratePayload — сгенерированный контент.
type ContentGeneratePayload struct {
	WorkID      int64     `json:"workId"`
	Success     bool      `json:"success"`
	CompletedAt time.Time `json:"completedAt"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
}

// LogPayload — журнал выполнения пайплайна.
type LogPayload struct {
	WorkID      int64               `json:"workId"`
	ExecutionID string              `json:"executionId"`
	Logs        []domain.StepRecord `json:"logs"`
	CompletedAt time.Time           `json:"completedAt"`
}

// NewKeywordSelectPayload собирает payload выбора ключевого слова.
func NewKeywordSelectPayload(workID int64, sel domain.KeywordSelection) KeywordSelectPayload {
	return KeywordSelectPayload{
		WorkID:      workID,
		Keyword:     sel.Keyword,
		Success:     true,
		Message:     sel.Reason,
		StartedAt:   sel.StartedAt,
		CompletedAt: sel.CompletedAt,
	}
}

// NewProductSelectPayload собирает payload товара.
// Если у товара нет сайта, используется siteURL работы.
func NewProductSelectPayload(workID int64, p domain.Product, siteURL string, now time.Time) ProductSelectPayload {
	mall := p.SiteName
	if mall == "" {
		mall = siteURL
	}

	return ProductSelectPayload{
		WorkID:      workID,
		Success:     true,
		CompletedAt: now,
		Product: ProductPayload{
			ProductCode:  p.ProductCode(),
			ProductName:  p.Name,
			ProductPrice: p.Price,
			ProductURL:   p.URL,
			ImageURL:     p.ImageURL,
			Mall:         mall,
		},
	}
}

// NewContentGeneratePayload собирает payload контента.
func NewContentGeneratePayload(workID int64, c domain.Content, now time.Time) ContentGeneratePayload {
	return ContentGeneratePayload{
		WorkID:      workID,
		Success:     true,
		CompletedAt: now,
		Title:       c.Title,
		Content:     c.HTML,
		Summary:     c.SummaryOrOutline(),
	}
}
