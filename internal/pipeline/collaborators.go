package pipeline

import (
	"context"

	"github.com/shaiso/content-worker/internal/domain"
)

// KeywordCrawler собирает трендовые ключевые слова по категории.
type KeywordCrawler interface {
	CrawlKeywords(ctx context.Context, category domain.TrendCategory) ([]string, error)
}

// KeywordSelector выбирает одно ключевое слово, исключая недавние.
type KeywordSelector interface {
	SelectKeyword(ctx context.Context, keywords, exclude []string) (domain.KeywordSelection, error)
}

// ProductSelector выбирает товар из приложенных кандидатов.
type ProductSelector interface {
	SelectProduct(ctx context.Context, keyword string, candidates []domain.Product) (domain.Product, error)
}

// ProductFinder ищет товар на сайте по ключевому слову.
type ProductFinder interface {
	FindProduct(ctx context.Context, keyword, siteURL string, exclude []string) (domain.Product, error)
}

// ContentGenerator генерирует контент блога для товара.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req domain.ContentRequest) (domain.Content, error)
}

// Notifier отправляет webhook. Реализация: *webhook.Sender.
type Notifier interface {
	Send(ctx context.Context, kind, url, secret string, payload any) error
}
