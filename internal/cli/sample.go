package cli

import (
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
)

// SampleWorkID — workId тестового запроса.
const SampleWorkID int64 = 99999

// SampleOptions — параметры тестового запроса.
type SampleOptions struct {
	// WebhookBase — общий префикс адресов webhook backend.
	WebhookBase string
	Secret      string
	SiteURL     string

	// Category — уровни категории через ">", до трёх.
	Category string

	// CrawledProducts — приложить собранные товары (ветка select_product).
	CrawledProducts bool
}

// DefaultSampleOptions возвращает параметры тестового запроса по умолчанию.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		WebhookBase: "http://localhost:8080/api/work/webhook",
		Secret:      "test-secret-123",
		SiteURL:     "https://www.coupang.com",
		Category:    "패션의류/잡화>남성패션>캐주얼상의",
	}
}

// SampleRequest собирает тестовый WorkItem.
func SampleRequest(opts SampleOptions) *domain.WorkItem {
	base := strings.TrimRight(opts.WebhookBase, "/")

	item := &domain.WorkItem{
		WorkID:               SampleWorkID,
		RecentTrendKeywords:  []string{"AI", "머신러닝"},
		RecentlyUsedProducts: []string{},
		WebhookSecret:        opts.Secret,
		WebhookURLs: domain.WebhookURLs{
			KeywordSelect:   base + "/keyword-select",
			ProductSelect:   base + "/product-select",
			ContentGenerate: base + "/content-generate",
			AirflowLog:      base + "/logs",
		},
		SiteURL:       opts.SiteURL,
		TrendCategory: parseCategory(opts.Category),
		IsTest:        true,
	}

	if opts.CrawledProducts {
		item.HasCrawledItems = true
		item.CrawledProducts = []domain.ProductCandidate{
			{
				Name:      "린넨 오버핏 반팔 셔츠",
				Code:      "7654321",
				DetailURL: opts.SiteURL + "/vp/products/7654321",
				ImageURL:  "https://thumbnail.example.com/7654321.jpg",
			},
			{
				Name:      "쿨링 기능성 반팔티",
				Code:      "1234567",
				DetailURL: opts.SiteURL + "/vp/products/1234567",
				ImageURL:  "https://thumbnail.example.com/1234567.jpg",
			},
		}
	}

	return item
}

func parseCategory(raw string) domain.TrendCategory {
	parts := strings.SplitN(raw, ">", 3)
	category := domain.TrendCategory{Category1: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		v := strings.TrimSpace(parts[1])
		category.Category2 = &v
	}
	if len(parts) > 2 {
		v := strings.TrimSpace(parts[2])
		category.Category3 = &v
	}
	return category
}
