package message

import (
	"github.com/shaiso/content-worker/internal/domain"
)

// requestDTO — входящее сообщение в wire-формате.
// Указатели отличают отсутствующее поле от нулевого значения.
type requestDTO struct {
	WorkID               *int64         `json:"workId"`
	HasCrawledItems      *bool          `json:"hasCrawledItems"`
	RecentTrendKeywords  []any          `json:"recentTrendKeywords"`
	CrawledProducts      []productDTO   `json:"crawledProducts"`
	RecentlyUsedProducts []string       `json:"recentlyUsedProducts"`
	WebhookSecret        *string        `json:"webhookSecret"`
	WebhookURLs          *webhookURLDTO `json:"webhookUrls"`
	SiteURL              *string        `json:"siteUrl"`
	TrendCategory        *categoryDTO   `json:"trendCategory"`
	IsTest               *bool          `json:"isTest"`
}

type productDTO struct {
	ProductID        *int64  `json:"productId"`
	ProductName      *string `json:"productName"`
	ProductCode      *string `json:"productCode"`
	ProductDetailURL *string `json:"productDetailUrl"`
	ProductPrice     *int64  `json:"productPrice"`
	ProductImageURL  *string `json:"productImageUrl"`
}

type webhookURLDTO struct {
	KeywordSelect   *string `json:"keywordSelect"`
	ProductSelect   *string `json:"productSelect"`
	ContentGenerate *string `json:"contentGenerate"`
	AirflowLog      *string `json:"airflowLog"`
}

type categoryDTO struct {
	Category1 *string `json:"category1"`
	Category2 *string `json:"category2"`
	Category3 *string `json:"category3"`
}

// Request — сообщение в wire-формате для публикации (используется CLI).
type Request struct {
	WorkID               int64       `json:"workId"`
	HasCrawledItems      bool        `json:"hasCrawledItems"`
	RecentTrendKeywords  []string    `json:"recentTrendKeywords"`
	CrawledProducts      []Product   `json:"crawledProducts"`
	RecentlyUsedProducts []string    `json:"recentlyUsedProducts"`
	WebhookSecret        string      `json:"webhookSecret"`
	WebhookURLs          WebhookURLs `json:"webhookUrls"`
	SiteURL              string      `json:"siteUrl"`
	TrendCategory        Category    `json:"trendCategory"`
	IsTest               bool        `json:"isTest"`
}

// Product — товар в wire-формате.
type Product struct {
	ProductID        *int64 `json:"productId,omitempty"`
	ProductName      string `json:"productName"`
	ProductCode      string `json:"productCode"`
	ProductDetailURL string `json:"productDetailUrl"`
	ProductPrice     *int64 `json:"productPrice,omitempty"`
	ProductImageURL  string `json:"productImageUrl"`
}

// WebhookURLs — адреса webhook в wire-формате.
type WebhookURLs struct {
	KeywordSelect   string `json:"keywordSelect"`
	ProductSelect   string `json:"productSelect"`
	ContentGenerate string `json:"contentGenerate"`
	AirflowLog      string `json:"airflowLog,omitempty"`
}

// Category — категория трендов в wire-формате.
type Category struct {
	Category1 string  `json:"category1"`
	Category2 *string `json:"category2,omitempty"`
	Category3 *string `json:"category3,omitempty"`
}

// FromWorkItem переводит WorkItem обратно в wire-формат.
func FromWorkItem(item *domain.WorkItem) Request {
	req := Request{
		WorkID:               item.WorkID,
		HasCrawledItems:      item.HasCrawledItems,
		RecentTrendKeywords:  item.RecentTrendKeywords,
		RecentlyUsedProducts: item.RecentlyUsedProducts,
		WebhookSecret:        item.WebhookSecret,
		WebhookURLs: WebhookURLs{
			KeywordSelect:   item.WebhookURLs.KeywordSelect,
			ProductSelect:   item.WebhookURLs.ProductSelect,
			ContentGenerate: item.WebhookURLs.ContentGenerate,
			AirflowLog:      item.WebhookURLs.AirflowLog,
		},
		SiteURL: item.SiteURL,
		TrendCategory: Category{
			Category1: item.TrendCategory.Category1,
			Category2: item.TrendCategory.Category2,
			Category3: item.TrendCategory.Category3,
		},
		IsTest: item.IsTest,
	}

	for _, p := range item.CrawledProducts {
		req.CrawledProducts = append(req.CrawledProducts, Product{
			ProductID:        p.ProductID,
			ProductName:      p.Name,
			ProductCode:      p.Code,
			ProductDetailURL: p.DetailURL,
			ProductPrice:     p.Price,
			ProductImageURL:  p.ImageURL,
		})
	}

	return req
}
