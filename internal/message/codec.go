package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/content-worker/internal/domain"
)

// Decode разбирает тело сообщения в WorkItem.
//
// Обязательные поля: workId, webhookSecret, webhookUrls (keywordSelect,
// productSelect, contentGenerate), siteUrl, trendCategory.category1.
// Значения по умолчанию: hasCrawledItems=false, recentTrendKeywords=[],
// isTest=false. Пустой crawledProducts считается отсутствующим.
func Decode(body []byte) (*domain.WorkItem, error) {
	var dto requestDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &FormatError{Key: typeErr.Field, Err: err}
		}
		return nil, &FormatError{Err: err}
	}

	if dto.WorkID == nil {
		return nil, missing("workId")
	}
	if dto.WebhookSecret == nil {
		return nil, missing("webhookSecret")
	}
	if dto.WebhookURLs == nil {
		return nil, missing("webhookUrls")
	}
	if dto.SiteURL == nil {
		return nil, missing("siteUrl")
	}
	if dto.TrendCategory == nil {
		return nil, missing("trendCategory")
	}

	urls, err := dto.WebhookURLs.toDomain()
	if err != nil {
		return nil, err
	}

	category, err := dto.TrendCategory.toDomain()
	if err != nil {
		return nil, err
	}

	item := &domain.WorkItem{
		WorkID:               *dto.WorkID,
		HasCrawledItems:      deref(dto.HasCrawledItems),
		RecentTrendKeywords:  stringsOnly(dto.RecentTrendKeywords),
		RecentlyUsedProducts: dto.RecentlyUsedProducts,
		WebhookSecret:        *dto.WebhookSecret,
		WebhookURLs:          urls,
		SiteURL:              *dto.SiteURL,
		TrendCategory:        category,
		IsTest:               deref(dto.IsTest),
	}

	if len(dto.CrawledProducts) > 0 {
		item.CrawledProducts = make([]domain.ProductCandidate, 0, len(dto.CrawledProducts))
		for i, p := range dto.CrawledProducts {
			candidate, err := p.toDomain(i)
			if err != nil {
				return nil, err
			}
			item.CrawledProducts = append(item.CrawledProducts, candidate)
		}
	}

	return item, nil
}

// Encode сериализует WorkItem в wire-формат.
func Encode(item *domain.WorkItem) ([]byte, error) {
	body, err := json.Marshal(FromWorkItem(item))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

func (d *webhookURLDTO) toDomain() (domain.WebhookURLs, error) {
	if d.KeywordSelect == nil {
		return domain.WebhookURLs{}, missing("webhookUrls.keywordSelect")
	}
	if d.ProductSelect == nil {
		return domain.WebhookURLs{}, missing("webhookUrls.productSelect")
	}
	if d.ContentGenerate == nil {
		return domain.WebhookURLs{}, missing("webhookUrls.contentGenerate")
	}

	return domain.WebhookURLs{
		KeywordSelect:   *d.KeywordSelect,
		ProductSelect:   *d.ProductSelect,
		ContentGenerate: *d.ContentGenerate,
		AirflowLog:      deref(d.AirflowLog),
	}, nil
}

func (d *categoryDTO) toDomain() (domain.TrendCategory, error) {
	if d.Category1 == nil {
		return domain.TrendCategory{}, missing("trendCategory.category1")
	}

	return domain.TrendCategory{
		Category1: *d.Category1,
		Category2: d.Category2,
		Category3: d.Category3,
	}, nil
}

func (d *productDTO) toDomain(idx int) (domain.ProductCandidate, error) {
	required := []struct {
		key string
		val *string
	}{
		{"productName", d.ProductName},
		{"productCode", d.ProductCode},
		{"productDetailUrl", d.ProductDetailURL},
		{"productImageUrl", d.ProductImageURL},
	}
	for _, f := range required {
		if f.val == nil {
			return domain.ProductCandidate{}, missing(fmt.Sprintf("crawledProducts[%d].%s", idx, f.key))
		}
	}

	return domain.ProductCandidate{
		ProductID: d.ProductID,
		Name:      *d.ProductName,
		Code:      *d.ProductCode,
		DetailURL: *d.ProductDetailURL,
		Price:     d.ProductPrice,
		ImageURL:  *d.ProductImageURL,
	}, nil
}

// stringsOnly оставляет только строковые элементы, порядок сохраняется.
func stringsOnly(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
