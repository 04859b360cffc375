package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductCandidate — заранее собранный товар из входящего сообщения.
type ProductCandidate struct {
	ProductID *int64
	Name      string
	Code      string
	DetailURL string
	Price     *int64
	ImageURL  string
}

// ToProduct приводит кандидата к нормализованному виду с указанием сайта.
func (c ProductCandidate) ToProduct(siteName string) Product {
	return Product{
		ProductID: c.ProductID,
		Name:      c.Name,
		Code:      c.Code,
		Price:     c.Price,
		URL:       c.DetailURL,
		ImageURL:  c.ImageURL,
		SiteName:  siteName,
	}
}

// Product — нормализованный результат выбора или поиска товара.
// Обе ветки пайплайна (select/find) возвращают именно его.
type Product struct {
	ProductID *int64 `json:"product_id,omitempty"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Price     *int64 `json:"price,omitempty"`
	URL       string `json:"url"`
	ImageURL  string `json:"image_url"`
	SiteName  string `json:"site_name"`
}

// ProductCode возвращает код товара, а если его нет — строковый ID.
func (p Product) ProductCode() string {
	if p.Code != "" {
		return p.Code
	}
	if p.ProductID != nil {
		return strconv.FormatInt(*p.ProductID, 10)
	}
	return ""
}

// Describe собирает описание товара для генерации контента.
// Пустая строка означает, что описывать нечего.
func (p Product) Describe() string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, "상품명: "+p.Name)
	}
	if p.Price != nil && *p.Price != 0 {
		parts = append(parts, fmt.Sprintf("가격: %d", *p.Price))
	}
	if p.Code != "" {
		parts = append(parts, "코드: "+p.Code)
	}
	if p.URL != "" {
		parts = append(parts, "URL: "+p.URL)
	}
	if p.ImageURL != "" {
		parts = append(parts, "이미지: "+p.ImageURL)
	}
	return strings.Join(parts, " / ")
}

// KeywordSelection — результат выбора ключевого слова.
type KeywordSelection struct {
	Keyword     string
	Reason      string
	StartedAt   time.Time
	CompletedAt time.Time
}

// ContentRequest — входные данные для генерации контента.
type ContentRequest struct {
	ProductInfo     string
	ProductURL      string
	ProductImageURL string
	IsTest          bool
}

// Content — сгенерированный контент блога.
type Content struct {
	Title   string `json:"title"`
	HTML    string `json:"html"`
	Summary string `json:"summary"`
	Outline string `json:"outline"`
}

// IsEmpty возвращает true, если генерация не дала ни заголовка, ни тела.
func (c Content) IsEmpty() bool {
	return c.Title == "" && c.HTML == ""
}

// SummaryOrOutline возвращает summary, а при его отсутствии — outline.
func (c Content) SummaryOrOutline() string {
	if c.Summary != "" {
		return c.Summary
	}
	return c.Outline
}
