package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
)

const contentSystemPrompt = `당신은 상품 리뷰 블로그 작가입니다.
주어진 상품 정보로 검색 친화적인 블로그 글을 HTML로 작성하세요.
<h2>, <p>, <ul> 태그를 사용하고, 상품 이미지가 있으면 <img>로 포함하세요.
JSON으로만 답하세요:
{"title": "...", "content": "<html 본문>", "summary": "...", "outline": "..."}`

// Лимиты токенов ответа.
const (
	contentMaxTokens     = 4000
	contentTestMaxTokens = 1200
)

// ContentGenerator генерирует статью о товаре.
type ContentGenerator struct {
	client *Client
}

// NewContentGenerator создаёт ContentGenerator.
func NewContentGenerator(client *Client) *ContentGenerator {
	return &ContentGenerator{client: client}
}

type contentResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
	Outline string `json:"outline"`
}

// GenerateContent генерирует заголовок, HTML и summary.
// В тестовом режиме ответ короче.
func (g *ContentGenerator) GenerateContent(ctx context.Context, req domain.ContentRequest) (domain.Content, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "상품 정보: %s\n", req.ProductInfo)
	if req.ProductURL != "" {
		fmt.Fprintf(&b, "상품 링크: %s\n", req.ProductURL)
	}
	if req.ProductImageURL != "" {
		fmt.Fprintf(&b, "상품 이미지: %s\n", req.ProductImageURL)
	}

	maxTokens := int64(contentMaxTokens)
	if req.IsTest {
		b.WriteString("\n(테스트 모드: 짧게 작성하세요)\n")
		maxTokens = contentTestMaxTokens
	}

	var resp contentResponse
	if err := g.client.completeJSON(ctx, contentSystemPrompt, b.String(), maxTokens, &resp); err != nil {
		return domain.Content{}, err
	}

	return domain.Content{
		Title:   strings.TrimSpace(resp.Title),
		HTML:    resp.Content,
		Summary: resp.Summary,
		Outline: resp.Outline,
	}, nil
}
