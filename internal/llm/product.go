package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
)

const productSystemPrompt = `당신은 쇼핑 블로그 에디터입니다.
키워드에 가장 잘 맞고 블로그 소개에 적합한 상품 하나를 고르세요.
상품 번호(1부터 시작)로 JSON으로만 답하세요:
{"index": 1, "reason": "..."}`

// ProductSelector выбирает товар из списка кандидатов.
type ProductSelector struct {
	client *Client
}

// NewProductSelector создаёт ProductSelector.
func NewProductSelector(client *Client) *ProductSelector {
	return &ProductSelector{client: client}
}

type productResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SelectProduct возвращает кандидата, выбранного моделью по номеру.
func (s *ProductSelector) SelectProduct(ctx context.Context, keyword string, candidates []domain.Product) (domain.Product, error) {
	if len(candidates) == 0 {
		return domain.Product{}, fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "키워드: %s\n\n상품 목록:\n", keyword)
	for i, p := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Describe())
	}

	var resp productResponse
	if err := s.client.completeJSON(ctx, productSystemPrompt, b.String(), 200, &resp); err != nil {
		return domain.Product{}, err
	}

	if resp.Index < 1 || resp.Index > len(candidates) {
		return domain.Product{}, fmt.Errorf("%w: product index %d out of range 1..%d", ErrInvalidResponse, resp.Index, len(candidates))
	}

	return candidates[resp.Index-1], nil
}
