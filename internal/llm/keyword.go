package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
)

const keywordSystemPrompt = `당신은 쇼핑 블로그 마케터입니다.
주어진 트렌드 키워드 중 블로그 글 작성에 가장 적합한 키워드 하나를 고르세요.
반드시 목록에 있는 키워드를 그대로 사용하고, JSON으로만 답하세요:
{"keyword": "...", "reason": "..."}`

// KeywordSelector выбирает ключевое слово для статьи.
type KeywordSelector struct {
	client *Client
}

// NewKeywordSelector создаёт KeywordSelector.
func NewKeywordSelector(client *Client) *KeywordSelector {
	return &KeywordSelector{client: client}
}

type keywordResponse struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
}

// SelectKeyword выбирает одно слово из keywords, избегая exclude.
// Если исключены все слова, выбор идёт из полного списка.
func (s *KeywordSelector) SelectKeyword(ctx context.Context, keywords, exclude []string) (domain.KeywordSelection, error) {
	candidates := withoutExcluded(keywords, exclude)
	if len(candidates) == 0 {
		candidates = keywords
	}

	var b strings.Builder
	b.WriteString("트렌드 키워드 목록:\n")
	for i, kw := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, kw)
	}
	if len(exclude) > 0 {
		fmt.Fprintf(&b, "\n최근 사용한 키워드(피할 것): %s\n", strings.Join(exclude, ", "))
	}

	var resp keywordResponse
	if err := s.client.completeJSON(ctx, keywordSystemPrompt, b.String(), 300, &resp); err != nil {
		return domain.KeywordSelection{}, err
	}

	keyword := strings.TrimSpace(resp.Keyword)
	if !slices.Contains(candidates, keyword) {
		return domain.KeywordSelection{}, fmt.Errorf("%w: keyword %q is not in the list", ErrInvalidResponse, keyword)
	}

	return domain.KeywordSelection{
		Keyword: keyword,
		Reason:  resp.Reason,
	}, nil
}

// withoutExcluded убирает исключённые слова (без учёта регистра и пробелов).
func withoutExcluded(keywords, exclude []string) []string {
	if len(exclude) == 0 {
		return keywords
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[normalize(e)] = struct{}{}
	}

	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if _, ok := skip[normalize(kw)]; !ok {
			out = append(out, kw)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
