package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
)

// pageSource — часть Browser, нужная сборщикам (подменяется в тестах).
type pageSource interface {
	Texts(ctx context.Context, url, selector string) ([]string, error)
	Items(ctx context.Context, url, itemSelector string) ([]Item, error)
}

// KeywordCrawler собирает трендовые ключевые слова со страницы категории.
type KeywordCrawler struct {
	pages       pageSource
	urlTemplate string
	selector    string
	logger      *slog.Logger
}

// KeywordConfig — конфигурация KeywordCrawler.
type KeywordConfig struct {
	// URLTemplate — адрес страницы трендов; {category} заменяется на уровни
	// категории, соединённые через ">".
	URLTemplate string

	// Selector — CSS-селектор элементов с ключевыми словами.
	Selector string

	Logger *slog.Logger
}

// NewKeywordCrawler создаёт KeywordCrawler.
func NewKeywordCrawler(browser *Browser, cfg KeywordConfig) *KeywordCrawler {
	return newKeywordCrawler(browser, cfg)
}

func newKeywordCrawler(pages pageSource, cfg KeywordConfig) *KeywordCrawler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordCrawler{
		pages:       pages,
		urlTemplate: cfg.URLTemplate,
		selector:    cfg.Selector,
		logger:      logger,
	}
}

// CrawlKeywords возвращает ключевые слова для категории в порядке рейтинга.
func (c *KeywordCrawler) CrawlKeywords(ctx context.Context, category domain.TrendCategory) ([]string, error) {
	pageURL := buildKeywordURL(c.urlTemplate, category.Levels())

	c.logger.Info("crawling trend keywords", "url", pageURL)

	texts, err := c.pages.Texts(ctx, pageURL, c.selector)
	if err != nil {
		return nil, err
	}

	keywords := normalizeKeywords(texts)
	c.logger.Info("trend keywords crawled", "count", len(keywords))

	return keywords, nil
}

// buildKeywordURL подставляет категорию в шаблон.
func buildKeywordURL(template string, levels []string) string {
	return strings.ReplaceAll(template, "{category}", url.QueryEscape(strings.Join(levels, ">")))
}

// rankPrefix — номер позиции в рейтинге: "1. ", "2) ", "3 ".
var rankPrefix = regexp.MustCompile(`^\d+(?:[.)]\s*|\s+)`)

// normalizeKeywords убирает номера рейтинга, пробелы и повторы.
func normalizeKeywords(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))

	for _, t := range texts {
		kw := rankPrefix.ReplaceAllString(strings.TrimSpace(t), "")
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
