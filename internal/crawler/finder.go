package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/pipeline"
)

// maxCandidates — сколько карточек с выдачи передаётся на выбор.
const maxCandidates = 10

// ProductFinder ищет товар по ключевому слову через поиск на сайте.
type ProductFinder struct {
	pages        pageSource
	searchPath   string
	itemSelector string
	selector     pipeline.ProductSelector
	logger       *slog.Logger
}

// FinderConfig — конфигурация ProductFinder.
type FinderConfig struct {
	// SearchPath — путь поиска относительно siteUrl; {keyword} заменяется на запрос.
	SearchPath string

	// ItemSelector — CSS-селектор карточки товара в выдаче.
	ItemSelector string

	// Selector выбирает товар из выдачи (опционально; иначе берётся первый).
	Selector pipeline.ProductSelector

	Logger *slog.Logger
}

// NewProductFinder создаёт ProductFinder.
func NewProductFinder(browser *Browser, cfg FinderConfig) *ProductFinder {
	return newProductFinder(browser, cfg)
}

func newProductFinder(pages pageSource, cfg FinderConfig) *ProductFinder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductFinder{
		pages:        pages,
		searchPath:   cfg.SearchPath,
		itemSelector: cfg.ItemSelector,
		selector:     cfg.Selector,
		logger:       logger,
	}
}

// FindProduct ищет товар на siteURL, пропуская товары с именами из exclude.
// Пустая выдача — нулевой Product без ошибки.
func (f *ProductFinder) FindProduct(ctx context.Context, keyword, siteURL string, exclude []string) (domain.Product, error) {
	searchURL, err := buildSearchURL(siteURL, f.searchPath, keyword)
	if err != nil {
		return domain.Product{}, err
	}

	f.logger.Info("searching product", "url", searchURL, "keyword", keyword)

	items, err := f.pages.Items(ctx, searchURL, f.itemSelector)
	if err != nil {
		return domain.Product{}, err
	}

	candidates := toProducts(items, siteURL, exclude)
	if len(candidates) == 0 {
		f.logger.Warn("no products found", "keyword", keyword, "items", len(items))
		return domain.Product{}, nil
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	if f.selector == nil || len(candidates) == 1 {
		return candidates[0], nil
	}

	return f.selector.SelectProduct(ctx, keyword, candidates)
}

// buildSearchURL собирает адрес поиска на сайте.
func buildSearchURL(siteURL, searchPath, keyword string) (string, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid site url %q", siteURL)
	}

	ref, err := url.Parse(strings.ReplaceAll(searchPath, "{keyword}", url.QueryEscape(keyword)))
	if err != nil {
		return "", fmt.Errorf("invalid search path %q: %w", searchPath, err)
	}

	return base.ResolveReference(ref).String(), nil
}

// toProducts нормализует карточки: без имени и исключённые пропускаются.
func toProducts(items []Item, siteURL string, exclude []string) []domain.Product {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[strings.TrimSpace(name)] = struct{}{}
	}

	products := make([]domain.Product, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		if _, excluded := skip[name]; excluded {
			continue
		}

		products = append(products, domain.Product{
			Name:     name,
			Code:     productCodeFromURL(it.Href),
			Price:    parsePrice(it.Price),
			URL:      it.Href,
			ImageURL: it.ImageSrc,
			SiteName: siteURL,
		})
	}
	return products
}

var digits = regexp.MustCompile(`\d+`)

// parsePrice извлекает цену из текста вида "19,900원". nil — цены нет.
func parsePrice(text string) *int64 {
	all := strings.Join(digits.FindAllString(text, -1), "")
	if all == "" {
		return nil
	}
	price, err := strconv.ParseInt(all, 10, 64)
	if err != nil {
		return nil
	}
	return &price
}

// productCodeFromURL берёт код товара из ссылки: параметр productId,
// последний числовой сегмент пути или параметр itemId.
func productCodeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	query := u.Query()
	if v := query.Get("productId"); v != "" {
		return v
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if _, err := strconv.ParseInt(segments[i], 10, 64); err == nil {
			return segments[i]
		}
	}

	return query.Get("itemId")
}
