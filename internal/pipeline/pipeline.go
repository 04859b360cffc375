package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shaiso/content-worker/internal/domain"
	"github.com/shaiso/content-worker/internal/telemetry"
	"github.com/shaiso/content-worker/internal/webhook"
)

// Имена шагов в журнале выполнения.
const (
	StepCrawler         = "crawler"
	StepKeywordSelect   = "keyword_select"
	StepSelectProduct   = "select_product"
	StepFindProduct     = "find_product"
	StepGenerateContent = "generate_content"
)

// Метки webhook для логов и метрик.
const (
	WebhookKeywordSelect   = "keyword_select"
	WebhookProductSelect   = "product_select"
	WebhookContentGenerate = "content_generate"
	WebhookLog             = "log"
)

// Orchestrator выполняет шаги пайплайна для одного WorkItem.
//
// Orchestrator не хранит состояния запуска: журнал создаётся в Run
// и передаётся через шаги, поэтому один Orchestrator можно переиспользовать.
type Orchestrator struct {
	crawler         KeywordCrawler
	keywordSelector KeywordSelector
	productSelector ProductSelector
	productFinder   ProductFinder
	generator       ContentGenerator
	notifier        Notifier

	onStep func(step string, status domain.StepStatus, duration time.Duration)
	now    func() time.Time
	logger *slog.Logger
}

// Config — зависимости Orchestrator.
type Config struct {
	Crawler          KeywordCrawler
	KeywordSelector  KeywordSelector
	ProductSelector  ProductSelector
	ProductFinder    ProductFinder
	ContentGenerator ContentGenerator
	Notifier         Notifier

	// OnStep вызывается при завершении каждого шага (для метрик).
	OnStep func(step string, status domain.StepStatus, duration time.Duration)

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		crawler:         cfg.Crawler,
		keywordSelector: cfg.KeywordSelector,
		productSelector: cfg.ProductSelector,
		productFinder:   cfg.ProductFinder,
		generator:       cfg.ContentGenerator,
		notifier:        cfg.Notifier,
		onStep:          cfg.OnStep,
		now:             now,
		logger:          logger,
	}
}

// Run выполняет пайплайн и возвращает журнал выполнения.
//
// Журнал отправляется на airflowLog (если задан) в любом исходе.
// Возвращаемая ошибка — всегда ошибка шага; сбой отправки журнала
// её не подменяет.
func (o *Orchestrator) Run(ctx context.Context, item *domain.WorkItem) (execLog *ExecutionLog, err error) {
	execLog = NewExecutionLog(o.now)
	logger := telemetry.WithExecutionID(telemetry.WithWorkID(o.logger, item.WorkID), execLog.ID())
	ctx = telemetry.WithLogger(ctx, logger)

	logger.Info("pipeline started", "has_crawled_items", item.HasCrawledItems, "is_test", item.IsTest)

	defer func() {
		if err != nil {
			logger.Error("pipeline failed", "error", err)
		} else {
			logger.Info("pipeline completed")
		}
		o.finalize(ctx, logger, item, execLog)
	}()

	// 1. Сбор ключевых слов
	keywords, err := runStep(ctx, o, execLog, StepCrawler,
		func(ctx context.Context) ([]string, error) {
			return o.crawler.CrawlKeywords(ctx, item.TrendCategory)
		},
		func(kw []string) string { return fmt.Sprintf("%d keywords crawled", len(kw)) },
	)
	if err != nil {
		return execLog, err
	}

	// 2. Выбор ключевого слова + webhook
	selection, err := runStep(ctx, o, execLog, StepKeywordSelect,
		func(ctx context.Context) (domain.KeywordSelection, error) {
			return o.selectKeyword(ctx, item, keywords)
		},
		func(sel domain.KeywordSelection) string { return "Selected: " + sel.Keyword },
	)
	if err != nil {
		return execLog, err
	}

	// 3. Ветка: выбор из кандидатов или поиск на сайте + webhook
	step, resolve, summary := StepFindProduct, o.findProduct, "Found: "
	if item.HasCrawledItems {
		step, resolve, summary = StepSelectProduct, o.selectProduct, "Selected: "
	}

	product, err := runStep(ctx, o, execLog, step,
		func(ctx context.Context) (domain.Product, error) {
			p, err := resolve(ctx, item, selection.Keyword)
			if err != nil {
				return domain.Product{}, err
			}
			payload := webhook.NewProductSelectPayload(item.WorkID, p, item.SiteURL, o.now().UTC())
			return p, o.notify(ctx, item, WebhookProductSelect, item.WebhookURLs.ProductSelect, payload)
		},
		func(p domain.Product) string { return summary + p.Name },
	)
	if err != nil {
		return execLog, err
	}

	// 4. Генерация контента + webhook
	_, err = runStep(ctx, o, execLog, StepGenerateContent,
		func(ctx context.Context) (domain.Content, error) {
			return o.generateContent(ctx, item, product)
		},
		func(c domain.Content) string { return "Title: " + c.Title },
	)
	if err != nil {
		return execLog, err
	}

	return execLog, nil
}

// runStep выполняет один шаг по общему протоколу:
// started → вызов → completed (со сводкой) или failed (с текстом ошибки).
func runStep[T any](
	ctx context.Context,
	o *Orchestrator,
	execLog *ExecutionLog,
	step string,
	fn func(ctx context.Context) (T, error),
	summarize func(T) string,
) (T, error) {
	execLog.Record(step, domain.StepStatusStarted, "", 0)
	start := time.Now()

	result, err := call(ctx, telemetry.FromContext(ctx), step, fn)
	duration := time.Since(start)

	if err != nil {
		stepErr := &StepError{Step: step, Kind: classify(err), Err: err}
		execLog.Record(step, domain.StepStatusFailed, err.Error(), duration)
		o.observe(step, domain.StepStatusFailed, duration)

		var zero T
		return zero, stepErr
	}

	execLog.Record(step, domain.StepStatusCompleted, summarize(result), duration)
	o.observe(step, domain.StepStatusCompleted, duration)

	return result, nil
}

// call вызывает шаг и превращает panic в ошибку, чтобы шаг получил запись failed.
func call[T any](ctx context.Context, logger *slog.Logger, step string, fn func(ctx context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("step panicked", "step", step, "panic", r, "stack", string(debug.Stack()))

			var zero T
			result, err = zero, fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()

	return fn(ctx)
}

func (o *Orchestrator) selectKeyword(ctx context.Context, item *domain.WorkItem, keywords []string) (domain.KeywordSelection, error) {
	if len(keywords) == 0 {
		return domain.KeywordSelection{}, ErrEmptyKeywords
	}

	startedAt := o.now().UTC()
	sel, err := o.keywordSelector.SelectKeyword(ctx, keywords, item.RecentTrendKeywords)
	if err != nil {
		return domain.KeywordSelection{}, fmt.Errorf("select keyword: %w", err)
	}
	if sel.Keyword == "" {
		return domain.KeywordSelection{}, ErrKeywordNotResolved
	}

	sel.StartedAt = startedAt
	sel.CompletedAt = o.now().UTC()

	payload := webhook.NewKeywordSelectPayload(item.WorkID, sel)
	if err := o.notify(ctx, item, WebhookKeywordSelect, item.WebhookURLs.KeywordSelect, payload); err != nil {
		return domain.KeywordSelection{}, err
	}

	return sel, nil
}

// selectProduct выбирает товар из приложенных кандидатов.
func (o *Orchestrator) selectProduct(ctx context.Context, item *domain.WorkItem, keyword string) (domain.Product, error) {
	if len(item.CrawledProducts) == 0 {
		return domain.Product{}, ErrEmptyCandidates
	}
	if keyword == "" {
		return domain.Product{}, ErrKeywordNotResolved
	}

	candidates := make([]domain.Product, 0, len(item.CrawledProducts))
	for _, c := range item.CrawledProducts {
		candidates = append(candidates, c.ToProduct(item.SiteURL))
	}

	p, err := o.productSelector.SelectProduct(ctx, keyword, candidates)
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	if p.Name == "" && p.ProductCode() == "" {
		return domain.Product{}, ErrProductNotResolved
	}

	return p, nil
}

// findProduct ищет товар на сайте; приложенные кандидаты игнорируются.
func (o *Orchestrator) findProduct(ctx context.Context, item *domain.WorkItem, keyword string) (domain.Product, error) {
	if keyword == "" {
		return domain.Product{}, ErrKeywordNotResolved
	}

	exclude := item.RecentlyUsedProducts
	if exclude == nil {
		exclude = []string{}
	}

	p, err := o.productFinder.FindProduct(ctx, keyword, item.SiteURL, exclude)
	if err != nil {
		return domain.Product{}, fmt.Errorf("find product: %w", err)
	}
	if p.Name == "" && p.ProductCode() == "" {
		return domain.Product{}, ErrProductNotResolved
	}

	return p, nil
}

func (o *Orchestrator) generateContent(ctx context.Context, item *domain.WorkItem, p domain.Product) (domain.Content, error) {
	info := p.Describe()
	if info == "" {
		return domain.Content{}, ErrEmptyProductInfo
	}

	content, err := o.generator.GenerateContent(ctx, domain.ContentRequest{
		ProductInfo:     info,
		ProductURL:      p.URL,
		ProductImageURL: p.ImageURL,
		IsTest:          item.IsTest,
	})
	if err != nil {
		return domain.Content{}, fmt.Errorf("generate content: %w", err)
	}
	if content.IsEmpty() {
		return domain.Content{}, ErrEmptyContent
	}

	payload := webhook.NewContentGeneratePayload(item.WorkID, content, o.now().UTC())
	if err := o.notify(ctx, item, WebhookContentGenerate, item.WebhookURLs.ContentGenerate, payload); err != nil {
		return domain.Content{}, err
	}

	return content, nil
}

// notify отправляет обязательный webhook. Пустой URL — ошибка конфигурации.
func (o *Orchestrator) notify(ctx context.Context, item *domain.WorkItem, kind, url string, payload any) error {
	if url == "" {
		return fmt.Errorf("%w: %s", ErrWebhookNotConfigured, kind)
	}
	return o.notifier.Send(ctx, kind, url, item.WebhookSecret, payload)
}

// finalize отправляет журнал выполнения. Ошибки только логируются.
func (o *Orchestrator) finalize(ctx context.Context, logger *slog.Logger, item *domain.WorkItem, execLog *ExecutionLog) {
	url := item.WebhookURLs.AirflowLog
	if url == "" {
		logger.Debug("log webhook url not set, skipping")
		return
	}

	payload := webhook.LogPayload{
		WorkID:      item.WorkID,
		ExecutionID: execLog.ID(),
		Logs:        execLog.Records(),
		CompletedAt: o.now().UTC(),
	}

	// Журнал отправляется и при остановке воркера
	ctx = context.WithoutCancel(ctx)

	if err := o.notifier.Send(ctx, WebhookLog, url, item.WebhookSecret, payload); err != nil {
		logger.Warn("failed to send log webhook", "error", err)
		return
	}

	logger.Info("log webhook sent")
}

func (o *Orchestrator) observe(step string, status domain.StepStatus, duration time.Duration) {
	if o.onStep != nil {
		o.onStep(step, status, duration)
	}
}
