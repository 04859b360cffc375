package domain

// WorkItem — одна единица работы пайплайна, полученная из очереди.
//
// После декодирования не изменяется. Наличие webhook URL для шагов
// keyword/product/content проверяется в момент использования, а не при парсинге.
type WorkItem struct {
	// WorkID — идентификатор работы на стороне backend.
	WorkID int64

	// HasCrawledItems — к сообщению приложены заранее собранные товары.
	// Единственный признак, по которому выбирается ветка select/find.
	HasCrawledItems bool

	// RecentTrendKeywords — недавно использованные ключевые слова (исключаются из выбора).
	RecentTrendKeywords []string

	// CrawledProducts — кандидаты для выбора товара. nil — поле отсутствовало.
	CrawledProducts []ProductCandidate

	// RecentlyUsedProducts — названия недавно использованных товаров. nil — поле отсутствовало.
	RecentlyUsedProducts []string

	// WebhookSecret — значение заголовка X-WEBHOOK-SECRET.
	WebhookSecret string

	// WebhookURLs — адреса обратных вызовов.
	WebhookURLs WebhookURLs

	// SiteURL — сайт, на котором ищется товар.
	SiteURL string

	// TrendCategory — категория для сбора трендовых ключевых слов.
	TrendCategory TrendCategory

	// IsTest — тестовый запуск. Логику пайплайна не меняет.
	IsTest bool
}

// WebhookURLs — набор адресов webhook для одной работы.
type WebhookURLs struct {
	KeywordSelect   string
	ProductSelect   string
	ContentGenerate string

	// AirflowLog — адрес сбора логов выполнения (опционально).
	AirflowLog string
}

// TrendCategory — трёхуровневая категория трендов.
type TrendCategory struct {
	Category1 string
	Category2 *string
	Category3 *string
}

// Levels возвращает непустые уровни категории по порядку.
func (c TrendCategory) Levels() []string {
	levels := []string{c.Category1}
	for _, v := range []*string{c.Category2, c.Category3} {
		if v == nil || *v == "" {
			break
		}
		levels = append(levels, *v)
	}
	return levels
}
