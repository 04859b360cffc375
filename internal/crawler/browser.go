// Package crawler собирает трендовые ключевые слова и ищет товары на сайтах
// через headless Chrome (chromedp).
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultPageTimeout — лимит на загрузку и разбор одной страницы.
const DefaultPageTimeout = 60 * time.Second

// ErrNoElements — селектор ничего не нашёл на странице.
var ErrNoElements = errors.New("no elements matched selector")

// Browser — общий allocator headless Chrome. Каждая страница открывается
// в своём контексте chromedp со своим таймаутом.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// NewBrowser создаёт allocator. Chrome запускается лениво, при первой странице.
func NewBrowser(pageTimeout time.Duration) *Browser {
	if pageTimeout <= 0 {
		pageTimeout = DefaultPageTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  pageTimeout,
	}
}

// Close завершает процесс Chrome.
func (b *Browser) Close() {
	b.cancel()
}

// Item — карточка товара в том виде, в каком её отдаёт страница.
type Item struct {
	Name     string `json:"name"`
	Href     string `json:"href"`
	ImageSrc string `json:"image"`
	Price    string `json:"price"`
}

// Texts возвращает текст всех элементов, подходящих под selector.
func (b *Browser) Texts(ctx context.Context, url, selector string) ([]string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).map(e => e.textContent.trim())`,
		sel,
	)

	var texts []string
	if err := b.run(ctx, url, selector, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoElements, selector)
	}
	return texts, nil
}

// Items возвращает карточки товаров: имя, ссылку, картинку и цену каждого элемента.
func (b *Browser) Items(ctx context.Context, url, itemSelector string) ([]Item, error) {
	sel, err := json.Marshal(itemSelector)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => {
	const a = e.querySelector("a[href]");
	const img = e.querySelector("img");
	const name = e.querySelector(".name, [class*=name], [class*=title]");
	const price = e.querySelector(".price-value, [class*=price]");
	return {
		name: (name ? name.textContent : (img ? img.alt : "")).trim(),
		href: a ? a.href : "",
		image: img ? (img.currentSrc || img.src || "") : "",
		price: price ? price.textContent.trim() : ""
	};
})`, sel)

	var items []Item
	if err := b.run(ctx, url, itemSelector, chromedp.Evaluate(script, &items)); err != nil {
		return nil, err
	}
	return items, nil
}

func (b *Browser) run(ctx context.Context, url, waitSelector string, extract chromedp.Action) error {
	taskCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.timeout)
	defer cancelTimeout()

	// Отмена ctx вызывающего закрывает вкладку
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		extract,
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("crawl %s: %w", url, err)
	}
	return nil
}
