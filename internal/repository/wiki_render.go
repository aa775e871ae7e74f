package repository

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"chart_scraper/pkg/headless"

	"github.com/chromedp/chromedp"
)

const (
	WIKI_CONTENT_SELECTOR = ".mw-parser-output"
	WIKI_HEADER_SELECTOR  = ".page-header__title"
)

// renderedWikiRepository fetches pages by rendering them in a headless
// browser instead of calling the content API. Useful where the API endpoint
// is blocked. Category lookups still go through the API, which serves plain
// JSON and is not subject to the rendering blocks.
type renderedWikiRepository struct {
	BaseURL string
	api     WikiRepository
}

// NewRenderedWikiRepository creates a repository that renders article pages
// headlessly while delegating category queries to the API client.
func NewRenderedWikiRepository(baseURL, apiURL string) WikiRepository {
	return &renderedWikiRepository{
		BaseURL: baseURL,
		api:     NewAPIWikiRepository(apiURL),
	}
}

func (r *renderedWikiRepository) FetchPage(ctx context.Context, title string) (io.Reader, error) {
	pageURL := fmt.Sprintf("%s/wiki/%s", r.BaseURL, url.PathEscape(title))
	return headless.FetchRenderedContent(ctx, pageURL, WikiPageWaitStrategy, WIKI_CONTENT_SELECTOR)
}

func (r *renderedWikiRepository) QueryCategories(ctx context.Context, titles []string) (map[string][]string, error) {
	return r.api.QueryCategories(ctx, titles)
}

// WikiPageWaitStrategy waits until the article body has rendered.
func WikiPageWaitStrategy(ctx context.Context, pageURL string) error {
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => false, configurable: true});`, nil),
		chromedp.WaitVisible(WIKI_HEADER_SELECTOR, chromedp.ByQuery),
		chromedp.WaitVisible(WIKI_CONTENT_SELECTOR, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("could not render wiki page '%s': %w", pageURL, err)
	}
	return nil
}
