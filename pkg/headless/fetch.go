package headless

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/DataHenHQ/useragent"
	"github.com/chromedp/chromedp"
)

// Default settings for headless browser operation.
const (
	DefaultTimeout    = 45 * time.Second
	DefaultWaitBuffer = 2 * time.Second
)

// WaitStrategy is a function that performs the necessary tasks to determine
// when a dynamic page has finished loading all content.
type WaitStrategy func(ctx context.Context, url string) error

// FetchRenderedContent navigates to a URL, runs the provided WaitStrategy
// until the page settles, and returns the HTML of the node matched by
// extractionSelector as an io.Reader.
func FetchRenderedContent(parentCtx context.Context, url string, strategy WaitStrategy, extractionSelector string) (io.Reader, error) {
	ua, err := useragent.Desktop()
	if err != nil {
		return nil, fmt.Errorf("could not generate random UA: %w", err)
	}
	ctx, cancel := context.WithTimeout(parentCtx, DefaultTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(ua),
		chromedp.Headless,
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("no-first-run", true),

		// Required when running inside a container
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("single-process", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))
	defer chromeCancel()

	if err := strategy(chromeCtx, url); err != nil {
		return nil, fmt.Errorf("wait strategy failed for %s: %w", url, err)
	}

	var fullHTML string
	tasks := chromedp.Tasks{
		// Small buffer after the custom wait passes
		chromedp.Sleep(DefaultWaitBuffer),
		chromedp.OuterHTML(extractionSelector, &fullHTML, chromedp.ByQuery),
	}
	if err := chromedp.Run(chromeCtx, tasks); err != nil {
		log.Printf("Extraction failed (Length: %d). Error: %v", len(fullHTML), err)
		return nil, fmt.Errorf("failed to extract HTML from selector '%s': %w", extractionSelector, err)
	}

	return bytes.NewReader([]byte(fullHTML)), nil
}
