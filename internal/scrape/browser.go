package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer returns the HTML of a page after its scripts have run
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders job boards that only build their content in JavaScript
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	timeout     time.Duration
}

// NewBrowser starts a headless Chrome allocator. The browser itself is
// launched lazily on the first Render.
func NewBrowser(timeout time.Duration) *Browser {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Headless,
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		timeout:     timeout,
	}
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	// Small delay for dynamic content
	if err := chromedp.Run(runCtx, chromedp.Sleep(2*time.Second)); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return html, nil
}
