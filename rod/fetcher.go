// Package rod implements the bookdl.Fetcher interface using Chrome browser
// automation. Novel sites are frequently JavaScript-rendered and fronted by
// anti-bot interstitials, so a real browser engine does the fetching.
package rod

import (
	"context"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/kalisz/bookdl"
)

// Ensure Fetcher implements bookdl.Fetcher at compile time.
var _ bookdl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered markup from URLs using Chrome browser
// automation. Every Fetch opens its own tab and closes it on all exit
// paths, so Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager     *BrowserManager
	renderDelay time.Duration
}

// Option configures a Fetcher.
type Option func(*config)

type config struct {
	headless    bool
	bin         string
	proxy       string
	renderDelay time.Duration
	pageBudget  int64
}

// WithHeadless toggles headless mode. Defaults to true; running headful is
// useful when a challenge needs to be completed by hand.
func WithHeadless(headless bool) Option {
	return func(c *config) { c.headless = headless }
}

// WithBrowserBin sets an explicit Chrome/Chromium binary path instead of
// letting the launcher find or download one.
func WithBrowserBin(path string) Option {
	return func(c *config) { c.bin = path }
}

// WithProxy routes browser traffic through the given proxy address.
func WithProxy(addr string) Option {
	return func(c *config) { c.proxy = addr }
}

// WithRenderDelay adds a fixed delay after page load before the markup is
// read, for pages that keep rendering after the load event.
func WithRenderDelay(d time.Duration) Option {
	return func(c *config) { c.renderDelay = d }
}

// WithPageBudget sets how many pages the underlying browser serves before
// it is recycled. Defaults to DefaultPageBudget.
func WithPageBudget(n int64) Option {
	return func(c *config) { c.pageBudget = n }
}

// NewFetcher creates a Fetcher backed by a freshly launched browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := config{
		headless:   true,
		pageBudget: DefaultPageBudget,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := newBrowserManager(cfg)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		manager:     manager,
		renderDelay: cfg.renderDelay,
	}, nil
}

// Fetch navigates to the URL in a new tab and returns the rendered markup.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.manager.Page(ctx)
	if err != nil {
		return "", err
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return "", err
	}

	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.renderDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.renderDelay):
		}
	}

	return page.HTML()
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// pageTarget is the blank target every fetch starts from.
var pageTarget = proto.TargetCreateTarget{}
