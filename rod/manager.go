package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultPageBudget is the default number of pages served before the
// browser is recycled. Chrome accumulates memory under sustained load and
// never returns to baseline even with proper tab cleanup; a long novel run
// fetches thousands of pages, so the browser is replaced periodically.
const DefaultPageBudget = 75

// BrowserManager owns the browser lifecycle: it launches Chrome, hands out
// tabs, and transparently recycles the browser once the page budget is
// spent. Safe for concurrent use.
type BrowserManager struct {
	cfg config

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int64

	closed atomic.Bool
}

func newBrowserManager(cfg config) (*BrowserManager, error) {
	if cfg.pageBudget <= 0 {
		cfg.pageBudget = DefaultPageBudget
	}
	bm := &BrowserManager{cfg: cfg}
	if err := bm.launch(); err != nil {
		return nil, err
	}
	return bm, nil
}

// Page opens a new tab bound to ctx, recycling the browser first if the
// page budget is spent. The caller must Close the returned page.
func (bm *BrowserManager) Page(ctx context.Context) (*rod.Page, error) {
	bm.mu.Lock()
	if bm.pages >= bm.cfg.pageBudget {
		bm.recycle()
	}
	browser := bm.browser
	bm.pages++
	bm.mu.Unlock()

	page, err := browser.Page(pageTarget)
	if err != nil {
		return nil, err
	}
	return page.Context(ctx), nil
}

// Close releases browser resources. Safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// launch starts a new browser with stability flags and the configured
// headless/binary/proxy settings. Must be called with mu held (or before
// the manager is shared).
func (bm *BrowserManager) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(bm.cfg.headless)
	if bm.cfg.bin != "" {
		l = l.Bin(bm.cfg.bin)
	}
	if bm.cfg.proxy != "" {
		l = l.Set("proxy-server", bm.cfg.proxy)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser = browser
	bm.launcher = l
	return nil
}

// recycle replaces the browser with a fresh one. If the new launch fails
// the old browser is kept so in-flight work can continue. Must be called
// with mu held.
func (bm *BrowserManager) recycle() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launch(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	bm.pages = 0
}
