// Package browser renders JavaScript-driven flyer pages in headless Chrome.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Pool manages browser pages for concurrent rendering
type Pool struct {
	browser     *rod.Browser
	pagePool    chan *rod.Page
	maxPages    int
	pageTimeout time.Duration
	logger      *slog.Logger
	mu          sync.Mutex
	closed      bool
}

// PoolConfig holds configuration for the browser pool
type PoolConfig struct {
	MaxPages    int           // Maximum concurrent pages (default: 2)
	PageTimeout time.Duration // Timeout for page operations (default: 60s)
	Headless    bool
	BrowserBin  string // Chrome binary; downloaded by rod when empty
}

// DefaultPoolConfig returns the default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxPages:    2,
		PageTimeout: 60 * time.Second,
		Headless:    true,
	}
}

// NewPool launches a browser and pre-opens MaxPages pages.
func NewPool(cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("lang", "hu-HU")
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	pool := &Pool{
		browser:     browser,
		pagePool:    make(chan *rod.Page, cfg.MaxPages),
		maxPages:    cfg.MaxPages,
		pageTimeout: cfg.PageTimeout,
		logger:      logger,
	}

	for i := 0; i < cfg.MaxPages; i++ {
		page, err := pool.createPage()
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("creating page %d: %w", i, err)
		}
		pool.pagePool <- page
	}

	logger.Info("Browser pool initialized",
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("headless", cfg.Headless),
	)

	return pool, nil
}

func (p *Pool) createPage() (*rod.Page, error) {
	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1366,
		Height: 900,
	}); err != nil {
		return nil, err
	}

	return page, nil
}

// Acquire gets a page from the pool (blocks if none available)
func (p *Pool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool is closed")
	}
	p.mu.Unlock()

	select {
	case page := <-p.pagePool:
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a page to the pool
func (p *Pool) Release(page *rod.Page) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = page.Close()
		return
	}

	_ = page.Navigate("about:blank")
	_ = page.SetCookies(nil)

	select {
	case p.pagePool <- page:
	default:
		_ = page.Close()
	}
}

// RenderHTML loads url, waits for waitFor (when set) and returns the DOM.
func (p *Pool) RenderHTML(ctx context.Context, url, waitFor string) (string, error) {
	page, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.Release(page)

	pg := page.Context(ctx).Timeout(p.pageTimeout)

	if err := pg.Navigate(url); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for load: %w", err)
	}
	if waitFor != "" {
		if _, err := pg.Element(waitFor); err != nil {
			return "", fmt.Errorf("waiting for selector %s: %w", waitFor, err)
		}
	}

	html, err := pg.HTML()
	if err != nil {
		return "", fmt.Errorf("reading page HTML: %w", err)
	}
	return html, nil
}

// Close shuts down the browser pool
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.pagePool)
	for page := range p.pagePool {
		_ = page.Close()
	}

	if err := p.browser.Close(); err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}

	p.logger.Info("Browser pool closed")
	return nil
}
