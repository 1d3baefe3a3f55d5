// Package browser drives a live Chrome tab and exposes its form controls to the fill engine.
// Requires Chrome/Chromium to be installed on the system.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds navigation and each element operation.
const DefaultTimeout = 30 * time.Second

// Options configures a browser session.
type Options struct {
	// Headful shows the browser window instead of running headless.
	Headful bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Session is one browser process with a single tab.
type Session struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// Launch starts a browser. Close must be called to release it.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	// Run with no actions starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &Error{Op: "launch", Message: "failed to start browser", Cause: err}
	}

	logger.Debug("browser started", zap.Bool("headless", !opts.Headful))
	return &Session{
		ctx:         tabCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
		timeout:     timeout,
		logger:      logger.Named("browser"),
	}, nil
}

// Close shuts the browser down. Elements of its pages report detached afterwards.
func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// Open navigates the tab to url and waits for the body to be ready.
func (s *Session) Open(url string) (*Page, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.logger.Info("opening page", zap.String("url", url))
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return nil, &Error{Op: "open", Message: "navigation failed for " + url, Cause: err}
	}

	return &Page{
		ctx:     s.ctx,
		timeout: s.timeout,
		logger:  s.logger,
	}, nil
}

// SetContent replaces the tab's document with markup. It is used to fill
// HTML that was not served from a URL.
func (s *Session) SetContent(markup string) (*Page, error) {
	page, err := s.Open("about:blank")
	if err != nil {
		return nil, err
	}
	if err := page.eval("setContent", setContentJS, []any{markup}, nil); err != nil {
		return nil, err
	}
	return page, nil
}
