// Package browser runs headless Chrome for the pages that defeat plain
// HTTP: JS-rendered social posts whose counts only exist in the live DOM.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrDisabled indicates headless rendering is off via configuration.
var ErrDisabled = errors.New("browser disabled")

// overlaySelectors are consent banners and login walls dismissed before
// reading the page. Missing selectors are ignored.
var overlaySelectors = []string{
	`button[aria-label="Fechar"]`,
	`button[aria-label="Close"]`,
	`div[role="dialog"] button:first-of-type`,
	`#onetrust-accept-btn-handler`,
}

// Config sizes the session.
type Config struct {
	MaxConcurrency int
	Timeout        time.Duration
	DomainQPS      float64
	UserAgent      string
}

// Session owns one headless browser shared by all lookups. Each call
// opens a fresh tab; a semaphore bounds concurrent tabs and per-domain
// limiters keep the session polite.
type Session struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	timeout         time.Duration
	domainQPS       float64
	domainLimiters  sync.Map
	userAgent       string
}

// NewSession starts the shared browser. Returns ErrDisabled when
// MaxConcurrency is zero.
func NewSession(cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.MaxConcurrency <= 0 {
		return nil, ErrDisabled
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("lang", "pt-BR"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("browser warmup: %w", err)
	}

	return &Session{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxConcurrency),
		timeout:         cfg.Timeout,
		domainQPS:       cfg.DomainQPS,
		userAgent:       cfg.UserAgent,
	}, nil
}

// Close tears down the browser and its allocator.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.browserCancel()
	s.allocatorCancel()
	return nil
}

// Text renders the page, dismisses overlays and returns the visible body
// text.
func (s *Session) Text(ctx context.Context, pageURL string) (string, error) {
	if s == nil {
		return "", ErrDisabled
	}

	release, err := s.acquireTab(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if err := s.waitDomainBudget(ctx, pageURL); err != nil {
		return "", fmt.Errorf("render rate limit: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, s.timeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	var text string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(s.userAgent),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		dismissOverlays(),
		chromedp.Text("body", &text, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return text, nil
}

// Screenshot captures the rendered page, used for run artifacts.
func (s *Session) Screenshot(ctx context.Context, pageURL string) ([]byte, error) {
	if s == nil {
		return nil, ErrDisabled
	}

	release, err := s.acquireTab(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.waitDomainBudget(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("render rate limit: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, s.timeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		dismissOverlays(),
		chromedp.CaptureScreenshot(&shot),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", pageURL, err)
	}
	return shot, nil
}

func dismissOverlays() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, sel := range overlaySelectors {
			clickCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			_ = chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
			cancel()
		}
		return nil
	})
}

func (s *Session) acquireTab(ctx context.Context) (func(), error) {
	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire tab: %w", ctx.Err())
	}
}

func (s *Session) waitDomainBudget(ctx context.Context, rawURL string) error {
	if s.domainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse render url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := s.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(s.domainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
