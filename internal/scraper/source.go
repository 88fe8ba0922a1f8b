package scraper

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettlePeriod      = 3 * time.Second

	requestIdleWindow   = 500 * time.Millisecond
	browserCheckTimeout = 5 * time.Second
)

// PageSource renders a listing URL and returns its DOM snapshot
type PageSource interface {
	Render(url string) (string, error)
}

// SourceOptions configures a RodSource
type SourceOptions struct {
	UserAgent         string
	NavigationTimeout time.Duration
	SettlePeriod      time.Duration
	Logger            *log.Logger
}

// RodSource loads pages in the shared browser session
type RodSource struct {
	session    *Session
	userAgent  string
	navTimeout time.Duration
	settle     time.Duration
	log        *log.Logger
}

// NewRodSource creates a page source on top of session
func NewRodSource(session *Session, opts SourceOptions) *RodSource {
	s := &RodSource{
		session:    session,
		userAgent:  opts.UserAgent,
		navTimeout: opts.NavigationTimeout,
		settle:     opts.SettlePeriod,
		log:        opts.Logger,
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.navTimeout <= 0 {
		s.navTimeout = DefaultNavigationTimeout
	}
	if s.settle < 0 {
		s.settle = 0
	}
	if s.log == nil {
		s.log = log.Default()
	}
	return s
}

// Render opens a fresh page, waits for the network to go idle plus the
// settle period, and returns the rendered HTML. The page is always closed;
// the session stays open unless the browser no longer answers.
func (s *RodSource) Render(url string) (string, error) {
	browser, err := s.session.Ensure()
	if err != nil {
		return "", err
	}

	html, err := s.render(browser, url)
	if err != nil && !alive(browser) {
		s.log.Warn("browser connection lost", "url", url, "err", err)
		s.session.Reset(browser)
	}
	return html, err
}

func alive(browser *rod.Browser) bool {
	_, err := browser.Timeout(browserCheckTimeout).Version()
	return err == nil
}

func (s *RodSource) render(browser *rod.Browser, url string) (string, error) {
	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.log.Warn("failed to close page", "url", url, "err", err)
		}
	}()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}

	p := page.Timeout(s.navTimeout)
	defer p.CancelTimeout()

	waitIdle := p.WaitRequestIdle(requestIdleWindow, nil, nil, nil)

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("page load failed: %w", err)
	}
	waitIdle()

	// Client-side rendering keeps filling the DOM after network idle
	time.Sleep(s.settle)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}

	s.log.Debug("page rendered", "url", url, "bytes", len(html))
	return html, nil
}
