package scraper

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// LaunchFunc starts a browser and returns a connected handle
type LaunchFunc func() (*rod.Browser, error)

// CloseFunc shuts a browser down
type CloseFunc func(*rod.Browser) error

// SessionOptions configures a Session. Zero values use the headless
// Chromium launcher.
type SessionOptions struct {
	BrowserBin string
	Launch     LaunchFunc
	Close      CloseFunc
	Logger     *log.Logger
}

// Session owns the single shared browser process. The browser is started
// lazily on first use and kept until Close.
type Session struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launches int

	launch LaunchFunc
	close  CloseFunc
	log    *log.Logger
}

// NewSession creates a session without starting the browser
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		launch: opts.Launch,
		close:  opts.Close,
		log:    opts.Logger,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.launch == nil {
		s.launch = chromiumLauncher(opts.BrowserBin, s.log)
	}
	if s.close == nil {
		s.close = func(b *rod.Browser) error { return b.Close() }
	}
	return s
}

// Ensure returns the live browser, starting one if none is running.
// Concurrent callers share one launch.
func (s *Session) Ensure() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	browser, err := s.launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.browser = browser
	s.launches++
	s.log.Info("browser session started", "launches", s.launches)
	return browser, nil
}

// Close shuts the browser down. The next Ensure starts a fresh one.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return nil
	}

	browser := s.browser
	s.browser = nil
	if err := s.close(browser); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	s.log.Info("browser session closed")
	return nil
}

// Reset drops browser if it is still the current handle, so the next
// Ensure starts a fresh one. A handle that was already replaced is left alone.
func (s *Session) Reset(browser *rod.Browser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if browser == nil || s.browser != browser {
		return false
	}

	s.browser = nil
	if err := s.close(browser); err != nil {
		s.log.Debug("closing dead browser failed", "err", err)
	}
	s.log.Warn("browser session reset", "launches", s.launches)
	return true
}

// Active reports whether a browser is currently running
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// Launches reports how many browsers this session has started
func (s *Session) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

func chromiumLauncher(bin string, logger *log.Logger) LaunchFunc {
	return func() (*rod.Browser, error) {
		l := launcher.New().
			Headless(true).
			Set("no-sandbox").
			Set("disable-setuid-sandbox").
			Set("disable-dev-shm-usage").
			Set("disable-accelerated-2d-canvas").
			Set("no-first-run").
			Set("no-zygote").
			Set("single-process").
			Set("disable-gpu").
			Set("disable-blink-features", "AutomationControlled").
			Set("window-size", "1920,1080")

		if path := findBrowserBin(bin); path != "" {
			logger.Debug("using browser binary", "path", path)
			l = l.Bin(path)
		}

		controlURL, err := l.Launch()
		if err != nil {
			return nil, err
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("failed to connect to browser: %w", err)
		}
		return browser, nil
	}
}

// findBrowserBin resolves the Chromium binary: explicit path, CHROME_BIN,
// then the usual install locations. Empty lets the launcher download one.
func findBrowserBin(explicit string) string {
	candidates := []string{explicit, os.Getenv("CHROME_BIN")}
	candidates = append(candidates,
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
	)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if path, found := launcher.LookPath(); found {
		return path
	}
	return ""
}
