package scraper

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"mercedeshelper/internal/models"
)

// DefaultOutcomeHistory is how many finished crawls State and Outcomes remember
const DefaultOutcomeHistory = 20

// CrawlerOptions wires the crawler stages together
type CrawlerOptions struct {
	Source    PageSource
	Extractor *Extractor
	Assets    *AssetFetcher
	Session   *Session
	Logger    *log.Logger
	History   int
}

// Crawler turns a listing URL into a normalized vehicle record
type Crawler struct {
	source    PageSource
	extractor *Extractor
	assets    *AssetFetcher
	session   *Session
	log       *log.Logger
	now       func() time.Time

	group    singleflight.Group
	mu       sync.Mutex
	inflight map[string]models.CrawlStatus
	outcomes map[string]models.CrawlStatus
	history  int
}

// NewCrawler creates a crawler. A nil extractor or asset fetcher uses defaults.
func NewCrawler(opts CrawlerOptions) *Crawler {
	c := &Crawler{
		source:    opts.Source,
		extractor: opts.Extractor,
		assets:    opts.Assets,
		session:   opts.Session,
		log:       opts.Logger,
		now:       time.Now,
		inflight:  make(map[string]models.CrawlStatus),
		outcomes:  make(map[string]models.CrawlStatus),
		history:   opts.History,
	}
	if c.history <= 0 {
		c.history = DefaultOutcomeHistory
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.extractor == nil {
		c.extractor = NewExtractor(nil)
	}
	if c.assets == nil {
		c.assets = NewAssetFetcher(AssetOptions{Logger: c.log})
	}
	return c
}

// CrawlVehicle loads, extracts, downloads images for and normalizes one
// listing. It never returns an error value: failures are reported in the
// result. Concurrent calls for the same URL share one execution but each
// caller receives its own copy of the vehicle.
func (c *Crawler) CrawlVehicle(url string) models.CrawlResult {
	v, _, shared := c.group.Do(url, func() (interface{}, error) {
		return c.crawl(url), nil
	})
	if shared {
		c.log.Debug("joined in-flight crawl", "url", url)
	}
	result := v.(models.CrawlResult)
	result.Vehicle = result.Vehicle.Clone()
	return result
}

func (c *Crawler) crawl(url string) (result models.CrawlResult) {
	started := c.now()
	c.setInFlight(url, started)
	defer func() { c.finish(url, started, result) }()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("crawl panicked", "url", url, "panic", r)
			result = models.CrawlResult{Success: false, Error: fmt.Sprintf("crawl aborted: %v", r)}
		}
	}()

	c.log.Info("crawling vehicle", "url", url)

	vehicle, err := c.crawlVehicle(url)
	if err != nil {
		c.log.Error("crawl failed", "url", url, "err", err)
		return models.CrawlResult{Success: false, Error: err.Error()}
	}

	c.log.Info("crawl finished",
		"url", url,
		"model", vehicle.Model,
		"images", len(vehicle.ImageGallery),
		"duration", c.now().Sub(started).Round(time.Millisecond),
	)
	return models.CrawlResult{Success: true, Vehicle: vehicle}
}

func (c *Crawler) crawlVehicle(url string) (*models.Vehicle, error) {
	if c.source == nil {
		return nil, fmt.Errorf("no page source configured")
	}

	html, err := c.source.Render(url)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	raw, err := c.extractor.Extract(url, html)
	if err != nil {
		return nil, fmt.Errorf("failed to extract vehicle data: %w", err)
	}

	gallery := c.assets.DownloadImages(raw.Images)

	var mainImage string
	if raw.MainImage != "" {
		local, err := c.assets.DownloadImage(raw.MainImage)
		if err != nil {
			c.log.Warn("main image download failed", "url", raw.MainImage, "err", err)
		} else {
			mainImage = local
		}
	}

	return Normalize(url, raw, mainImage, gallery, c.now()), nil
}

func (c *Crawler) setInFlight(url string, started time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[url] = models.CrawlStatus{
		URL:       url,
		State:     models.CrawlInProgress.String(),
		StartedAt: started,
	}
}

// finish moves url from the in-flight set to the outcome history
func (c *Crawler) finish(url string, started time.Time, result models.CrawlResult) {
	finished := c.now()
	status := models.CrawlStatus{
		URL:        url,
		State:      models.CrawlSucceeded.String(),
		StartedAt:  started,
		FinishedAt: &finished,
	}
	if !result.Success {
		status.State = models.CrawlFailed.String()
		status.Error = result.Error
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, url)
	c.outcomes[url] = status

	for len(c.outcomes) > c.history {
		oldest := ""
		for u, s := range c.outcomes {
			if oldest == "" || s.FinishedAt.Before(*c.outcomes[oldest].FinishedAt) {
				oldest = u
			}
		}
		delete(c.outcomes, oldest)
	}
}

// InFlight lists the crawls currently running, oldest first
func (c *Crawler) InFlight() []models.CrawlStatus {
	c.mu.Lock()
	statuses := make([]models.CrawlStatus, 0, len(c.inflight))
	for _, status := range c.inflight {
		statuses = append(statuses, status)
	}
	c.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].StartedAt.Equal(statuses[j].StartedAt) {
			return statuses[i].URL < statuses[j].URL
		}
		return statuses[i].StartedAt.Before(statuses[j].StartedAt)
	})
	return statuses
}

// Outcomes lists how the most recent finished crawls ended, newest first
func (c *Crawler) Outcomes() []models.CrawlStatus {
	c.mu.Lock()
	statuses := make([]models.CrawlStatus, 0, len(c.outcomes))
	for _, status := range c.outcomes {
		statuses = append(statuses, status)
	}
	c.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].FinishedAt.Equal(*statuses[j].FinishedAt) {
			return statuses[i].URL < statuses[j].URL
		}
		return statuses[i].FinishedAt.After(*statuses[j].FinishedAt)
	})
	return statuses
}

// State reports the crawl state of url: in progress, the last outcome still
// in the history, or idle.
func (c *Crawler) State(url string) models.CrawlStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if status, ok := c.inflight[url]; ok {
		return status
	}
	if status, ok := c.outcomes[url]; ok {
		return status
	}
	return models.CrawlStatus{URL: url, State: models.CrawlIdle.String()}
}

// Close shuts down the browser session
func (c *Crawler) Close() error {
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

// Settings collects everything needed to assemble a production crawler
type Settings struct {
	SelectorsFile     string
	BrowserBin        string
	UserAgent         string
	NavigationTimeout time.Duration
	SettlePeriod      time.Duration
	UploadsDir        string
	UploadsURLPrefix  string
	MaxImages         int
	ImageTimeout      time.Duration
}

// Setup builds a crawler backed by a headless Chromium session. The
// browser itself is started on the first crawl.
func Setup(s Settings, logger *log.Logger) (*Crawler, error) {
	if logger == nil {
		logger = log.Default()
	}

	selectors := DefaultSelectors()
	if s.SelectorsFile != "" {
		loaded, err := LoadSelectors(s.SelectorsFile)
		if err != nil {
			return nil, err
		}
		selectors = loaded
		logger.Info("loaded selector table", "file", s.SelectorsFile, "version", selectors.Version)
	}

	session := NewSession(SessionOptions{
		BrowserBin: s.BrowserBin,
		Logger:     logger,
	})

	source := NewRodSource(session, SourceOptions{
		UserAgent:         s.UserAgent,
		NavigationTimeout: s.NavigationTimeout,
		SettlePeriod:      s.SettlePeriod,
		Logger:            logger,
	})

	assets := NewAssetFetcher(AssetOptions{
		Dir:       s.UploadsDir,
		URLPrefix: s.UploadsURLPrefix,
		MaxImages: s.MaxImages,
		Timeout:   s.ImageTimeout,
		UserAgent: s.UserAgent,
		Logger:    logger,
	})

	return NewCrawler(CrawlerOptions{
		Source:    source,
		Extractor: NewExtractor(selectors),
		Assets:    assets,
		Session:   session,
		Logger:    logger,
	}), nil
}
