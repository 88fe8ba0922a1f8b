package scraper

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxImages       = 10
	DefaultImageTimeout    = 10 * time.Second
	DefaultUploadsDir      = "uploads"
	DefaultUploadsPrefix   = "/uploads"
	defaultImageWorkers    = 4
	imageNameSuffixLength  = 9
	imageNameCreateRetries = 3
	base36Alphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// AssetOptions configures an AssetFetcher
type AssetOptions struct {
	Client      *http.Client
	Dir         string
	URLPrefix   string
	MaxImages   int
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
	Logger      *log.Logger
}

// AssetFetcher downloads listing images into the local uploads directory
type AssetFetcher struct {
	client      *http.Client
	dir         string
	prefix      string
	maxImages   int
	timeout     time.Duration
	concurrency int
	userAgent   string
	log         *log.Logger

	now    func() time.Time
	random io.Reader
}

// NewAssetFetcher creates a fetcher with defaults for every unset option
func NewAssetFetcher(opts AssetOptions) *AssetFetcher {
	f := &AssetFetcher{
		client:      opts.Client,
		dir:         opts.Dir,
		prefix:      strings.TrimRight(opts.URLPrefix, "/"),
		maxImages:   opts.MaxImages,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		userAgent:   opts.UserAgent,
		log:         opts.Logger,
		now:         time.Now,
		random:      rand.Reader,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.dir == "" {
		f.dir = DefaultUploadsDir
	}
	if f.prefix == "" {
		f.prefix = DefaultUploadsPrefix
	}
	if f.maxImages <= 0 {
		f.maxImages = DefaultMaxImages
	}
	if f.timeout <= 0 {
		f.timeout = DefaultImageTimeout
	}
	if f.concurrency <= 0 {
		f.concurrency = defaultImageWorkers
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.log == nil {
		f.log = log.Default()
	}
	return f
}

// DownloadImages fetches at most MaxImages of urls and returns the local
// paths of the successful downloads in the order they were attempted.
// Failures are logged and skipped.
func (f *AssetFetcher) DownloadImages(urls []string) []string {
	if len(urls) > f.maxImages {
		urls = urls[:f.maxImages]
	}

	results := make([]string, len(urls))
	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			local, err := f.DownloadImage(u)
			if err != nil {
				f.log.Warn("image download failed", "url", u, "err", err)
				return nil
			}
			results[i] = local
			return nil
		})
	}
	_ = g.Wait()

	paths := make([]string, 0, len(results))
	for _, p := range results {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// DownloadImage fetches one image under its own timeout and stores it as
// vehicle_<unixmillis>_<random>.jpg. It returns the public path of the file.
func (f *AssetFetcher) DownloadImage(imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	file, name, err := f.createImageFile()
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(f.dir, name)
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return path.Join(f.prefix, name), nil
}

// createImageFile opens a new file exclusively so two downloads never share a name
func (f *AssetFetcher) createImageFile() (*os.File, string, error) {
	var lastErr error
	for attempt := 0; attempt < imageNameCreateRetries; attempt++ {
		name, err := f.imageName()
		if err != nil {
			return nil, "", err
		}

		file, err := os.OpenFile(filepath.Join(f.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create image file: %w", err)
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("failed to create image file: %w", lastErr)
}

func (f *AssetFetcher) imageName() (string, error) {
	buf := make([]byte, imageNameSuffixLength)
	if _, err := io.ReadFull(f.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate image name: %w", err)
	}
	for i, b := range buf {
		buf[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return fmt.Sprintf("vehicle_%d_%s.jpg", f.now().UnixMilli(), buf), nil
}
