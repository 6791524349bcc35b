package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"rancher-dashboard/config"
	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

const (
	pageTimeout = 60 * time.Second
	// Quality 100 makes chromedp encode PNG instead of JPEG.
	pngQuality = 100
)

// Snapshotter captures the rendered dashboard page once per metric.
type Snapshotter struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Snapshotter.
func New(cfg *config.Config, logger *utils.Logger) *Snapshotter {
	return &Snapshotter{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.SnapshotConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.FetchRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Run screenshots every metric and returns the files written. Metrics that
// still fail after retrying are reported together in the error.
func (s *Snapshotter) Run(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.cfg.SnapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create output dir: %w", err)
	}

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1600, 1200),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// One browser shared by every tab.
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	return s.captureAll(metricKeys(), func(key string) (string, error) {
		return s.capture(browserCtx, key)
	})
}

// captureAll runs capture for every key on the worker pool. Keys that still
// fail are reported together in the error, in key order.
func (s *Snapshotter) captureAll(keys []string, capture func(key string) (string, error)) ([]string, error) {
	var (
		mu      sync.Mutex
		written []string
	)
	failed := make(map[string]bool)
	for _, key := range keys {
		key := key
		s.pool.Submit(func() {
			path, err := capture(key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("[snapshot] %s failed: %v", key, err)
				failed[key] = true
				return
			}
			s.logger.Info("[snapshot] Saved %s", path)
			written = append(written, path)
		})
	}
	s.pool.Wait()

	if len(failed) == 0 {
		return written, nil
	}
	var names []string
	for _, key := range keys {
		if failed[key] {
			names = append(names, key)
		}
	}
	return written, fmt.Errorf("snapshot: %d metric(s) failed: %s", len(names), strings.Join(names, ", "))
}

func metricKeys() []string {
	metrics := models.Metrics()
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = m.Key
	}
	return keys
}

func (s *Snapshotter) capture(browserCtx context.Context, key string) (string, error) {
	target, err := pageURL(s.cfg.SnapshotBaseURL, key)
	if err != nil {
		return "", err
	}

	var img []byte
	err = s.retry.Do(browserCtx, "snapshot "+key, func(context.Context) error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageTimeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(target),
			chromedp.WaitVisible("#map_figure", chromedp.ByID),
			chromedp.Sleep(time.Second),
			chromedp.FullScreenshot(&img, pngQuality),
		)
	})
	if err != nil {
		return "", err
	}

	path := outputPath(s.cfg.SnapshotDir, key)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// pageURL builds the dashboard address for one metric.
func pageURL(base, key string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("metric", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func outputPath(dir, key string) string {
	return filepath.Join(dir, key+".png")
}

// findChromeBinary locates Chrome/Chromium, preferring the configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
