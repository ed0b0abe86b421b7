package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/crawlspace/crawlspace/internal/config"
)

// renderer drives a headless browser for fetches that need a real page
// render (screenshot capture). Sessions are bounded by a semaphore so a
// burst of tool calls cannot spawn unbounded Chrome processes.
type renderer struct {
	headless  bool
	timeout   time.Duration
	semaphore chan struct{}
}

const maxRenderSessions = 4

func newRenderer(settings config.Settings) *renderer {
	// chromedp only drives Chrome; other configured browser kinds fall
	// back to it.
	if settings.BrowserType != config.BrowserChromium {
		log.Warn().
			Str("browser_type", string(settings.BrowserType)).
			Msg("Rendered fetches use Chrome regardless of configured browser type")
	}

	return &renderer{
		headless:  settings.Headless,
		timeout:   60 * time.Second,
		semaphore: make(chan struct{}, maxRenderSessions),
	}
}

// render navigates to the target URL in a fresh browser context and returns
// the final DOM HTML alongside a full-page screenshot.
func (r *renderer) render(parentCtx context.Context, targetURL string) (html string, screenshot []byte, err error) {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return "", nil, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", r.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	err = chromedp.Run(chromeCtx,
		chromedp.Navigate(targetURL),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.FullScreenshot(&screenshot, 90),
	)
	if err != nil {
		return "", nil, fmt.Errorf("render %s: %w", targetURL, err)
	}

	return html, screenshot, nil
}

// saveScreenshot writes a captured screenshot to the temp directory and
// returns its path.
func saveScreenshot(data []byte) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("crawlspace-%s.png", uuid.NewString()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}
