package tools

import (
	"github.com/crawlspace/crawlspace/internal/config"
	"github.com/crawlspace/crawlspace/internal/crawler"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CrawlResult is the uniform per-URL outcome returned by every tool. The
// engine's native page type never crosses this boundary.
type CrawlResult struct {
	Status       string `json:"status"`
	URL          string `json:"url,omitempty"`
	Content      string `json:"content,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Screenshot   string `json:"screenshot,omitempty"`
}

// shapeResult normalises an engine page into a CrawlResult, selecting the
// HTML or markdown body per the configured content type.
func shapeResult(page *crawler.Page, contentType config.ContentType) CrawlResult {
	if page == nil {
		return CrawlResult{
			Status:       StatusError,
			ErrorMessage: "unexpected empty result from crawler",
		}
	}

	if !page.Success {
		msg := page.Error
		if msg == "" {
			msg = "unknown crawl error"
		}
		return CrawlResult{
			Status:       StatusError,
			URL:          page.URL,
			ErrorMessage: msg,
		}
	}

	if contentType == config.ContentHTML {
		return CrawlResult{
			Status:     StatusSuccess,
			URL:        page.URL,
			Content:    page.HTML,
			Screenshot: page.ScreenshotPath,
		}
	}

	if page.Markdown == "" {
		return CrawlResult{
			Status:       StatusError,
			URL:          page.URL,
			ErrorMessage: "the crawler failed to extract any valid content",
		}
	}

	return CrawlResult{
		Status:     StatusSuccess,
		URL:        page.URL,
		Content:    page.Markdown,
		Screenshot: page.ScreenshotPath,
	}
}
