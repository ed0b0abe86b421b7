// Package crawler implements the crawl engine behind the MCP tools:
// single-page fetches, ordered multi-URL fetches, and depth/page-bounded
// deep crawls with breadth-first or best-first traversal.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/crawlspace/crawlspace/internal/config"
	"github.com/crawlspace/crawlspace/internal/markdown"
)

const (
	defaultTimeout   = 30 * time.Second
	maxParallelism   = 10
	defaultUserAgent = "Crawlspace/1.0 (+https://github.com/crawlspace/crawlspace)"
)

// Crawler fetches and renders pages. A single instance is shared by all
// tool invocations for the lifetime of the process.
type Crawler struct {
	cache    *cacheStore
	renderer *renderer
}

// New creates a Crawler configured from the process settings.
func New(settings config.Settings) *Crawler {
	return &Crawler{
		cache:    newCacheStore(),
		renderer: newRenderer(settings),
	}
}

// newCollector builds a collector for a single run, wired to the run's
// cache policy. Each run gets its own collector so concurrent fetches never
// share mutable collector state.
func (c *Crawler) newCollector(rc RunConfig) *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.MaxDepth(1),
		colly.Async(true),
		colly.AllowURLRevisit(),
	)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: maxParallelism,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to apply collector limit rule")
	}

	collector.SetClient(&http.Client{
		Timeout:   defaultTimeout,
		Transport: newCachingTransport(nil, c.cache, rc.CacheMode),
	})

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")

		log.Debug().
			Str("url", r.URL.String()).
			Msg("Crawler sending request")
	})

	return collector
}

// validateURL checks the URL has a scheme and host. Reachability is not
// checked; that is the fetch's job.
func validateURL(targetURL string) (*url.URL, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL format: %s", targetURL)
	}
	return parsed, nil
}

// Fetch retrieves a single page. Fetch always returns a non-nil Page with
// failures recorded on it; the error return is reserved for context
// cancellation.
func (c *Crawler) Fetch(ctx context.Context, targetURL string, rc RunConfig) (*Page, error) {
	page := &Page{URL: targetURL}

	if _, err := validateURL(targetURL); err != nil {
		page.Error = err.Error()
		return page, nil
	}

	if rc.Screenshot {
		c.renderedFetch(ctx, page)
	} else {
		if err := c.collyFetch(ctx, page, rc); err != nil {
			page.Error = err.Error()
			return page, err
		}
	}

	if page.Error != "" {
		log.Debug().
			Str("url", targetURL).
			Str("error", page.Error).
			Msg("Fetch failed")
		return page, nil
	}

	c.finishPage(page, rc)

	log.Debug().
		Str("url", targetURL).
		Int("status", page.StatusCode).
		Int("word_count", page.WordCount).
		Int("links", len(page.Links)).
		Msg("Fetch completed")

	return page, nil
}

// collyFetch performs a plain HTTP fetch through a per-run collector wired
// to the cache policy of this run. The returned error is non-nil only when
// the context is cancelled.
func (c *Crawler) collyFetch(ctx context.Context, page *Page, rc RunConfig) error {
	clone := c.newCollector(rc)

	clone.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.HTML = string(r.Body)
		page.Success = r.StatusCode >= 200 && r.StatusCode < 300
		if !page.Success {
			page.Error = fmt.Sprintf("non-success status code: %d", r.StatusCode)
		}
	})

	clone.OnError(func(r *colly.Response, err error) {
		page.Error = err.Error()
		if r != nil {
			page.StatusCode = r.StatusCode
		}
	})

	done := make(chan error, 1)
	go func() {
		if err := clone.Visit(page.URL); err != nil {
			done <- err
			return
		}
		clone.Wait()
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil && page.Error == "" {
			page.Error = err.Error()
		}
		return nil
	case <-ctx.Done():
		page.Error = ctx.Err().Error()
		return ctx.Err()
	}
}

// renderedFetch drives a headless browser instead of a plain GET, capturing
// a screenshot alongside the final DOM.
func (c *Crawler) renderedFetch(ctx context.Context, page *Page) {
	html, shot, err := c.renderer.render(ctx, page.URL)
	if err != nil {
		page.Error = err.Error()
		return
	}

	page.HTML = html
	page.StatusCode = http.StatusOK
	page.Success = true

	path, err := saveScreenshot(shot)
	if err != nil {
		log.Warn().Err(err).Str("url", page.URL).Msg("Failed to save screenshot")
		return
	}
	page.ScreenshotPath = path
}

// finishPage derives links, word count, and markdown from the fetched HTML.
// Content below the word-count threshold yields no markdown, which the
// adapter layer reports as an extraction failure.
func (c *Crawler) finishPage(page *Page, rc RunConfig) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		page.Success = false
		page.Error = fmt.Sprintf("parse HTML: %s", err)
		return
	}

	base, _ := url.Parse(page.URL)
	page.Links = extractLinks(doc, base)

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	page.WordCount = len(strings.Fields(text))

	if page.WordCount < rc.WordCountThreshold {
		return
	}

	md, err := markdown.FromHTML(page.HTML)
	if err != nil {
		log.Warn().Err(err).Str("url", page.URL).Msg("Markdown conversion failed")
		return
	}
	page.Markdown = md
}

// extractLinks resolves every anchor on the page to an absolute http(s)
// URL, dropping fragments and non-navigational hrefs.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || href == "#" ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := ref
		if base != nil {
			resolved = base.ResolveReference(ref)
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		resolved.Fragment = ""
		link := resolved.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}

// FetchMany retrieves every URL concurrently, bounded by the collector's
// parallelism, and returns pages in input order. Individual failures are
// recorded per page and never abort sibling fetches.
func (c *Crawler) FetchMany(ctx context.Context, urls []string, rc RunConfig) ([]*Page, error) {
	pages := make([]*Page, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelism)

	for i, u := range urls {
		g.Go(func() error {
			page, err := c.Fetch(gctx, u, rc)
			pages[i] = page
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return pages, err
	}
	return pages, nil
}

// Crawl performs a deep crawl from startURL, streaming pages in visitation
// order. Traversal order is owned by the strategy: BFS visits in discovery
// order, best-first in keyword-relevance order. The channel closes when the
// frontier is exhausted, the page budget is spent, or the context ends.
func (c *Crawler) Crawl(ctx context.Context, startURL string, rc RunConfig) (<-chan *Page, error) {
	start, err := validateURL(startURL)
	if err != nil {
		return nil, err
	}

	out := make(chan *Page)

	go func() {
		defer close(out)

		f := newFrontier(rc.Strategy, rc.Keywords)
		f.push(start.String(), 0)
		seen := map[string]struct{}{start.String(): {}}
		visited := 0

		for visited < rc.MaxPages {
			entry, ok := f.pop()
			if !ok {
				return
			}

			page, err := c.Fetch(ctx, entry.url, rc)
			if err != nil {
				return
			}
			page.Depth = entry.depth
			visited++

			select {
			case out <- page:
			case <-ctx.Done():
				return
			}

			if !page.Success || entry.depth >= rc.MaxDepth {
				continue
			}

			for _, link := range page.Links {
				if _, ok := seen[link]; ok {
					continue
				}
				if !rc.IncludeExternal && !sameHost(start, link) {
					continue
				}
				seen[link] = struct{}{}
				f.push(link, entry.depth+1)
			}
		}
	}()

	return out, nil
}

// sameHost reports whether link points at the same host as the crawl start.
func sameHost(start *url.URL, link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), start.Hostname())
}
