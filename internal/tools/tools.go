// Package tools exposes the crawl engine as MCP tools: a multi-URL crawl,
// a deep crawl with strategy selection, and a search convenience wrapper.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/crawlspace/crawlspace/internal/config"
	"github.com/crawlspace/crawlspace/internal/crawler"
)

const searchResultCount = 10

// Engine is the crawl capability the tools depend on. The production
// implementation is *crawler.Crawler; tests substitute a fake.
type Engine interface {
	Fetch(ctx context.Context, targetURL string, rc crawler.RunConfig) (*crawler.Page, error)
	FetchMany(ctx context.Context, urls []string, rc crawler.RunConfig) ([]*crawler.Page, error)
	Crawl(ctx context.Context, startURL string, rc crawler.RunConfig) (<-chan *crawler.Page, error)
}

// Handler owns the tool implementations. It is stateless across
// invocations; every call builds a fresh run configuration.
type Handler struct {
	engine   Engine
	settings config.Settings
}

// NewHandler creates a Handler bound to an engine and the process settings.
func NewHandler(engine Engine, settings config.Settings) *Handler {
	return &Handler{engine: engine, settings: settings}
}

// Register adds the three crawl tools to the MCP server.
func (h *Handler) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("crawl",
		mcp.WithDescription("Crawl one or more URLs and return their content."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to crawl."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), h.Crawl)

	s.AddTool(mcp.NewTool("deep_crawl",
		mcp.WithDescription("Crawl a website deeply, optionally using keywords to prioritise pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to start crawling from."),
		),
		mcp.WithArray("keywords",
			mcp.Description("Keywords to prioritise pages. If empty, a breadth-first strategy is used."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), h.DeepCrawl)

	s.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Perform a web search and return a markdown page of the top results."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query to perform."),
		),
	), h.Search)
}

// runConfig builds the per-invocation configuration from the settings.
func (h *Handler) runConfig() crawler.RunConfig {
	return crawler.RunConfig{
		CacheMode:          h.settings.CacheMode,
		WordCountThreshold: h.settings.WordCountThreshold,
		Screenshot:         h.settings.Screenshot,
	}
}

// deepRunConfig extends runConfig with the traversal bounds and the
// strategy implied by the keyword list.
func (h *Handler) deepRunConfig(keywords []string) crawler.RunConfig {
	rc := h.runConfig()
	rc.MaxDepth = h.settings.MaxDepth
	rc.MaxPages = h.settings.MaxPages
	rc.IncludeExternal = h.settings.IncludeExternal
	rc.Strategy = crawler.StrategyBFS
	if len(keywords) > 0 {
		rc.Strategy = crawler.StrategyBestFirst
		rc.Keywords = keywords
	}
	return rc
}

type crawlRequest struct {
	URLs []string `json:"urls"`
}

// Crawl fetches every requested URL concurrently and returns one result per
// URL in input order. A failing URL never aborts its siblings.
func (h *Handler) Crawl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args crawlRequest
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.URLs) == 0 {
		return mcp.NewToolResultError("urls must not be empty"), nil
	}
	for _, u := range args.URLs {
		if u == "" {
			return mcp.NewToolResultError("urls must not contain empty entries"), nil
		}
	}

	log.Info().Int("url_count", len(args.URLs)).Msg("Crawl requested")

	pages, err := h.engine.FetchMany(ctx, args.URLs, h.runConfig())
	if err != nil {
		return nil, err
	}

	results := make([]CrawlResult, len(pages))
	for i, page := range pages {
		results[i] = shapeResult(page, h.settings.ContentType)
	}
	return jsonResult(results)
}

type deepCrawlRequest struct {
	URL      string   `json:"url"`
	Keywords []string `json:"keywords,omitempty"`
}

// DeepCrawl traverses a site from the start URL, breadth-first without
// keywords or best-first with them, and returns results in visitation
// order. Failed pages are recorded and traversal continues.
func (h *Handler) DeepCrawl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args deepCrawlRequest
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.URL == "" {
		return mcp.NewToolResultError("url must not be empty"), nil
	}

	rc := h.deepRunConfig(args.Keywords)

	log.Info().
		Str("url", args.URL).
		Str("strategy", string(rc.Strategy)).
		Int("max_depth", rc.MaxDepth).
		Int("max_pages", rc.MaxPages).
		Msg("Deep crawl requested")

	pages, err := h.engine.Crawl(ctx, args.URL, rc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var results []CrawlResult
	for page := range pages {
		results = append(results, shapeResult(page, h.settings.ContentType))
	}
	return jsonResult(results)
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search fetches a web-search results page for the query and returns a
// single result whose body is a markdown rendering of the top listings.
func (h *Handler) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchRequest
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Query == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	searchURL := fmt.Sprintf("https://www.google.com/search?q=%s&start=0&num=%d",
		url.QueryEscape(args.Query), searchResultCount)

	log.Info().Str("query", args.Query).Msg("Search requested")

	page, err := h.engine.Fetch(ctx, searchURL, h.runConfig())
	if err != nil {
		return nil, err
	}

	// Search output is a markdown digest of the results page regardless of
	// the configured content type.
	return jsonResult(shapeResult(page, config.ContentMarkdown))
}

// jsonResult marshals a tool payload into a text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
