package crawler

import "github.com/crawlspace/crawlspace/internal/config"

// Strategy selects the traversal order for a deep crawl.
type Strategy string

const (
	// StrategyBFS visits pages level by level from the start URL.
	StrategyBFS Strategy = "bfs"
	// StrategyBestFirst visits pages in keyword-relevance order.
	StrategyBestFirst Strategy = "best_first"
)

// RunConfig is built fresh for each crawl invocation by merging the process
// settings with call-specific arguments. It is owned solely by that
// invocation and never retained.
type RunConfig struct {
	CacheMode          config.CacheMode
	WordCountThreshold int
	Screenshot         bool

	// Deep-crawl parameters; ignored by single-page fetches.
	Strategy        Strategy
	Keywords        []string
	MaxDepth        int
	MaxPages        int
	IncludeExternal bool
}

// Page is the engine-native outcome of fetching one URL. It never leaks
// past the tool adapter layer.
type Page struct {
	URL            string
	StatusCode     int
	HTML           string
	Markdown       string
	WordCount      int
	Depth          int
	Links          []string
	ScreenshotPath string
	Success        bool
	Error          string
}
