// Package config loads the process-wide crawler settings from environment
// variables. Settings are read once at startup, validated, and passed by
// value into every component; there is no mutable global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every recognised environment variable.
const EnvPrefix = "CRAWLSPACE_"

// BrowserType selects the browser engine used for rendered fetches.
type BrowserType string

const (
	BrowserChromium BrowserType = "chromium"
	BrowserFirefox  BrowserType = "firefox"
	BrowserWebkit   BrowserType = "webkit"
)

// CacheMode governs whether cached page fetches are read, written, both,
// or bypassed entirely.
type CacheMode string

const (
	CacheEnabled   CacheMode = "enabled"
	CacheDisabled  CacheMode = "disabled"
	CacheReadOnly  CacheMode = "read_only"
	CacheWriteOnly CacheMode = "write_only"
	CacheBypass    CacheMode = "bypass"
)

// ContentType selects the body format returned in crawl results.
type ContentType string

const (
	ContentHTML     ContentType = "html"
	ContentMarkdown ContentType = "markdown"
)

// Settings holds the crawler configuration for the lifetime of the process.
// It is immutable once loaded.
type Settings struct {
	BrowserType        BrowserType // Browser engine for rendered fetches
	Headless           bool        // Run the browser in headless mode
	Verbose            bool        // Enable debug-level crawl logging
	Screenshot         bool        // Capture a screenshot of each crawled page
	WordCountThreshold int         // Minimum word count for content to be returned
	CacheMode          CacheMode   // Cache policy for page fetches
	MaxDepth           int         // Maximum depth for deep crawl strategies
	MaxPages           int         // Maximum pages visited by a deep crawl
	IncludeExternal    bool        // Follow links to external domains in deep crawls
	ContentType        ContentType // Body format: html or markdown
}

// Default returns the settings used when no environment overrides are set.
func Default() Settings {
	return Settings{
		BrowserType:        BrowserChromium,
		Headless:           true,
		Verbose:            false,
		Screenshot:         false,
		WordCountThreshold: 10,
		CacheMode:          CacheBypass, // Fresh content by default
		MaxDepth:           2,
		MaxPages:           50,
		IncludeExternal:    false,
		ContentType:        ContentMarkdown,
	}
}

// Load reads all recognised CRAWLSPACE_* variables, applies defaults for any
// that are absent, and validates enumerated and numeric values. It fails
// with an error naming the offending variable and its accepted values.
func Load() (Settings, error) {
	s := Default()

	browser, err := getEnvEnum("BROWSER_TYPE", string(s.BrowserType),
		string(BrowserChromium), string(BrowserFirefox), string(BrowserWebkit))
	if err != nil {
		return Settings{}, err
	}
	s.BrowserType = BrowserType(browser)

	if s.Headless, err = getEnvBool("HEADLESS", s.Headless); err != nil {
		return Settings{}, err
	}
	if s.Verbose, err = getEnvBool("VERBOSE", s.Verbose); err != nil {
		return Settings{}, err
	}
	if s.Screenshot, err = getEnvBool("SCREENSHOT", s.Screenshot); err != nil {
		return Settings{}, err
	}

	if s.WordCountThreshold, err = getEnvInt("WORD_COUNT_THRESHOLD", s.WordCountThreshold, 0); err != nil {
		return Settings{}, err
	}

	mode, err := getEnvEnum("CACHE_MODE", string(s.CacheMode),
		string(CacheEnabled), string(CacheDisabled), string(CacheReadOnly),
		string(CacheWriteOnly), string(CacheBypass))
	if err != nil {
		return Settings{}, err
	}
	s.CacheMode = CacheMode(mode)

	if s.MaxDepth, err = getEnvInt("MAX_DEPTH", s.MaxDepth, 1); err != nil {
		return Settings{}, err
	}
	if s.MaxPages, err = getEnvInt("MAX_PAGES", s.MaxPages, 1); err != nil {
		return Settings{}, err
	}
	if s.IncludeExternal, err = getEnvBool("INCLUDE_EXTERNAL", s.IncludeExternal); err != nil {
		return Settings{}, err
	}

	content, err := getEnvEnum("CONTENT_TYPE", string(s.ContentType),
		string(ContentHTML), string(ContentMarkdown))
	if err != nil {
		return Settings{}, err
	}
	s.ContentType = ContentType(content)

	return s, nil
}

// getEnvEnum reads a prefixed variable and checks it against the accepted
// values, returning the default when the variable is unset.
func getEnvEnum(key, defaultValue string, accepted ...string) (string, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}

	for _, a := range accepted {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("%s%s: invalid value %q, accepted values: %s",
		EnvPrefix, key, value, strings.Join(accepted, ", "))
}

// getEnvBool reads a prefixed variable as a boolean or returns the default
// when the variable is unset.
func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s%s: invalid value %q, accepted values: true, false",
			EnvPrefix, key, value)
	}
	return parsed, nil
}

// getEnvInt reads a prefixed variable as an integer no smaller than min, or
// returns the default when the variable is unset.
func getEnvInt(key string, defaultValue, min int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < min {
		return 0, fmt.Errorf("%s%s: invalid value %q, accepted values: integers >= %d",
			EnvPrefix, key, value, min)
	}
	return parsed, nil
}
