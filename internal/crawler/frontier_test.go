package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierBFSPopsInDiscoveryOrder(t *testing.T) {
	f := newFrontier(StrategyBFS, nil)
	f.push("https://example.com/a", 0)
	f.push("https://example.com/b", 1)
	f.push("https://example.com/c", 1)

	var order []string
	for {
		entry, ok := f.pop()
		if !ok {
			break
		}
		order = append(order, entry.url)
	}

	assert.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, order)
}

func TestFrontierBestFirstPopsHighestScoreFirst(t *testing.T) {
	f := newFrontier(StrategyBestFirst, []string{"golang", "crawler"})
	f.push("https://example.com/pricing", 1)
	f.push("https://example.com/golang-crawler", 1)
	f.push("https://example.com/golang", 1)

	first, ok := f.pop()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/golang-crawler", first.url)

	second, ok := f.pop()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/golang", second.url)

	third, ok := f.pop()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/pricing", third.url)
}

func TestFrontierBestFirstBreaksTiesByDiscoveryOrder(t *testing.T) {
	f := newFrontier(StrategyBestFirst, []string{"docs"})
	f.push("https://example.com/docs/first", 1)
	f.push("https://example.com/docs/second", 1)
	f.push("https://example.com/docs/third", 1)

	var order []string
	for {
		entry, ok := f.pop()
		if !ok {
			break
		}
		order = append(order, entry.url)
	}

	assert.Equal(t, []string{
		"https://example.com/docs/first",
		"https://example.com/docs/second",
		"https://example.com/docs/third",
	}, order)
}

func TestFrontierPopOnEmpty(t *testing.T) {
	f := newFrontier(StrategyBFS, nil)

	_, ok := f.pop()
	assert.False(t, ok)
	assert.Equal(t, 0, f.len())
}

func TestKeywordScorer(t *testing.T) {
	s := newKeywordScorer([]string{"Golang", " crawler ", ""})

	assert.Equal(t, 1.0, s.score("https://example.com/golang-crawler"))
	assert.Equal(t, 0.5, s.score("https://example.com/golang"))
	assert.Equal(t, 0.0, s.score("https://example.com/pricing"))
}
