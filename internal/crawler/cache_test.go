package crawler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlspace/crawlspace/internal/config"
)

// countingServer records how many requests reach the upstream.
func countingServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("upstream body"))
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func fetchBody(t *testing.T, client *http.Client, url string) string {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCacheEnabledServesSecondFetchFromCache(t *testing.T) {
	ts, hits := countingServer(t)
	client := &http.Client{Transport: newCachingTransport(nil, newCacheStore(), config.CacheEnabled)}

	first := fetchBody(t, client, ts.URL)
	second := fetchBody(t, client, ts.URL)

	assert.Equal(t, "upstream body", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCacheBypassAlwaysHitsUpstream(t *testing.T) {
	var sawNoCache atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cache-Control") == "no-cache" {
			sawNoCache.Store(true)
		}
		_, _ = w.Write([]byte("fresh"))
	}))
	defer ts.Close()

	store := newCacheStore()
	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheBypass)}

	fetchBody(t, client, ts.URL)
	fetchBody(t, client, ts.URL)

	assert.True(t, sawNoCache.Load())
	_, cached := store.get(ts.URL)
	assert.False(t, cached)
}

func TestCacheReadOnlyNeverWrites(t *testing.T) {
	ts, hits := countingServer(t)
	store := newCacheStore()
	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheReadOnly)}

	fetchBody(t, client, ts.URL)
	fetchBody(t, client, ts.URL)

	assert.Equal(t, int64(2), hits.Load())
	_, cached := store.get(ts.URL)
	assert.False(t, cached)
}

func TestCacheReadOnlyServesExistingEntries(t *testing.T) {
	ts, hits := countingServer(t)
	store := newCacheStore()

	// Warm the store through a write-capable transport first.
	warm := &http.Client{Transport: newCachingTransport(nil, store, config.CacheEnabled)}
	fetchBody(t, warm, ts.URL)

	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheReadOnly)}
	body := fetchBody(t, client, ts.URL)

	assert.Equal(t, "upstream body", body)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCacheWriteOnlyAlwaysFetchesButStores(t *testing.T) {
	ts, hits := countingServer(t)
	store := newCacheStore()
	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheWriteOnly)}

	fetchBody(t, client, ts.URL)
	fetchBody(t, client, ts.URL)

	assert.Equal(t, int64(2), hits.Load())
	_, cached := store.get(ts.URL)
	assert.True(t, cached)
}

func TestCacheDisabledIsPassthrough(t *testing.T) {
	ts, hits := countingServer(t)
	store := newCacheStore()
	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheDisabled)}

	fetchBody(t, client, ts.URL)
	fetchBody(t, client, ts.URL)

	assert.Equal(t, int64(2), hits.Load())
	_, cached := store.get(ts.URL)
	assert.False(t, cached)
}

func TestCacheIgnoresNonSuccessResponses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	store := newCacheStore()
	client := &http.Client{Transport: newCachingTransport(nil, store, config.CacheEnabled)}

	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, cached := store.get(ts.URL)
	assert.False(t, cached)
}
