package crawler

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/crawlspace/crawlspace/internal/config"
)

// cachedResponse stores enough of an HTTP response to replay it.
type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// cacheStore is a process-lifetime store of successful GET responses,
// shared by every transport the engine builds.
type cacheStore struct {
	mu      sync.RWMutex
	entries map[string]*cachedResponse
}

func newCacheStore() *cacheStore {
	return &cacheStore{entries: make(map[string]*cachedResponse)}
}

func (c *cacheStore) get(key string) (*cachedResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *cacheStore) put(key string, entry *cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// cachingTransport wraps an http.RoundTripper with the configured cache
// policy. Only successful GET responses are cached.
type cachingTransport struct {
	transport http.RoundTripper
	store     *cacheStore
	mode      config.CacheMode
}

func newCachingTransport(transport http.RoundTripper, store *cacheStore, mode config.CacheMode) *cachingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &cachingTransport{transport: transport, store: store, mode: mode}
}

// RoundTrip implements http.RoundTripper, consulting and populating the
// store according to the cache mode.
func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.mode == config.CacheDisabled {
		return t.transport.RoundTrip(req)
	}

	key := req.URL.String()

	switch t.mode {
	case config.CacheBypass:
		bypass := req.Clone(req.Context())
		bypass.Header.Set("Cache-Control", "no-cache")
		return t.transport.RoundTrip(bypass)
	case config.CacheEnabled, config.CacheReadOnly:
		if entry, ok := t.store.get(key); ok {
			return entry.response(req), nil
		}
	}

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	writes := t.mode == config.CacheEnabled || t.mode == config.CacheWriteOnly
	if !writes || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	t.store.put(key, &cachedResponse{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		body:   body,
	})

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// response replays a cached entry as a fresh http.Response for req.
func (e *cachedResponse) response(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    e.status,
		Status:        http.StatusText(e.status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}
