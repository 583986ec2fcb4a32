// Package httpcache is an opt-in response cache for idempotent Cloudera API
// reads. Only GET requests are cached. A successful write evicts the cached
// reads of the project it touched, so a list that follows a delete is never
// served stale.
package httpcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTTL        = 60 * time.Second
	defaultMaxEntries = 512
)

const (
	EnvEnabled    = "CML_MCP_HTTP_CACHE_ENABLED"
	EnvTTLSeconds = "CML_MCP_HTTP_CACHE_TTL_SECONDS"
	EnvMaxEntries = "CML_MCP_HTTP_CACHE_MAX_ENTRIES"
)

type Config struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

func DefaultConfig() Config {
	return Config{TTL: defaultTTL, MaxEntries: defaultMaxEntries}
}

// WithEnv overlays the CML_MCP_HTTP_CACHE_* variables on c. Invalid values
// are ignored.
func (c Config) WithEnv() Config {
	if v := strings.TrimSpace(os.Getenv(EnvEnabled)); v != "" {
		c.Enabled = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	if v := strings.TrimSpace(os.Getenv(EnvTTLSeconds)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.TTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxEntries)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxEntries = n
		}
	}
	return c
}

func ConfigFromEnv() Config {
	return DefaultConfig().WithEnv()
}

// Observer is told whether each cacheable request was served from the cache.
type Observer func(hit bool)

type Transport struct {
	base    http.RoundTripper
	store   *store
	observe Observer

	keyHeaders []string
}

// NewTransport wraps base. When the cache is disabled base is returned as is.
func NewTransport(base http.RoundTripper, cfg Config, observe Observer) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !cfg.Enabled {
		return base
	}
	if observe == nil {
		observe = func(bool) {}
	}
	return &Transport{
		base:       base,
		store:      newStore(cfg.TTL, cfg.MaxEntries),
		observe:    observe,
		keyHeaders: []string{"Authorization", "Accept"},
	}
}

// Len reports the number of cached responses.
func (t *Transport) Len() int { return t.store.len() }

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("httpcache: nil request")
	}
	if !strings.EqualFold(req.Method, http.MethodGet) {
		return t.write(req)
	}

	key := req.Method + " " + req.URL.String() + " " + fingerprintHeaders(req.Header, t.keyHeaders)

	if ent, ok := t.store.get(key); ok {
		if ent.fresh(t.store.ttl, time.Now()) {
			t.observe(true)
			return cachedResponse(req, ent), nil
		}

		// Stale: revalidate with the stored ETag when there is one.
		if ent.etag != "" {
			req2 := req.Clone(req.Context())
			req2.Header = cloneHeader(req.Header)
			req2.Header.Set("If-None-Match", ent.etag)

			resp, err := t.base.RoundTrip(req2)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotModified {
				t.store.touch(key, time.Now())
				t.observe(true)
				return cachedResponse(req, ent), nil
			}

			t.observe(false)
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			return t.keep(req, resp, key, b), nil
		}
	}

	t.observe(false)
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return t.keep(req, resp, key, b), nil
}

// write forwards a mutating request and, when it succeeds, evicts the
// cached reads under the same project.
func (t *Transport) write(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		t.store.invalidate(scope(req.URL.Path))
	}
	return resp, nil
}

// keep caches only successful responses so retries of 5xx stay live. A 2xx
// body carrying a top-level "error" is a failure to the API client and is
// not cached either.
func (t *Transport) keep(req *http.Request, resp *http.Response, key string, body []byte) *http.Response {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || carriesError(body) {
		return responseWithBody(req, resp, body, resp.Header)
	}
	ent := t.store.put(entry{
		key:      key,
		path:     req.URL.Path,
		status:   resp.StatusCode,
		header:   resp.Header,
		body:     body,
		storedAt: time.Now(),
	})
	return responseWithBody(req, resp, body, ent.header)
}

func carriesError(body []byte) bool {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return false
	}
	v, ok := top["error"]
	return ok && string(bytes.TrimSpace(v)) != "null"
}

func responseWithBody(req *http.Request, resp *http.Response, body []byte, header http.Header) *http.Response {
	return &http.Response{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Header:        cloneHeader(header),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
		Proto:         resp.Proto,
		ProtoMajor:    resp.ProtoMajor,
		ProtoMinor:    resp.ProtoMinor,
	}
}

func cachedResponse(req *http.Request, ent entry) *http.Response {
	status := ent.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:        cloneHeader(ent.header),
		Body:          io.NopCloser(bytes.NewReader(ent.body)),
		ContentLength: int64(len(ent.body)),
		Request:       req,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
}
