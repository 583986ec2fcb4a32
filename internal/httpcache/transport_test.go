package httpcache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, cl *http.Client, url, auth string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := cl.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestTransportETagRevalidate304(t *testing.T) {
	var gotIfNoneMatch atomic.Value
	var hitCount atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitCount.Add(1)
		if inm := r.Header.Get("If-None-Match"); inm != "" {
			gotIfNoneMatch.Store(inm)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("hello"))
	}))
	t.Cleanup(srv.Close)

	var hits atomic.Int64
	cl := &http.Client{Transport: NewTransport(nil, Config{Enabled: true, TTL: 0, MaxEntries: 32}, func(hit bool) {
		if hit {
			hits.Add(1)
		}
	})}

	_, b1 := get(t, cl, srv.URL+"/x", "")
	assert.Equal(t, "hello", b1)

	_, b2 := get(t, cl, srv.URL+"/x", "")
	assert.Equal(t, "hello", b2, "expected cached body after 304")
	assert.Equal(t, `"v1"`, gotIfNoneMatch.Load())
	assert.EqualValues(t, 2, hitCount.Load())
	assert.EqualValues(t, 1, hits.Load())
}

func TestTransportCacheKeySeparatesAuth(t *testing.T) {
	var hitCount atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitCount.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	cl := &http.Client{Transport: NewTransport(nil, Config{Enabled: true, TTL: time.Minute, MaxEntries: 32}, nil)}

	get(t, cl, srv.URL+"/x", "Bearer A")
	get(t, cl, srv.URL+"/x", "Bearer B")
	get(t, cl, srv.URL+"/x", "Bearer A")

	assert.EqualValues(t, 2, hitCount.Load(), "different keys must not share entries")
}

func TestTransportDoesNotCacheErrors(t *testing.T) {
	var hitCount atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hitCount.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	cl := &http.Client{Transport: NewTransport(nil, Config{Enabled: true, TTL: time.Minute, MaxEntries: 32}, nil)}

	status, _ := get(t, cl, srv.URL+"/x", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, body := get(t, cl, srv.URL+"/x", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestNewTransportDisabledReturnsBase(t *testing.T) {
	base := &http.Transport{}
	assert.Same(t, base, NewTransport(base, Config{}, nil))
}

func TestConfigWithEnv(t *testing.T) {
	t.Setenv(EnvEnabled, "yes")
	t.Setenv(EnvTTLSeconds, "5")
	t.Setenv(EnvMaxEntries, "nope")

	cfg := ConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.TTL)
	assert.Equal(t, 512, cfg.MaxEntries)
}

func TestConfigFromEnvDisabledByDefault(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	assert.False(t, ConfigFromEnv().Enabled)
}

func TestTransportWriteInvalidatesProject(t *testing.T) {
	var version atomic.Int64
	var reads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			version.Add(1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		reads.Add(1)
		_, _ = w.Write([]byte(strconv.FormatInt(version.Load(), 10)))
	}))
	t.Cleanup(srv.Close)

	tr := NewTransport(nil, Config{Enabled: true, TTL: time.Minute, MaxEntries: 32}, nil)
	cl := &http.Client{Transport: tr}
	send := func(t *testing.T, method, path string) {
		t.Helper()
		req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := cl.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	warm := []string{
		"/api/v2/projects",
		"/api/v2/projects/p1/jobs",
		"/api/v1/projects/p1/models/m/deployments/d",
		"/api/v2/projects/p2/jobs",
		"/api/v2/runtimes",
	}
	for _, p := range warm {
		_, body := get(t, cl, srv.URL+p, "")
		require.Equal(t, "0", body, p)
	}
	require.Equal(t, 5, tr.(*Transport).Len())

	cases := []struct {
		name   string
		method string
		path   string
		stale  []string
		kept   []string
	}{
		{
			name:   "delete job",
			method: http.MethodDelete,
			path:   "/api/v2/projects/p1/jobs/j1",
			stale:  []string{"/api/v2/projects/p1/jobs", "/api/v2/projects"},
			kept:   []string{"/api/v2/projects/p2/jobs", "/api/v2/runtimes"},
		},
		{
			name:   "update project",
			method: http.MethodPatch,
			path:   "/api/v2/projects/p1",
			stale:  []string{"/api/v2/projects", "/api/v1/projects/p1/models/m/deployments/d"},
			kept:   []string{"/api/v2/projects/p2/jobs"},
		},
		{
			name:   "stop deployment refreshes legacy read",
			method: http.MethodPost,
			path:   "/api/v2/projects/p1/models/m/deployments/d:stop",
			stale:  []string{"/api/v1/projects/p1/models/m/deployments/d"},
			kept:   []string{"/api/v2/runtimes"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, p := range append(append([]string{}, tc.stale...), tc.kept...) {
				get(t, cl, srv.URL+p, "")
			}
			send(t, tc.method, tc.path)
			want := strconv.FormatInt(version.Load(), 10)

			for _, p := range tc.stale {
				_, body := get(t, cl, srv.URL+p, "")
				assert.Equal(t, want, body, "%s must be refetched", p)
			}
			for _, p := range tc.kept {
				before := reads.Load()
				get(t, cl, srv.URL+p, "")
				assert.Equal(t, before, reads.Load(), "%s must stay cached", p)
			}
		})
	}
}

func TestTransportDoesNotCacheErrorBodies(t *testing.T) {
	var reads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reads.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"error":{"message":"not ready"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":null,"id":"p1"}`))
	}))
	t.Cleanup(srv.Close)

	cl := &http.Client{Transport: NewTransport(nil, Config{Enabled: true, TTL: time.Minute, MaxEntries: 32}, nil)}

	_, body := get(t, cl, srv.URL+"/api/v2/projects/p1", "")
	assert.Contains(t, body, "not ready")
	_, body = get(t, cl, srv.URL+"/api/v2/projects/p1", "")
	assert.Contains(t, body, `"id":"p1"`)
	get(t, cl, srv.URL+"/api/v2/projects/p1", "")
	assert.EqualValues(t, 2, reads.Load(), "a null error is a success and is cached")
}

func TestTransportEvictsLeastRecentlyUsed(t *testing.T) {
	var reads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reads.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	cl := &http.Client{Transport: NewTransport(nil, Config{Enabled: true, TTL: time.Minute, MaxEntries: 2}, nil)}

	get(t, cl, srv.URL+"/a", "")
	get(t, cl, srv.URL+"/b", "")
	get(t, cl, srv.URL+"/a", "")
	get(t, cl, srv.URL+"/c", "") // evicts /b
	get(t, cl, srv.URL+"/a", "")
	require.EqualValues(t, 3, reads.Load())

	get(t, cl, srv.URL+"/b", "")
	assert.EqualValues(t, 4, reads.Load())
}

func TestScope(t *testing.T) {
	cases := map[string]string{
		"/api/v2/projects/abc/jobs/j1": "abc",
		"/api/v1/projects/abc/models":  "abc",
		"/api/v2/projects/abc":         "abc",
		"/api/v2/projects":             "",
		"/api/v2/runtimes":             "",
		"/healthz":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, scope(in), in)
	}
}

func TestAffects(t *testing.T) {
	assert.True(t, affects("/api/v1/projects/p1/models/m", "p1"))
	assert.True(t, affects("/api/v2/projects", "p1"))
	assert.False(t, affects("/api/v2/projects/p2", "p1"))
	assert.False(t, affects("/api/v2/runtimes", "p1"))
	assert.True(t, affects("/api/v2/runtimes", ""))
}
