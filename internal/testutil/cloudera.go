// Package testutil provides an in-process stand-in for the Cloudera AI/ML
// REST API and helpers for opt-in live tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
)

// APIKey is the bearer token the fake server expects.
const APIKey = "test-api-key"

// Recorded is one request seen by the fake server.
type Recorded struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Auth        string
	Body        []byte
}

// JSON decodes the recorded body.
func (r Recorded) JSON(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(r.Body, &out); err != nil {
		t.Fatalf("decode recorded body %q: %v", r.Body, err)
	}
	return out
}

// FakeCloudera routes "METHOD /path" to canned handlers and records every
// request. Unrouted requests get a JSON 404.
type FakeCloudera struct {
	Server *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []Recorded
}

func NewFakeCloudera(t *testing.T) *FakeCloudera {
	t.Helper()
	f := &FakeCloudera{routes: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Handle registers h for method and path. The path is matched exactly,
// without the query string.
func (f *FakeCloudera) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

// JSON registers a handler replying with status and body encoded as JSON.
func (f *FakeCloudera) JSON(method, path string, status int, body any) {
	f.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns a copy of the recorded requests.
func (f *FakeCloudera) Requests() []Recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Recorded(nil), f.requests...)
}

// Last returns the most recent request.
func (f *FakeCloudera) Last(t *testing.T) Recorded {
	t.Helper()
	reqs := f.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request reached the fake server")
	}
	return reqs[len(reqs)-1]
}

// Config points a configuration at the fake server.
func (f *FakeCloudera) Config(projectID string) config.Config {
	cfg := config.Default()
	cfg.Host = f.Server.URL
	cfg.APIKey = APIKey
	cfg.ProjectID = projectID
	cfg.Timeout = 5 * time.Second
	cfg.SecretsDir = ""
	return cfg
}

func (f *FakeCloudera) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, Recorded{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		Query:       r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
		Auth:        r.Header.Get("Authorization"),
		Body:        body,
	})
	h, ok := f.routes[r.Method+" "+r.URL.EscapedPath()]
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+APIKey {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid token"}})
		return
	}
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"message": "no route for " + r.Method + " " + strings.TrimSpace(r.URL.Path)},
		})
		return
	}
	h(w, r)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
