package httpcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	key      string
	path     string
	status   int
	header   http.Header
	body     []byte
	etag     string
	storedAt time.Time
}

func (e entry) fresh(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.storedAt) < ttl
}

// store is a bounded LRU of GET responses keyed by method, URL and the
// credential fingerprint.
type store struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recent
}

func newStore(ttl time.Duration, maxEntries int) *store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl < 0 {
		ttl = 0
	}
	return &store{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    map[string]*list.Element{},
		lru:        list.New(),
	}
}

func (s *store) get(key string) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	s.lru.MoveToFront(el)
	return el.Value.(entry), true
}

func (s *store) put(ent entry) entry {
	ent.header = cloneHeader(ent.header)
	ent.body = append([]byte(nil), ent.body...)
	ent.etag = strings.TrimSpace(ent.header.Get("ETag"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[ent.key]; ok {
		el.Value = ent
		s.lru.MoveToFront(el)
		return ent
	}
	s.entries[ent.key] = s.lru.PushFront(ent)

	for s.lru.Len() > s.maxEntries {
		s.removeLocked(s.lru.Back())
	}
	return ent
}

func (s *store) touch(key string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.entries[key]; ok {
		ent := el.Value.(entry)
		ent.storedAt = at
		el.Value = ent
		s.lru.MoveToFront(el)
	}
}

// invalidate drops every entry a write to project can affect. An empty
// project clears the store.
func (s *store) invalidate(project string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for el := s.lru.Front(); el != nil; {
		next := el.Next()
		if affects(el.Value.(entry).path, project) {
			s.removeLocked(el)
			n++
		}
		el = next
	}
	return n
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

func (s *store) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	delete(s.entries, el.Value.(entry).key)
	s.lru.Remove(el)
}

// scope returns the project id a write to path touches, or "" when the
// write is outside any project.
func scope(path string) string {
	parts := apiParts(path)
	// api / v1|v2 / projects / {id}
	if len(parts) >= 4 && parts[2] == "projects" {
		return parts[3]
	}
	return ""
}

// affects reports whether a cached read of path may change after a write
// to project: the project's own resources under any API version, and the
// project collection, whose entries carry names and metadata.
func affects(path, project string) bool {
	if project == "" {
		return true
	}
	parts := apiParts(path)
	if len(parts) < 3 || parts[2] != "projects" {
		return false
	}
	return len(parts) == 3 || parts[3] == project
}

func apiParts(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return nil
	}
	return parts
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vv := range h {
		out[k] = append([]string(nil), vv...)
	}
	return out
}

func fingerprintHeaders(h http.Header, keys []string) string {
	type kv struct{ k, v string }
	pairs := make([]kv, 0, len(keys))
	for _, k := range keys {
		k = http.CanonicalHeaderKey(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if v := strings.TrimSpace(h.Get(k)); v != "" {
			pairs = append(pairs, kv{k, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	sum := sha256.New()
	for _, p := range pairs {
		sum.Write([]byte(p.k))
		sum.Write([]byte{0})
		sum.Write([]byte(p.v))
		sum.Write([]byte{0})
	}
	return hex.EncodeToString(sum.Sum(nil))
}
