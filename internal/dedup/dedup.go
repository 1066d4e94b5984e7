// Package dedup implements the thread-safe, normalized URL set each Domain
// Crawl Engine uses to decide whether a URL has already been claimed.
package dedup

import (
	"sync"

	"github.com/rohmanhakim/spider/internal/urlnorm"
)

// Set maintains a set of URLs, keyed by their internal/urlnorm.Normalize
// form unless normalization is disabled (per Config.NormalizeURLsForDeduplication,
// spec.md §4.1), in which case the raw URL string is the key. Operations are
// serialized by a single mutex so that try_add's check-and-insert is
// indivisible across concurrent callers.
type Set struct {
	mu        sync.Mutex
	visited   map[string]struct{}
	normalize bool
}

// New returns an empty Set. normalize controls whether keys are passed
// through urlnorm.Normalize before being compared/stored, per
// Config.NormalizeURLsForDeduplication().
func New(normalize bool) *Set {
	return &Set{visited: make(map[string]struct{}), normalize: normalize}
}

func (s *Set) key(rawURL string) string {
	if !s.normalize {
		return rawURL
	}
	return urlnorm.Normalize(rawURL)
}

// TryAdd keys rawURL and inserts it if absent, returning true only for the
// caller that performed the insertion. Exactly one concurrent caller racing
// on the same URL receives true.
func (s *Set) TryAdd(rawURL string) bool {
	key := s.key(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.visited[key]; exists {
		return false
	}
	s.visited[key] = struct{}{}
	return true
}

// Contains reports whether rawURL's key has already been added.
func (s *Set) Contains(rawURL string) bool {
	key := s.key(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.visited[key]
	return exists
}

// Size returns the number of distinct keys currently held: normalized URLs
// when normalization is on, raw URLs otherwise.
func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// Clear empties the set.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.visited)
}

// Seed adds every URL in urls without reporting per-URL outcomes, for
// priming a set from persisted visited_urls on resume.
func (s *Set) Seed(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range urls {
		s.visited[s.key(u)] = struct{}{}
	}
}
