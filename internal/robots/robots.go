// Package robots implements the Robots Cache (C5): per-origin robots.txt
// fetch, parse, and cache, with crawl-delay extraction and wildcard path
// matching.
package robots

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/spider/internal/telemetry"
)

// Decision is the outcome of CheckURL.
type Decision struct {
	Allowed    bool
	CrawlDelay *time.Duration
}

// Cache fetches, parses, and caches robots.txt rules per origin,
// indefinitely within the process. The first CheckURL/GetRules call for an
// origin fetches and caches; concurrent first-references to the same
// origin are serialized by a per-origin lock so the origin is fetched
// exactly once.
type Cache struct {
	httpClient *http.Client
	userAgent  string
	sink       telemetry.Sink

	mu      sync.Mutex
	rules   map[string]*Rules
	locks   map[string]*sync.Mutex
}

// New returns a Cache that fetches robots.txt as userAgent and reports
// events to sink. A nil sink is valid; events are simply dropped.
func New(userAgent string, sink telemetry.Sink) *Cache {
	return &Cache{
		httpClient: defaultHTTPClient(),
		userAgent:  userAgent,
		sink:       sink,
		rules:      make(map[string]*Rules),
		locks:      make(map[string]*sync.Mutex),
	}
}

// NewWithClient is New with an injected *http.Client, for tests that point
// at an httptest.Server.
func NewWithClient(userAgent string, sink telemetry.Sink, client *http.Client) *Cache {
	c := New(userAgent, sink)
	c.httpClient = client
	return c
}

// CheckURL derives the origin from rawURL and reports whether it may be
// crawled along with any robots.txt crawl-delay. A malformed URL is always
// allowed (the malformed-ness is someone else's problem to reject).
func (c *Cache) CheckURL(ctx context.Context, rawURL string) Decision {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		c.emit(telemetry.KindEdgeCase, "", telemetry.NewAttr(telemetry.AttrCategory, "malformed_url_in_robots_check"), telemetry.NewAttr(telemetry.AttrURL, rawURL))
		return Decision{Allowed: true}
	}

	origin := u.Scheme + "://" + u.Host
	rules := c.GetRules(ctx, origin)

	path := u.Path
	if path == "" {
		path = "/"
	}

	allowed := !rules.Disallows(path)
	if !allowed {
		c.emit(telemetry.KindRobotsBlocked, u.Host, telemetry.NewAttr(telemetry.AttrURL, rawURL), telemetry.NewAttr(telemetry.AttrPath, path))
	}
	return Decision{Allowed: allowed, CrawlDelay: rules.CrawlDelay}
}

// GetRules returns the cached Rules for origin, fetching and parsing
// robots.txt on first reference. Network failure or a non-2xx response
// resolves to an empty (allow-all) Rules value, which is itself cached.
func (c *Cache) GetRules(ctx context.Context, origin string) *Rules {
	lock := c.originLock(origin)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	if cached, ok := c.rules[origin]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	groups, fetchErr := httpFetch(ctx, c.httpClient, c.userAgent, origin)
	fetchedAt := time.Now()

	if fetchErr != nil {
		c.emit(telemetry.KindEdgeCase, origin,
			telemetry.NewAttr(telemetry.AttrCategory, "robots_fetch_error"),
			telemetry.NewAttr(telemetry.AttrCause, mapErrorToCause(fetchErr).String()),
			telemetry.NewAttr(telemetry.AttrError, fetchErr.Error()))
		groups = nil
	}

	rules := newRules(origin, groups, c.userAgent, fetchedAt)

	c.mu.Lock()
	c.rules[origin] = rules
	c.mu.Unlock()

	return rules
}

func (c *Cache) originLock(origin string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[origin]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[origin] = lock
	}
	return lock
}

func (c *Cache) emit(kind telemetry.EventKind, domain string, fields ...telemetry.Attribute) {
	if c.sink == nil {
		return
	}
	c.sink.Emit(telemetry.Event{Time: time.Now(), Kind: kind, Domain: domain, Fields: fields})
}
