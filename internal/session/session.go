// Package session implements the Crawl Session (C9): the entry point that
// takes one or more seeds, applies seed-list deduplication, and launches one
// Domain Crawl Engine per surviving seed with concurrency bounded by
// config.Concurrency(). All engines share one sink and one Robots Cache;
// each engine otherwise exclusively owns its own queue, dedup set, and
// workers, per §5's ownership rule.
package session

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/spider/internal/config"
	"github.com/rohmanhakim/spider/internal/dedup"
	"github.com/rohmanhakim/spider/internal/engine"
	"github.com/rohmanhakim/spider/internal/fetch"
	"github.com/rohmanhakim/spider/internal/robots"
	"github.com/rohmanhakim/spider/internal/state"
	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/internal/urlnorm"
	"github.com/rohmanhakim/spider/pkg/ratelimit"
)

// Seed is one crawl starting point: a URL plus optional caller metadata
// propagated through every CrawlResult derived from it.
type Seed struct {
	URL      string
	Metadata map[string]string
}

// DomainResult is one engine's contribution to a Session's aggregate
// result.
type DomainResult struct {
	Domain       string
	PagesScraped int
	Reason       string
}

// Result is the aggregate outcome of Run, per §4.8.
type Result struct {
	Completed  bool
	TotalPages int
	PerDomain  []DomainResult
}

// Session coordinates one or more Domain Crawl Engines against a shared
// sink and Robots Cache.
type Session struct {
	cfg     config.Config
	robots  *robots.Cache
	fetcher *fetch.Fetcher
	sink    telemetry.Sink
	result  engine.ResultSink
}

// New wires a Session from its shared dependencies. robotsCache may be nil
// when cfg.IgnoreRobotsTxt() is true.
func New(cfg config.Config, robotsCache *robots.Cache, fetcher *fetch.Fetcher, sink telemetry.Sink, result engine.ResultSink) *Session {
	return &Session{cfg: cfg, robots: robotsCache, fetcher: fetcher, sink: sink, result: result}
}

// Run applies seed-list deduplication to seeds, then launches one Domain
// Crawl Engine per surviving seed, at most cfg.Concurrency() at a time, and
// blocks until every engine has completed and fully drained its results.
func (s *Session) Run(ctx context.Context, seeds []Seed) Result {
	deduped, bySeedURL := s.dedupSeeds(seeds)

	multiSeed := len(deduped) > 1
	if multiSeed && (len(s.cfg.AllowedDomains()) > 0 || len(s.cfg.BlockedDomains()) > 0) {
		s.emit(telemetry.KindEdgeCase,
			telemetry.NewAttr(telemetry.AttrCategory, "multi_seed_domain_override"),
			telemetry.NewAttr(telemetry.AttrReason, "allowed_domains/blocked_domains ignored; each seed is restricted to its own domain"))
	}

	sem := make(chan struct{}, s.cfg.Concurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var perDomain []DomainResult

	for _, seedURL := range deduped {
		sem <- struct{}{}
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			summary, ok := s.runSeed(ctx, rawURL, bySeedURL[rawURL], multiSeed)
			if !ok {
				return
			}

			mu.Lock()
			perDomain = append(perDomain, DomainResult{Domain: summary.Domain, PagesScraped: summary.PageCount, Reason: summary.Reason})
			mu.Unlock()
		}(seedURL)
	}
	wg.Wait()

	total := 0
	for _, d := range perDomain {
		total += d.PagesScraped
	}

	return Result{Completed: true, TotalPages: total, PerDomain: perDomain}
}

func (s *Session) runSeed(ctx context.Context, rawURL string, metadata map[string]string, multiSeed bool) (engine.Summary, bool) {
	seedURL, err := url.Parse(rawURL)
	if err != nil || seedURL.Host == "" {
		s.emit(telemetry.KindEdgeCase,
			telemetry.NewAttr(telemetry.AttrCategory, "seed_url_invalid"),
			telemetry.NewAttr(telemetry.AttrURL, rawURL))
		return engine.Summary{}, false
	}

	seedCfg := s.cfg
	if multiSeed {
		// Copy before mutating: WithXxx mutates its receiver in place, and
		// s.cfg is shared across every concurrently-running seed goroutine.
		restricted := s.cfg
		built, err := (&restricted).
			WithAllowedDomains(map[string]struct{}{seedURL.Host: {}}).
			WithBlockedDomains(map[string]struct{}{}).
			Build()
		if err != nil {
			s.emit(telemetry.KindEdgeCase,
				telemetry.NewAttr(telemetry.AttrCategory, "seed_config_override_failed"),
				telemetry.NewAttr(telemetry.AttrURL, rawURL),
				telemetry.NewAttr(telemetry.AttrError, err.Error()))
		} else {
			seedCfg = built
		}
	}

	limiter := ratelimit.New(seedCfg.RequestDelay(), seedCfg.Jitter(), seedCfg.MaxRequestsPerSecondPerDomain(), seedCfg.MaxRobotsCrawlDelay(), s.sink)
	eng := engine.New(seedCfg, dedup.New(seedCfg.NormalizeURLsForDeduplication()), s.robotsFor(seedCfg), limiter, s.fetcher, s.sink, s.result)

	summary := eng.Run(ctx, *seedURL, metadata)
	return summary, true
}

func (s *Session) robotsFor(cfg config.Config) *robots.Cache {
	if cfg.IgnoreRobotsTxt() {
		return nil
	}
	return s.robots
}

// dedupSeeds applies §4.1's seed-list deduplication policy and returns the
// surviving raw URLs in their original order, plus a lookup from raw URL to
// caller-supplied metadata.
func (s *Session) dedupSeeds(seeds []Seed) ([]string, map[string]map[string]string) {
	raw := make([]string, len(seeds))
	metaByURL := make(map[string]map[string]string, len(seeds))
	for i, seed := range seeds {
		raw[i] = seed.URL
		metaByURL[seed.URL] = seed.Metadata
	}

	result := urlnorm.SeedDedup(raw, urlnorm.DefaultSeedPolicy())
	if len(result.Skipped) > 0 {
		s.emit(telemetry.KindEdgeCase,
			telemetry.NewAttr(telemetry.AttrCategory, "seed_list_deduplicated"),
			telemetry.NewAttr(telemetry.AttrReason, "duplicate or unparsable seeds dropped"))
	}
	return result.Deduplicated, metaByURL
}

// Resume loads sessionKey's SavedState from store and continues the
// crawl: the deduplicator is seeded with VisitedURLs so those pages
// aren't refetched, and the engine's queue is loaded with PendingURLs
// in place of a single seed task, per SPEC_FULL.md §4.9. A failed Load's
// error is returned unchanged; a Load that finds no saved state yields a
// StateError{Op: "load", Cause: ErrCauseNotFound}.
func (s *Session) Resume(ctx context.Context, store state.Store, sessionKey string) (Result, error) {
	saved, ok, err := store.Load(ctx, sessionKey)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, &state.StateError{
			Op: "load", Message: "no saved state for session key " + sessionKey,
			Cause: state.ErrCauseNotFound, Retryable: false,
		}
	}
	if len(saved.PendingURLs) == 0 {
		return Result{Completed: true}, nil
	}

	byHost := make(map[string][]string)
	hostOrder := make([]string, 0)
	for _, rawURL := range saved.PendingURLs {
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Host == "" {
			s.emit(telemetry.KindEdgeCase,
				telemetry.NewAttr(telemetry.AttrCategory, "pending_url_invalid"),
				telemetry.NewAttr(telemetry.AttrURL, rawURL))
			continue
		}
		if _, seen := byHost[parsed.Host]; !seen {
			hostOrder = append(hostOrder, parsed.Host)
		}
		byHost[parsed.Host] = append(byHost[parsed.Host], rawURL)
	}

	multiHost := len(hostOrder) > 1
	sem := make(chan struct{}, s.cfg.Concurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var perDomain []DomainResult

	for _, host := range hostOrder {
		sem <- struct{}{}
		wg.Add(1)
		go func(host string, pending []string) {
			defer wg.Done()
			defer func() { <-sem }()

			hostCfg := s.cfg
			if multiHost {
				restricted := s.cfg
				built, err := (&restricted).
					WithAllowedDomains(map[string]struct{}{host: {}}).
					WithBlockedDomains(map[string]struct{}{}).
					Build()
				if err == nil {
					hostCfg = built
				}
			}

			dedupSet := dedup.New(hostCfg.NormalizeURLsForDeduplication())
			limiter := ratelimit.New(hostCfg.RequestDelay(), hostCfg.Jitter(), hostCfg.MaxRequestsPerSecondPerDomain(), hostCfg.MaxRobotsCrawlDelay(), s.sink)
			eng := engine.New(hostCfg, dedupSet, s.robotsFor(hostCfg), limiter, s.fetcher, s.sink, s.result)

			summary := eng.Resume(ctx, host, pending, saved.VisitedURLs, nil)

			mu.Lock()
			perDomain = append(perDomain, DomainResult{Domain: summary.Domain, PagesScraped: summary.PageCount, Reason: summary.Reason})
			mu.Unlock()
		}(host, byHost[host])
	}
	wg.Wait()

	total := 0
	for _, d := range perDomain {
		total += d.PagesScraped
	}
	return Result{Completed: true, TotalPages: total, PerDomain: perDomain}, nil
}

func (s *Session) emit(kind telemetry.EventKind, fields ...telemetry.Attribute) {
	if s.sink == nil {
		return
	}
	s.sink.Emit(telemetry.Event{Time: time.Now(), Kind: kind, Fields: fields})
}
