// Package engine implements the Domain Crawl Engine (C8): one bounded
// worker pool per domain, coordinating the Robots Cache, Rate Limiter,
// Scraper, Link Extractor, URL Dedup Set, and extract_spec evaluator behind
// a single mutex-serialized queue and a pair of CAS completion latches.
package engine

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rohmanhakim/spider/internal/config"
	"github.com/rohmanhakim/spider/internal/dedup"
	"github.com/rohmanhakim/spider/internal/fetch"
	"github.com/rohmanhakim/spider/internal/model"
	"github.com/rohmanhakim/spider/internal/robots"
	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/ratelimit"
	"github.com/rohmanhakim/spider/pkg/timeutil"
)

const (
	heartbeatInterval      = 15 * time.Second
	heartbeatDeathAfter    = 60 * time.Second
	failureDetectorTick    = 30 * time.Second
	taskAcquisitionTimeout = 10 * time.Second
)

// ResultSink receives every CrawlResult a Domain Crawl Engine produces.
// Publish must tolerate being called from one drain goroutine per engine,
// and across engines when a Crawl Session shares a sink, per §5's
// serialized-but-interleaved delivery guarantee.
type ResultSink interface {
	Publish(model.CrawlResult)
}

// Summary is what Run returns once a domain has completed.
type Summary struct {
	Domain    string
	PageCount int
	Reason    string
}

// Engine runs one Domain Crawl Engine for a single seed's registered
// domain. It is not reusable across domains; a Crawl Session constructs one
// per seed.
type Engine struct {
	cfg     config.Config
	dedup   *dedup.Set
	robots  *robots.Cache
	limiter *ratelimit.Limiter
	fetcher *fetch.Fetcher
	sink    telemetry.Sink
	result  ResultSink
	sleeper timeutil.Sleeper

	q        *queue
	seedHost string

	heartbeatMu sync.Mutex
	heartbeats  map[int]time.Time
}

// New wires one Domain Crawl Engine from its already-constructed
// dependencies. robotsCache may be nil when cfg.IgnoreRobotsTxt() is true.
func New(cfg config.Config, dedupSet *dedup.Set, robotsCache *robots.Cache, limiter *ratelimit.Limiter, fetcher *fetch.Fetcher, sink telemetry.Sink, result ResultSink) *Engine {
	return &Engine{
		cfg:        cfg,
		dedup:      dedupSet,
		robots:     robotsCache,
		limiter:    limiter,
		fetcher:    fetcher,
		sink:       sink,
		result:     result,
		sleeper:    timeutil.NewRealSleeper(),
		q:          newQueue(),
		heartbeats: make(map[int]time.Time),
	}
}

// SetSleeper overrides the default real sleeper, for deterministic tests.
func (e *Engine) SetSleeper(s timeutil.Sleeper) {
	e.sleeper = s
}

// Run drives one domain to completion: seeds the queue with the depth-0
// task, spawns MaxConcurrentWorkers() worker goroutines plus the health
// monitors of §4.7.4, and blocks until the domain completes and the result
// sink has fully drained, per §4.7.5.
func (e *Engine) Run(ctx context.Context, seed url.URL, metadata map[string]string) Summary {
	e.seedHost = seed.Host

	seedTask := model.CrawlTask{URL: seed.String(), Depth: 0, Metadata: metadata}
	e.q.addTask(seedTask)

	e.emit(telemetry.KindDomainStart, telemetry.NewAttr(telemetry.AttrURL, seed.String()))
	return e.drain(ctx)
}

// Resume continues a previously-interrupted crawl for host: visitedURLs
// seed the deduplicator so already-fetched pages aren't re-claimed, and
// pendingURLs (all at depth 0, since their original depth wasn't
// persisted) are loaded straight onto the queue in place of a single
// seed task. Used by session.Resume (§4.9).
func (e *Engine) Resume(ctx context.Context, host string, pendingURLs []string, visitedURLs []string, metadata map[string]string) Summary {
	e.seedHost = host

	for _, visited := range visitedURLs {
		e.dedup.TryAdd(visited)
	}
	for _, pending := range pendingURLs {
		if e.dedup.Contains(pending) {
			continue
		}
		e.q.addTask(model.CrawlTask{URL: pending, Depth: 0, Metadata: metadata})
	}

	e.emit(telemetry.KindDomainStart, telemetry.NewAttr(telemetry.AttrURL, host))
	return e.drain(ctx)
}

// drain runs the worker pool and health monitors against whatever is
// already loaded onto e.q, and blocks until the domain completes and the
// result sink has fully drained.
func (e *Engine) drain(ctx context.Context) Summary {

	resultCh := make(chan model.CrawlResult)
	stopHealth := make(chan struct{})

	var workerWg sync.WaitGroup
	workers := e.cfg.MaxConcurrentWorkers()
	for i := 0; i < workers; i++ {
		workerWg.Add(1)
		go func(id int) {
			defer workerWg.Done()
			e.worker(ctx, id, resultCh)
		}(i)
	}

	var healthWg sync.WaitGroup
	healthWg.Add(2)
	go func() { defer healthWg.Done(); e.heartbeatMonitor(stopHealth) }()
	go func() { defer healthWg.Done(); e.failureDetector(stopHealth) }()

	go func() {
		workerWg.Wait()
		close(stopHealth)
		healthWg.Wait()
		close(resultCh)
	}()

	// Drain with no timeout: every produced result must reach the sink
	// before Run returns, even if that takes longer than the crawl itself.
	for result := range resultCh {
		e.result.Publish(result)
	}

	pageCount := e.dedup.Size()
	reason := e.q.getCompletionReason()
	if reason == "" {
		reason = "queue_empty"
	}

	e.emit(telemetry.KindDomainComplete,
		telemetry.NewAttr(telemetry.AttrPageCount, strconv.Itoa(pageCount)),
		telemetry.NewAttr(telemetry.AttrReason, reason))

	return Summary{Domain: e.seedHost, PageCount: pageCount, Reason: reason}
}

func (e *Engine) emit(kind telemetry.EventKind, fields ...telemetry.Attribute) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(telemetry.Event{Time: time.Now(), Kind: kind, Domain: e.seedHost, Fields: fields})
}

func (e *Engine) recordHeartbeat(id int) {
	e.heartbeatMu.Lock()
	defer e.heartbeatMu.Unlock()
	e.heartbeats[id] = time.Now()
}

func (e *Engine) forgetHeartbeat(id int) {
	e.heartbeatMu.Lock()
	defer e.heartbeatMu.Unlock()
	delete(e.heartbeats, id)
}

// heartbeatMonitor watches for workers that stopped recording heartbeats
// without going through a tracked exit path, per §4.7.4's 15s/60s window.
func (e *Engine) heartbeatMonitor(stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := time.Now()
			e.heartbeatMu.Lock()
			for id, last := range e.heartbeats {
				if now.Sub(last) > heartbeatDeathAfter {
					delete(e.heartbeats, id)
					e.emit(telemetry.KindWorkerDeathDetected, telemetry.NewAttr(telemetry.AttrWorkerID, strconv.Itoa(id)))
				}
			}
			e.heartbeatMu.Unlock()
		}
	}
}

// failureDetector samples queue state every 30s and force-completes the
// domain on the three critical conditions of §4.7.4: all workers gone with
// work outstanding, a negative queue-size sentinel, or two consecutive
// no-progress samples with no workers left and at most one page crawled.
func (e *Engine) failureDetector(stop <-chan struct{}) {
	ticker := time.NewTicker(failureDetectorTick)
	defer ticker.Stop()

	lastPageCount := -1
	noProgressSamples := 0

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			active := e.q.activeWorkersSnapshot()
			queueSize := e.q.size()
			pageCount := e.dedup.Size()

			reason := ""
			switch {
			case active == 0 && queueSize > 0 && pageCount > 0:
				reason = "workers_gone_work_remains"
			case queueSize < 0:
				reason = "negative_queue_size"
			case active == 0 && pageCount <= 1:
				if pageCount == lastPageCount {
					noProgressSamples++
				} else {
					noProgressSamples = 0
				}
				if noProgressSamples >= 2 {
					reason = "no_progress"
				}
			default:
				noProgressSamples = 0
			}
			lastPageCount = pageCount

			if reason != "" && e.q.forceComplete(reason) {
				e.emit(telemetry.KindCriticalFailureDetected,
					telemetry.NewAttr(telemetry.AttrReason, reason),
					telemetry.NewAttr(telemetry.AttrQueueSize, strconv.Itoa(queueSize)),
					telemetry.NewAttr(telemetry.AttrPageCount, strconv.Itoa(pageCount)))
			}
		}
	}
}
