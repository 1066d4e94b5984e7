package engine

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spider/internal/extractspec"
	"github.com/rohmanhakim/spider/internal/fetch"
	"github.com/rohmanhakim/spider/internal/linkextract"
	"github.com/rohmanhakim/spider/internal/model"
	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/failure"
	"github.com/rohmanhakim/spider/pkg/retry"
	"github.com/rohmanhakim/spider/pkg/timeutil"
)

// fetchMaxAttempts is the scraper's own retry budget inside one task:
// one try plus up to two retries at a fixed 1s exponential backoff, per
// §4.7.2.g. cfg.MaxAttempt() and the cfg backoff settings are not read
// here or anywhere else in the crawl core.
const fetchMaxAttempts = 3

// worker runs one Domain Crawl Engine worker loop, per §4.7.2. Every exit
// path is logged and leaves the queue's active-worker count consistent; a
// panic anywhere in task processing is caught so one worker's crash never
// takes down its siblings.
func (e *Engine) worker(ctx context.Context, id int, resultCh chan<- model.CrawlResult) {
	workerID := strconv.Itoa(id)
	e.emit(telemetry.KindWorkerCreated, telemetry.NewAttr(telemetry.AttrWorkerID, workerID))

	defer func() {
		if r := recover(); r != nil {
			e.emit(telemetry.KindWorkerCrash,
				telemetry.NewAttr(telemetry.AttrWorkerID, workerID),
				telemetry.NewAttr(telemetry.AttrError, toErrorString(r)))
		}
		e.forgetHeartbeat(id)
		e.emit(telemetry.KindWorkerExitingLoop, telemetry.NewAttr(telemetry.AttrWorkerID, workerID))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e.recordHeartbeat(id)
		if size := e.q.size(); size > e.cfg.QueueSizeWarningThreshold() {
			e.emit(telemetry.KindExcessiveQueueSize,
				telemetry.NewAttr(telemetry.AttrWorkerID, workerID),
				telemetry.NewAttr(telemetry.AttrQueueSize, strconv.Itoa(size)))
		}
		if heapBytes := currentHeapBytes(); heapBytes > e.cfg.HeapUsageWarningBytes() {
			e.emit(telemetry.KindHighMemoryUsage,
				telemetry.NewAttr(telemetry.AttrWorkerID, workerID),
				telemetry.NewAttr(telemetry.AttrHeapBytes, strconv.FormatUint(heapBytes, 10)))
		}

		outcome, timedOut := e.takeWithTimeout()
		if timedOut {
			e.emit(telemetry.KindTaskAcquisitionTimeout, telemetry.NewAttr(telemetry.AttrWorkerID, workerID))
			continue
		}

		switch outcome.kind {
		case takeCompleted:
			if outcome.wasFirst {
				e.emit(telemetry.KindDomainComplete, telemetry.NewAttr(telemetry.AttrReason, outcome.reason))
			}
			return

		case takeEmptyButActive:
			e.sleeper.Sleep(randomizedBackoff())

		case takeTask:
			e.emit(telemetry.KindTaskAcquisitionOK,
				telemetry.NewAttr(telemetry.AttrWorkerID, workerID),
				telemetry.NewAttr(telemetry.AttrURL, outcome.task.URL))
			if !e.processTask(ctx, outcome.task, resultCh) {
				return
			}
			pageCount := e.dedup.Size()
			if pageCount > 0 && pageCount%10 == 0 {
				e.emit(telemetry.KindQueueStatus,
					telemetry.NewAttr(telemetry.AttrQueueSize, strconv.Itoa(e.q.size())),
					telemetry.NewAttr(telemetry.AttrPageCount, strconv.Itoa(pageCount)))
			}
			if e.cfg.MaxPages() > 0 && pageCount >= e.cfg.MaxPages() {
				if e.q.markMaxPagesReached() {
					e.emit(telemetry.KindEdgeCase, telemetry.NewAttr(telemetry.AttrCategory, "max_pages_reached"))
				}
			}
		}
	}
}

// processTask runs steps (c)-(i) of §4.7.2 for one popped task. It always
// calls markIdle exactly once before returning, and reports whether the
// worker loop should continue (true) or exit (the task-processing channel
// send observed ctx cancellation).
func (e *Engine) processTask(ctx context.Context, task model.CrawlTask, resultCh chan<- model.CrawlResult) (continueLoop bool) {
	defer e.q.markIdle()

	if !e.dedup.TryAdd(task.URL) {
		return true
	}
	if !shouldFollowURL(task.URL, e.cfg, e.seedHost) {
		return true
	}

	host := hostOf(task.URL)

	if !e.cfg.IgnoreRobotsTxt() && e.robots != nil {
		decision := e.robots.CheckURL(ctx, task.URL)
		if !decision.Allowed {
			return true
		}
		if decision.CrawlDelay != nil {
			e.limiter.SetCrawlDelay(host, *decision.CrawlDelay)
		}
	}

	if delay := e.limiter.ResolveDelay(host); delay > 0 {
		e.sleeper.Sleep(delay)
	}
	if err := e.limiter.Wait(ctx, host); err != nil {
		return true
	}

	page, ferr := e.fetchWithRetry(ctx, task)
	if ferr != nil {
		e.limiter.Backoff(host)
		e.emit(telemetry.KindEdgeCase,
			telemetry.NewAttr(telemetry.AttrCategory, "fetch_failed"),
			telemetry.NewAttr(telemetry.AttrURL, task.URL),
			telemetry.NewAttr(telemetry.AttrError, ferr.Error()),
			telemetry.NewAttr(telemetry.AttrCause, telemetryCauseOf(ferr).String()))
		return true
	}
	e.limiter.MarkLastFetchAsNow(host)
	e.limiter.ResetBackoff(host)

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if docErr != nil {
		return true
	}

	if len(task.ExtractSpec) > 0 {
		page.ExtractedFields = extractspec.Evaluate(doc, task.ExtractSpec)
	}

	result := model.CrawlResult{PageData: page, Depth: task.Depth, Timestamp: time.Now(), Metadata: task.Metadata}
	select {
	case resultCh <- result:
	case <-ctx.Done():
		return false
	}

	if e.cfg.MaxDepth() <= 0 || task.Depth < e.cfg.MaxDepth() {
		e.enqueueLinks(doc, task)
	}

	return true
}

func (e *Engine) fetchWithRetry(ctx context.Context, task model.CrawlTask) (model.PageData, failure.ClassifiedError) {
	param := retry.NewRetryParam(time.Second, e.cfg.Jitter(), e.cfg.RandomSeed(), fetchMaxAttempts, timeutil.NewBackoffParam(time.Second, 2.0, 10*time.Second))
	result := retry.Retry(param, func() (model.PageData, failure.ClassifiedError) {
		page, ferr := e.fetcher.FetchAndParse(ctx, task.URL, task.Depth)
		if ferr != nil {
			return model.PageData{}, ferr
		}
		return page, nil
	})
	if err := result.Err(); err != nil {
		if _, exhausted := err.(*retry.RetryError); !exhausted {
			if classified, ok := err.(failure.ClassifiedError); ok {
				return model.PageData{}, classified
			}
		}
		return model.PageData{}, &EngineError{Message: err.Error(), Cause: ErrCauseFetchExhausted, Retryable: false}
	}
	return result.Value(), nil
}

// enqueueLinks runs the Link Extractor over doc and admits every resolved,
// not-yet-seen, filter-passing link as a depth+1 task, per §4.7.2.i.
func (e *Engine) enqueueLinks(doc *goquery.Document, task model.CrawlTask) {
	pageURL, err := url.Parse(task.URL)
	if err != nil {
		return
	}

	extracted := linkextract.Extract(doc, linkextract.Config{})
	hrefs := extracted.Links
	if e.cfg.RespectNoFollow() {
		filtered := make([]string, 0, len(hrefs))
		for _, href := range hrefs {
			if _, noFollow := extracted.NoFollow[href]; noFollow {
				continue
			}
			filtered = append(filtered, href)
		}
		hrefs = filtered
	}

	resolved := linkextract.ResolveAndFilter(hrefs, pageURL.Scheme, pageURL.Host)
	for _, link := range resolved {
		if !shouldFollowURL(link, e.cfg, e.seedHost) {
			continue
		}
		if e.dedup.Contains(link) {
			continue
		}
		e.q.addTask(model.CrawlTask{
			URL:         link,
			Depth:       task.Depth + 1,
			FromURL:     task.URL,
			Metadata:    task.Metadata,
			ExtractSpec: task.ExtractSpec,
		})
	}
}

// takeWithTimeout wraps queue.takeTaskOrComplete in the 10s acquisition
// bound of §4.7.2.a. The queue mutex is never actually held long enough to
// hit this in practice; the bound exists to surface a stuck mutex rather
// than hang the worker forever.
func (e *Engine) takeWithTimeout() (takeOutcome, bool) {
	done := make(chan takeOutcome, 1)
	go func() { done <- e.q.takeTaskOrComplete() }()

	select {
	case outcome := <-done:
		return outcome, false
	case <-time.After(taskAcquisitionTimeout):
		return takeOutcome{}, true
	}
}

// randomizedBackoff returns a uniform delay in [1s, 5s), the EmptyButActive
// wait of §4.7.2.
func randomizedBackoff() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(4*time.Second)))
}

// telemetryCauseOf maps a failure.ClassifiedError from fetchWithRetry onto
// the observation-only telemetry.ErrorCause table, per whichever classified
// error type actually produced it.
func telemetryCauseOf(err failure.ClassifiedError) telemetry.ErrorCause {
	switch typed := err.(type) {
	case *fetch.FetchError:
		return typed.TelemetryCause()
	case *EngineError:
		return typed.TelemetryCause()
	default:
		return telemetry.CauseUnknown
	}
}

// currentHeapBytes reports the process's current heap allocation, sampled
// once per worker loop iteration for the §4.7.2 high_memory_usage warning.
func currentHeapBytes() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func toErrorString(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
