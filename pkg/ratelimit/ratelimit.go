// Package ratelimit bookkeeps per-host fetch timing: a base delay plus
// jitter plus exponential backoff plus any robots.txt crawl-delay (capped),
// and a soft per-domain requests-per-second ceiling backed by
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/timeutil"
	"golang.org/x/time/rate"
)

// hostTiming tracks when a host was last fetched and its current backoff
// and crawl-delay state.
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	crawlDelay   time.Duration
	backoffCount int
}

// Limiter resolves the inter-request delay for each host and optionally
// enforces a soft requests-per-second ceiling per host.
type Limiter struct {
	mu            sync.RWMutex
	rngMu         sync.Mutex
	baseDelay     time.Duration
	jitter        time.Duration
	maxCrawlDelay time.Duration
	hostTimings   map[string]*hostTiming
	rng           *rand.Rand
	sink          telemetry.Sink

	rpsMu       sync.Mutex
	rps         float64
	rpsLimiters map[string]*rate.Limiter
}

// New returns a Limiter. rps <= 0 disables the soft per-domain
// requests-per-second cap. maxCrawlDelay <= 0 disables capping robots
// crawl-delay values.
func New(baseDelay, jitter time.Duration, rps float64, maxCrawlDelay time.Duration, sink telemetry.Sink) *Limiter {
	return &Limiter{
		baseDelay:     baseDelay,
		jitter:        jitter,
		maxCrawlDelay: maxCrawlDelay,
		hostTimings:   make(map[string]*hostTiming),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		sink:          sink,
		rps:           rps,
		rpsLimiters:   make(map[string]*rate.Limiter),
	}
}

// SetRandomSeed replaces the RNG with a deterministic one, for tests.
func (l *Limiter) SetRandomSeed(seed int64) {
	l.rngMu.Lock()
	defer l.rngMu.Unlock()
	l.rng = rand.New(rand.NewSource(seed))
}

func (l *Limiter) timingFor(host string) *hostTiming {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.hostTimings[host]
	if !ok {
		t = &hostTiming{}
		l.hostTimings[host] = t
	}
	return t
}

// SetCrawlDelay records a robots.txt crawl-delay for host, capped at
// maxCrawlDelay. If the raw value exceeded the cap, a crawl_delay_capped
// event is emitted.
func (l *Limiter) SetCrawlDelay(host string, delay time.Duration) {
	capped := delay
	wasCapped := false
	if l.maxCrawlDelay > 0 && delay > l.maxCrawlDelay {
		capped = l.maxCrawlDelay
		wasCapped = true
	}

	l.mu.Lock()
	t := l.timingFor(host)
	t.crawlDelay = capped
	l.mu.Unlock()

	if wasCapped && l.sink != nil {
		l.sink.Emit(telemetry.Event{
			Time:   time.Now(),
			Kind:   telemetry.KindCrawlDelayCapped,
			Domain: host,
			Fields: []telemetry.Attribute{
				telemetry.NewAttr(telemetry.AttrCrawlDelay, capped.String()),
			},
		})
	}
}

// Backoff increments host's exponential backoff counter (initial 1s,
// multiplier 2.0, capped at 30s, plus jitter) and records the resulting
// delay.
func (l *Limiter) Backoff(host string) {
	t := l.timingFor(host)

	l.mu.Lock()
	t.backoffCount++
	count := t.backoffCount
	l.mu.Unlock()

	delay := exponentialBackoffDelay(count)
	if l.jitter > 0 {
		delay += l.computeJitter(l.jitter)
	}

	l.mu.Lock()
	t.backoffDelay = delay
	l.mu.Unlock()
}

// ResetBackoff clears host's backoff state after a successful request.
func (l *Limiter) ResetBackoff(host string) {
	t := l.timingFor(host)
	l.mu.Lock()
	t.backoffCount = 0
	t.backoffDelay = 0
	l.mu.Unlock()
}

// MarkLastFetchAsNow records host's last fetch time as now.
func (l *Limiter) MarkLastFetchAsNow(host string) {
	t := l.timingFor(host)
	l.mu.Lock()
	t.lastFetchAt = time.Now()
	l.mu.Unlock()
}

// ResolveDelay returns how much longer the caller must wait before fetching
// host again: max(baseDelay, crawlDelay, backoffDelay) + jitter, minus time
// already elapsed since the last fetch, floored at zero.
func (l *Limiter) ResolveDelay(host string) time.Duration {
	l.mu.RLock()
	t, exists := l.hostTimings[host]
	base := l.baseDelay
	l.mu.RUnlock()

	if !exists {
		return 0
	}

	t2 := *t
	final := timeutil.MaxDuration([]time.Duration{base, t2.crawlDelay, t2.backoffDelay})
	final += l.computeJitter(l.jitter)

	elapsed := time.Since(t2.lastFetchAt)
	if elapsed < final {
		return final - elapsed
	}
	return 0
}

// Wait blocks until host's soft requests-per-second budget admits another
// request, then returns. It is a no-op when rps <= 0 or ctx is canceled
// first (the context error is returned).
func (l *Limiter) Wait(ctx context.Context, host string) error {
	limiter := l.rpsLimiterFor(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (l *Limiter) rpsLimiterFor(host string) *rate.Limiter {
	if l.rps <= 0 {
		return nil
	}
	l.rpsMu.Lock()
	defer l.rpsMu.Unlock()
	limiter, ok := l.rpsLimiters[host]
	if !ok {
		burst := int(math.Max(1, l.rps/10))
		limiter = rate.NewLimiter(rate.Limit(l.rps), burst)
		l.rpsLimiters[host] = limiter
	}
	return limiter
}

func (l *Limiter) computeJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	l.rngMu.Lock()
	defer l.rngMu.Unlock()
	return time.Duration(l.rng.Int63n(int64(max)))
}

func exponentialBackoffDelay(backoffCount int) time.Duration {
	const (
		initial    = time.Second
		multiplier = 2.0
		max        = 30 * time.Second
	)
	exponent := float64(backoffCount - 1)
	delay := float64(initial) * math.Pow(multiplier, exponent)
	if delay > float64(max) {
		delay = float64(max)
	}
	return time.Duration(delay)
}
