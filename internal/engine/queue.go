package engine

import (
	"sync"
	"sync/atomic"

	"github.com/rohmanhakim/spider/internal/model"
)

// takeKind discriminates the three outcomes of takeTaskOrComplete, per
// §4.7.1.
type takeKind int

const (
	takeTask takeKind = iota
	takeCompleted
	takeEmptyButActive
)

// takeOutcome is the result of one takeTaskOrComplete call.
type takeOutcome struct {
	kind          takeKind
	task          model.CrawlTask
	activeWorkers int
	wasFirst      bool
	reason        string
}

// queue is the private, mutex-serialized task queue and latch pair behind
// one Domain Crawl Engine. Every operation here corresponds 1:1 to §4.7.1's
// atomic operations: take_task_or_complete, add_task, mark_idle, size.
type queue struct {
	mu            sync.Mutex
	tasks         []model.CrawlTask
	activeWorkers int

	domainCompleted atomic.Bool
	maxPagesReached atomic.Bool

	completionReasonMu sync.Mutex
	completionReason   string
}

func newQueue() *queue {
	return &queue{}
}

// addTask enqueues t. Safe to call concurrently with takeTaskOrComplete.
func (q *queue) addTask(t model.CrawlTask) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

// size returns the current queue length, never negative.
func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// activeWorkersSnapshot returns the current active worker count, for the
// failure detector's periodic sampling.
func (q *queue) activeWorkersSnapshot() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.activeWorkers
}

// markIdle decrements activeWorkers, clamped at zero.
func (q *queue) markIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.activeWorkers > 0 {
		q.activeWorkers--
	}
}

// markMaxPagesReached CAS-es the max_pages_reached latch false->true,
// reporting whether this caller performed the transition. Called by a
// worker that observes dedup.size() >= max_pages, outside the queue mutex
// since the latch is independently atomic.
func (q *queue) markMaxPagesReached() bool {
	return q.maxPagesReached.CompareAndSwap(false, true)
}

// forceComplete CAS-es domain_completed true, for the failure detector's
// critical-failure teardown path. Returns whether this call performed the
// transition.
func (q *queue) forceComplete(reason string) bool {
	wasFirst := q.domainCompleted.CompareAndSwap(false, true)
	if wasFirst {
		q.setCompletionReason(reason)
	}
	return wasFirst
}

func (q *queue) setCompletionReason(reason string) {
	q.completionReasonMu.Lock()
	defer q.completionReasonMu.Unlock()
	if q.completionReason == "" {
		q.completionReason = reason
	}
}

func (q *queue) getCompletionReason() string {
	q.completionReasonMu.Lock()
	defer q.completionReasonMu.Unlock()
	return q.completionReason
}

// takeTaskOrComplete is the single composite operation serializing
// completion detection against task dispatch, per §4.7.1 and §4.7.3.
func (q *queue) takeTaskOrComplete() takeOutcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxPagesReached.Load() {
		wasFirst := q.domainCompleted.CompareAndSwap(false, true)
		if wasFirst {
			q.setCompletionReason("max_pages_reached")
		}
		return takeOutcome{kind: takeCompleted, reason: "max_pages_reached", wasFirst: wasFirst}
	}

	if q.domainCompleted.Load() {
		return takeOutcome{kind: takeCompleted, reason: q.getCompletionReason()}
	}

	if len(q.tasks) == 0 {
		if q.activeWorkers == 0 {
			wasFirst := q.domainCompleted.CompareAndSwap(false, true)
			if wasFirst {
				q.setCompletionReason("queue_empty")
			}
			return takeOutcome{kind: takeCompleted, reason: "queue_empty", wasFirst: wasFirst}
		}
		return takeOutcome{kind: takeEmptyButActive, activeWorkers: q.activeWorkers}
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	q.activeWorkers++
	return takeOutcome{kind: takeTask, task: task, activeWorkers: q.activeWorkers}
}
