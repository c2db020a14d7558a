package tracking

import (
	"sync"

	"go.uber.org/zap"
)

// pendingCounter is the slice of the pixel loader the queue depends on
type pendingCounter interface {
	PendingLoads() int
}

// dispatchQueue holds adapter fan-out closures while any pixel load is in
// flight and flushes them in submission order once every load settles.
// A conversion must not be lost because a sibling vendor script was still
// loading, but it also must not fire into a half-initialized vendor SDK.
type dispatchQueue struct {
	mu      sync.Mutex
	pending []func()
	loads   pendingCounter
	logger  *zap.Logger
}

func newDispatchQueue(loads pendingCounter, logger *zap.Logger) *dispatchQueue {
	return &dispatchQueue{
		loads:  loads,
		logger: logger,
	}
}

// queueOrRun executes fn synchronously when no platform is Loading,
// otherwise appends it for the next drain
func (q *dispatchQueue) queueOrRun(fn func()) {
	q.mu.Lock()
	if q.loads.PendingLoads() > 0 {
		q.pending = append(q.pending, fn)
		depth := len(q.pending)
		q.mu.Unlock()
		q.logger.Debug("event queued behind pending pixel loads", zap.Int("queue_depth", depth))
		return
	}
	q.mu.Unlock()

	q.runIsolated(fn)
}

// drain executes every queued closure in strict FIFO order. A panic in
// one closure is caught and logged and never aborts the remainder.
func (q *dispatchQueue) drain() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	q.logger.Debug("draining dispatch queue", zap.Int("queued_events", len(pending)))
	for _, fn := range pending {
		q.runIsolated(fn)
	}
}

// depth returns the number of queued closures
func (q *dispatchQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// runIsolated runs one closure with panic isolation
func (q *dispatchQueue) runIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queued dispatch panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
