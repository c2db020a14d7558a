package pixel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// Default retry policy for pixel script loads
const (
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = time.Second
)

// Loader drives each platform's pixel script through its load state
// machine: Unloaded → Loading → Loaded, or Loading (with retries) → Failed.
// Loaded and Failed are terminal for the process lifetime. The loader is a
// constructed registry instance, not package-level state, so tests get a
// fresh one each time.
type Loader struct {
	mu          sync.Mutex
	platforms   map[tracking.Platform]*platformLoad
	pending     int
	settledSubs []chan struct{}
	onSettled   []func()

	bootstrap   Bootstrapper
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	logger      *zap.Logger
}

// platformLoad is the per-platform load record. Mutated only by the
// loader, and only while holding the loader mutex.
type platformLoad struct {
	status  tracking.LoadStatus
	client  VendorClient
	err     error
	waiters []chan error
	started time.Time
}

// LoaderOption is a functional option for Loader configuration
type LoaderOption func(*Loader)

// WithMaxAttempts overrides the number of load attempts per platform
func WithMaxAttempts(n int) LoaderOption {
	return func(l *Loader) {
		if n >= 1 {
			l.maxAttempts = n
		}
	}
}

// WithRetryBaseDelay overrides the linear backoff base (attempt × base)
func WithRetryBaseDelay(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.baseDelay = d
	}
}

// WithSleep injects the delay function so tests can run retries instantly
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) LoaderOption {
	return func(l *Loader) {
		l.sleep = sleep
	}
}

// WithClock injects the time source used for load-time measurement
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a new pixel loader
func NewLoader(bootstrap Bootstrapper, logger *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		platforms:   make(map[tracking.Platform]*platformLoad),
		bootstrap:   bootstrap,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultRetryBaseDelay,
		sleep:       sleepContext,
		now:         time.Now,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load requests the pixel script for one platform and returns a channel
// that receives the terminal result exactly once.
//
// Calling Load while the platform is already Loaded resolves immediately;
// while Loading, the caller joins the in-flight load rather than triggering
// a second script injection (each vendor's global namespace is a singleton
// and double-injection is unsafe). After Failed, the recorded error is
// returned without further retries.
func (l *Loader) Load(ctx context.Context, cfg tracking.PixelConfig) <-chan error {
	result := make(chan error, 1)

	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.platforms[cfg.Platform]; ok {
		switch st.status.State {
		case tracking.LoadStateLoaded:
			result <- nil
		case tracking.LoadStateFailed:
			result <- st.err
		default:
			st.waiters = append(st.waiters, result)
		}
		return result
	}

	st := &platformLoad{
		status: tracking.LoadStatus{
			Platform: cfg.Platform,
			State:    tracking.LoadStateLoading,
		},
		waiters: []chan error{result},
		started: l.now(),
	}
	l.platforms[cfg.Platform] = st
	l.pending++

	// Vendor scripts keep loading in the background regardless of the
	// caller's lifetime; there is no cancellation primitive for a load.
	go l.run(context.WithoutCancel(ctx), cfg, st)

	return result
}

// run executes the bounded retry loop for one platform
func (l *Loader) run(ctx context.Context, cfg tracking.PixelConfig, st *platformLoad) {
	var lastErr error

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		l.mu.Lock()
		st.status.Attempts = attempt
		l.mu.Unlock()

		client, err := l.bootstrap.Bootstrap(ctx, cfg.Platform, cfg.ExternalPixelID)
		if err == nil {
			l.settle(cfg.Platform, st, client, nil)
			return
		}

		lastErr = err
		l.logger.Warn("pixel script load attempt failed",
			zap.String("platform", cfg.Platform.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < l.maxAttempts {
			if err := l.sleep(ctx, time.Duration(attempt)*l.baseDelay); err != nil {
				lastErr = err
				break
			}
		}
	}

	l.settle(cfg.Platform, st, nil,
		fmt.Errorf("%s pixel failed to load after %d attempts: %w", cfg.Platform, l.maxAttempts, lastErr))
}

// settle records the terminal state, releases waiters, and drains settled
// subscribers once the in-flight count reaches zero. A failure in one
// platform never touches another platform's record.
func (l *Loader) settle(platform tracking.Platform, st *platformLoad, client VendorClient, err error) {
	l.mu.Lock()

	st.client = client
	st.err = err
	st.status.LoadTime = l.now().Sub(st.started)
	if err != nil {
		st.status.State = tracking.LoadStateFailed
		st.status.LastError = err.Error()
	} else {
		st.status.State = tracking.LoadStateLoaded
	}

	waiters := st.waiters
	st.waiters = nil

	l.pending--
	var subs []chan struct{}
	var callbacks []func()
	if l.pending == 0 {
		subs = l.settledSubs
		l.settledSubs = nil
		callbacks = append(callbacks, l.onSettled...)
	}
	l.mu.Unlock()

	for _, w := range waiters {
		w <- err
	}
	for _, sub := range subs {
		close(sub)
	}
	for _, fn := range callbacks {
		fn()
	}

	if err != nil {
		l.logger.Error("pixel load failed permanently",
			zap.String("platform", platform.String()),
			zap.Error(err),
		)
	} else {
		l.logger.Info("pixel loaded",
			zap.String("platform", platform.String()),
			zap.Duration("load_time", st.status.LoadTime),
		)
	}
}

// IsLoaded reports whether a platform's pixel is ready to receive events
func (l *Loader) IsLoaded(platform tracking.Platform) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.platforms[platform]
	return ok && st.status.State == tracking.LoadStateLoaded
}

// ErrorFor returns the recorded load error message for a platform, or
// empty when none exists
func (l *Loader) ErrorFor(platform tracking.Platform) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.platforms[platform]; ok {
		return st.status.LastError
	}
	return ""
}

// Client returns the initialized vendor client for a Loaded platform
func (l *Loader) Client(platform tracking.Platform) (VendorClient, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.platforms[platform]
	if !ok || st.status.State != tracking.LoadStateLoaded {
		return nil, false
	}
	return st.client, true
}

// Statuses returns the load status of every platform a load was requested
// for, in stable platform order
func (l *Loader) Statuses() []tracking.LoadStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]tracking.LoadStatus, 0, len(l.platforms))
	for _, platform := range tracking.AllPlatforms() {
		if st, ok := l.platforms[platform]; ok {
			statuses = append(statuses, st.status)
		}
	}
	return statuses
}

// PendingLoads returns the count of platforms currently in Loading
func (l *Loader) PendingLoads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// OnSettled registers a callback invoked every time the in-flight load
// count transitions to zero
func (l *Loader) OnSettled(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSettled = append(l.onSettled, fn)
}

// WaitSettled blocks until all in-flight loads settle, the context is
// cancelled, or the timeout elapses. On timeout it reports failure but the
// underlying loads keep going in the background.
func (l *Loader) WaitSettled(ctx context.Context, timeout time.Duration) error {
	l.mu.Lock()
	if l.pending == 0 {
		l.mu.Unlock()
		return nil
	}
	sub := make(chan struct{})
	l.settledSubs = append(l.settledSubs, sub)
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-sub:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("pixels did not settle within %s: %w", timeout, tracking.ErrLoadInFlight)
	}
}

// sleepContext waits for d or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
