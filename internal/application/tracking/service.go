// Package tracking orchestrates conversion event dispatch: normalization,
// two-tier deduplication, queueing behind pending pixel loads, and fan-out
// to every platform adapter.
package tracking

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/pixel"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Session identifies one browsing session and the identity fields it has
// disclosed. The session id scopes the durable deduplication tier.
type Session struct {
	ID   string
	User *tracking.User
}

// Cart is the line-item payload for checkout and purchase events
type Cart struct {
	Items    []tracking.RawItem
	Currency string
	Total    float64
}

// Order is a completed purchase
type Order struct {
	Cart
	OrderID string
}

// Tracker is the application service behind every tracking operation.
// All Track methods are fire-and-forget: a tracking failure is logged and
// counted but never surfaces to the business flow that triggered it.
type Tracker struct {
	loader   *pixel.Loader
	adapters []pixel.Adapter
	sessions cache.SessionStore
	queue    *dispatchQueue
	gate     *windowGate
	metrics  *telemetry.TrackingMetrics
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time
}

// TrackerOption is a functional option for Tracker configuration
type TrackerOption func(*Tracker)

// WithDedupWindow overrides the ephemeral suppression window
func WithDedupWindow(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithClock injects the time source used by the ephemeral dedup tier
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithMetrics attaches dispatch counters; without it the tracker runs unmetered
func WithMetrics(m *telemetry.TrackingMetrics) TrackerOption {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// NewTracker creates the tracking service and hooks the dispatch queue
// into the loader's settle notification.
func NewTracker(
	loader *pixel.Loader,
	adapters []pixel.Adapter,
	sessions cache.SessionStore,
	logger *zap.Logger,
	opts ...TrackerOption,
) *Tracker {
	t := &Tracker{
		loader:   loader,
		adapters: adapters,
		sessions: sessions,
		logger:   logger,
		window:   DefaultDedupWindow,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.gate = newWindowGate(t.window, t.now)
	t.queue = newDispatchQueue(loader, logger)
	loader.OnSettled(t.queue.drain)

	return t
}

// LoadPixels requests a background load for every enabled pixel config.
// Disabled configs are skipped; load results are consumed asynchronously
// so a slow vendor CDN never blocks startup.
func (t *Tracker) LoadPixels(ctx context.Context, configs []tracking.PixelConfig) {
	for _, cfg := range configs {
		if !cfg.Enabled {
			t.logger.Debug("skipping disabled pixel config",
				zap.String("platform", cfg.Platform.String()))
			continue
		}

		// A platform that already failed permanently hands back its stored
		// error on every re-request; only the first failure is counted.
		failedBefore := t.loader.ErrorFor(cfg.Platform) != ""
		result := t.loader.Load(ctx, cfg)
		platform := cfg.Platform
		go func() {
			if err := <-result; err != nil && !failedBefore {
				t.metrics.RecordLoadFailure(context.Background(), platform.String())
			}
		}()
	}
}

// TrackPageView fires a page view for the given page path
func (t *Tracker) TrackPageView(ctx context.Context, session Session, page string) {
	t.dispatch(ctx, session, tracking.RawEvent{
		Name:     tracking.EventPageView,
		Metadata: map[string]string{"page": page},
		User:     session.User,
	})
}

// TrackViewContent fires a product detail view
func (t *Tracker) TrackViewContent(ctx context.Context, session Session, item tracking.RawItem, currency string) {
	t.dispatch(ctx, session, tracking.RawEvent{
		Name:     tracking.EventViewContent,
		Currency: currency,
		Value:    item.Price,
		Items:    []tracking.RawItem{item},
		User:     session.User,
	})
}

// TrackAddToCart fires an add-to-cart for one product line
func (t *Tracker) TrackAddToCart(ctx context.Context, session Session, item tracking.RawItem, quantity int, currency string) {
	item.Quantity = quantity
	t.dispatch(ctx, session, tracking.RawEvent{
		Name:     tracking.EventAddToCart,
		Currency: currency,
		Value:    item.Price * float64(quantity),
		Items:    []tracking.RawItem{item},
		User:     session.User,
	})
}

// TrackInitiateCheckout fires a begin-checkout event, deduplicated
// durably per session: the same cart fingerprint never fires twice, and
// nothing fires after the session has completed a purchase. A changed
// cart (different lines, quantities, or total) fires again and replaces
// the stored fingerprint.
func (t *Tracker) TrackInitiateCheckout(ctx context.Context, session Session, cart Cart) {
	event, ok := t.normalize(ctx, tracking.RawEvent{
		Name:     tracking.EventInitiateCheckout,
		Currency: cart.Currency,
		Value:    cart.Total,
		Items:    cart.Items,
		User:     session.User,
	})
	if !ok {
		return
	}

	if t.purchaseCompleted(ctx, session.ID) {
		t.suppress(ctx, event, "session")
		return
	}

	fingerprint := tracking.CheckoutFingerprint(event.Contents, cart.Total)
	marker, err := t.sessions.CheckoutMarker(ctx, session.ID)
	if err != nil {
		// Fail open: losing a dedup read must not lose the conversion.
		t.logger.Warn("checkout marker read failed", zap.Error(err))
	} else if marker != nil && marker.Fingerprint == fingerprint {
		t.suppress(ctx, event, "session")
		return
	}

	if !t.accept(ctx, event) {
		return
	}

	if err := t.sessions.SetCheckoutMarker(ctx, session.ID, cache.CheckoutMarker{
		Fingerprint: fingerprint,
		Timestamp:   t.now(),
	}); err != nil {
		t.logger.Warn("checkout marker write failed", zap.Error(err))
	}
	t.fanOut(ctx, event)
}

// TrackPurchase fires a purchase event exactly once per order id. The
// order claim is atomic, so a confirmation page refresh re-invoking the
// success path cannot double-report revenue. A successful claim also
// latches the session's purchase flag, permanently silencing further
// begin-checkout events for that session.
func (t *Tracker) TrackPurchase(ctx context.Context, session Session, order Order) {
	event, ok := t.normalize(ctx, tracking.RawEvent{
		Name:     tracking.EventPurchase,
		Currency: order.Currency,
		Value:    order.Total,
		Items:    order.Items,
		OrderID:  order.OrderID,
		User:     session.User,
	})
	if !ok {
		return
	}

	if order.OrderID != "" {
		claimed, err := t.sessions.ClaimOrder(ctx, order.OrderID)
		if err != nil {
			t.logger.Warn("order claim failed", zap.Error(err))
		} else if !claimed {
			t.suppress(ctx, event, "order")
			return
		}
	}

	if !t.accept(ctx, event) {
		return
	}

	if err := t.sessions.MarkPurchaseCompleted(ctx, session.ID); err != nil {
		t.logger.Warn("purchase latch write failed", zap.Error(err))
	}
	t.fanOut(ctx, event)
}

// TrackSearch fires a site-search event
func (t *Tracker) TrackSearch(ctx context.Context, session Session, term string, resultCount int) {
	t.dispatch(ctx, session, tracking.RawEvent{
		Name:        tracking.EventSearch,
		SearchTerm:  term,
		ResultCount: resultCount,
		User:        session.User,
	})
}

// FireTestEvent fires a synthetic page view at a single platform and
// returns the adapter's error directly, bypassing deduplication. It is
// the only operation that surfaces tracking errors to the caller.
func (t *Tracker) FireTestEvent(ctx context.Context, platform tracking.Platform) error {
	if !t.loader.IsLoaded(platform) {
		return tracking.ErrPixelNotLoaded
	}

	for _, adapter := range t.adapters {
		if adapter.Platform() == platform {
			return adapter.Fire(ctx, tracking.NormalizedEvent{
				Name:     tracking.EventPageView,
				Metadata: map[string]string{"page": "/__test"},
			})
		}
	}
	return tracking.ErrUnknownPlatform
}

// Statuses reports the load status of every requested platform
func (t *Tracker) Statuses() []tracking.LoadStatus {
	return t.loader.Statuses()
}

// WaitSettled blocks until all in-flight pixel loads settle or the
// timeout elapses
func (t *Tracker) WaitSettled(ctx context.Context, timeout time.Duration) error {
	return t.loader.WaitSettled(ctx, timeout)
}

// QueuedEvents returns the number of events waiting on pending loads
func (t *Tracker) QueuedEvents() int {
	return t.queue.depth()
}

// dispatch runs the common pipeline for events without a durable tier
func (t *Tracker) dispatch(ctx context.Context, _ Session, raw tracking.RawEvent) {
	event, ok := t.normalize(ctx, raw)
	if !ok {
		return
	}
	if !t.accept(ctx, event) {
		return
	}
	t.fanOut(ctx, event)
}

// purchaseCompleted reads the session's purchase latch, failing open
func (t *Tracker) purchaseCompleted(ctx context.Context, sessionID string) bool {
	done, err := t.sessions.PurchaseCompleted(ctx, sessionID)
	if err != nil {
		t.logger.Warn("purchase latch read failed", zap.Error(err))
		return false
	}
	return done
}

// normalize canonicalizes the raw payload, dropping invalid events
func (t *Tracker) normalize(ctx context.Context, raw tracking.RawEvent) (tracking.NormalizedEvent, bool) {
	event, err := tracking.Normalize(raw)
	if err != nil {
		t.logger.Warn("dropping invalid tracking event",
			zap.String("event", string(raw.Name)),
			zap.Error(err),
		)
		t.metrics.RecordDropped(ctx, string(raw.Name))
		return tracking.NormalizedEvent{}, false
	}
	return event, true
}

// accept applies the ephemeral window gate
func (t *Tracker) accept(ctx context.Context, event tracking.NormalizedEvent) bool {
	if t.gate.shouldSuppress(t.gate.ephemeralKey(event)) {
		t.suppress(ctx, event, "window")
		return false
	}
	return true
}

// suppress logs and counts one deduplicated event
func (t *Tracker) suppress(ctx context.Context, event tracking.NormalizedEvent, tier string) {
	t.logger.Debug("suppressing duplicate event",
		zap.String("event", string(event.Name)),
		zap.String("tier", tier),
	)
	t.metrics.RecordSuppressed(ctx, string(event.Name), tier)
}

// fanOut delivers the event to every adapter, queueing behind pending
// pixel loads when any platform is still Loading. The queued closure
// outlives the originating request, so it carries a detached context.
func (t *Tracker) fanOut(ctx context.Context, event tracking.NormalizedEvent) {
	bg := context.WithoutCancel(ctx)
	t.queue.queueOrRun(func() {
		for _, adapter := range t.adapters {
			pixel.SafeFire(bg, adapter, event, t.logger)
		}
		t.metrics.RecordFired(bg, string(event.Name))
	})
}
