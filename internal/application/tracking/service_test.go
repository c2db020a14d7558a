package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	domain "github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/pixel"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// stubClient is a loaded vendor client that accepts every call
type stubClient struct{}

func (stubClient) Call(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

// blockingBootstrap holds every load until release is closed
type blockingBootstrap struct {
	release chan struct{}
}

func (b *blockingBootstrap) Bootstrap(ctx context.Context, _ domain.Platform, _ string) (pixel.VendorClient, error) {
	select {
	case <-b.release:
		return stubClient{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// instantBootstrap resolves every load immediately
type instantBootstrap struct{}

func (instantBootstrap) Bootstrap(_ context.Context, _ domain.Platform, _ string) (pixel.VendorClient, error) {
	return stubClient{}, nil
}

// failingBootstrap rejects every load attempt
type failingBootstrap struct{}

func (failingBootstrap) Bootstrap(_ context.Context, _ domain.Platform, _ string) (pixel.VendorClient, error) {
	return nil, errors.New("cdn unreachable")
}

// recordingAdapter captures every event it receives
type recordingAdapter struct {
	mu       sync.Mutex
	platform domain.Platform
	fired    []domain.NormalizedEvent
}

func (a *recordingAdapter) Platform() domain.Platform {
	return a.platform
}

func (a *recordingAdapter) Fire(_ context.Context, event domain.NormalizedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fired = append(a.fired, event)
	return nil
}

func (a *recordingAdapter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fired)
}

func (a *recordingAdapter) names() []domain.EventName {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]domain.EventName, 0, len(a.fired))
	for _, e := range a.fired {
		names = append(names, e.Name)
	}
	return names
}

type panicAdapter struct{}

func (panicAdapter) Platform() domain.Platform { return domain.PlatformTikTok }
func (panicAdapter) Fire(_ context.Context, _ domain.NormalizedEvent) error {
	panic("vendor global missing")
}

type errAdapter struct{}

func (errAdapter) Platform() domain.Platform { return domain.PlatformSnapchat }
func (errAdapter) Fire(_ context.Context, _ domain.NormalizedEvent) error {
	return errors.New("beacon rejected")
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func metaConfig() domain.PixelConfig {
	return domain.PixelConfig{
		ID:              uuid.New(),
		Platform:        domain.PlatformMeta,
		ExternalPixelID: "px-meta-1",
		Enabled:         true,
	}
}

func newTestTracker(t *testing.T, bootstrap pixel.Bootstrapper, adapters []pixel.Adapter) (*Tracker, *pixel.Loader, *fakeClock) {
	t.Helper()

	logger := zap.NewNop()
	loader := pixel.NewLoader(bootstrap, logger,
		pixel.WithSleep(func(_ context.Context, _ time.Duration) error { return nil }),
	)
	store := cache.NewInMemorySessionStore(30 * time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	clock := newFakeClock()
	tracker := NewTracker(loader, adapters, store, logger, WithClock(clock.now))
	return tracker, loader, clock
}

func viewItem(id string) domain.RawItem {
	return domain.RawItem{ProductID: id, Quantity: 1, Price: 19.99}
}

func checkoutCart(total float64) Cart {
	return Cart{
		Items: []domain.RawItem{
			{ProductID: "sku-1", Quantity: 2, Price: 200},
			{ProductID: "sku-2", Quantity: 1, Price: 100},
		},
		Currency: "USD",
		Total:    total,
	}
}

func TestTracker_QueuesEventsDuringLoadAndFlushesInOrder(t *testing.T) {
	bootstrap := &blockingBootstrap{release: make(chan struct{})}
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, loader, clock := newTestTracker(t, bootstrap, []pixel.Adapter{recorder})

	ctx := context.Background()
	tracker.LoadPixels(ctx, []domain.PixelConfig{metaConfig()})
	require.Equal(t, 1, loader.PendingLoads())

	tracker.TrackViewContent(ctx, Session{ID: "s1"}, viewItem("sku-1"), "USD")
	clock.advance(6 * time.Second)
	tracker.TrackViewContent(ctx, Session{ID: "s1"}, viewItem("sku-2"), "USD")
	tracker.TrackSearch(ctx, Session{ID: "s1"}, "boots", 12)

	assert.Equal(t, 0, recorder.count(), "nothing fires while a load is pending")
	assert.Equal(t, 3, tracker.QueuedEvents())

	close(bootstrap.release)
	require.NoError(t, tracker.WaitSettled(ctx, time.Second))

	require.Eventually(t, func() bool { return recorder.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.EventName{
		domain.EventViewContent,
		domain.EventViewContent,
		domain.EventSearch,
	}, recorder.names())
	assert.Equal(t, 0, tracker.QueuedEvents())
}

func TestTracker_EphemeralWindowSuppression(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, clock := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackViewContent(ctx, session, viewItem("sku-1"), "USD")
	assert.Equal(t, 1, recorder.count())

	clock.advance(2 * time.Second)
	tracker.TrackViewContent(ctx, session, viewItem("sku-1"), "USD")
	assert.Equal(t, 1, recorder.count(), "repeat within the window is suppressed")

	clock.advance(4 * time.Second)
	tracker.TrackViewContent(ctx, session, viewItem("sku-1"), "USD")
	assert.Equal(t, 2, recorder.count(), "repeat after the window fires again")
}

func TestTracker_PageViewKeyedByPage(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackPageView(ctx, session, "/home")
	tracker.TrackPageView(ctx, session, "/products/1")
	tracker.TrackPageView(ctx, session, "/home")

	assert.Equal(t, 2, recorder.count(), "distinct pages fire, same page repeat is suppressed")
}

func TestTracker_CheckoutFingerprintDedup(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, clock := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(500))
	assert.Equal(t, 1, recorder.count())

	clock.advance(6 * time.Second)
	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(500))
	assert.Equal(t, 1, recorder.count(), "identical cart never fires twice in a session")

	// A coupon changed the total, so this is a different checkout.
	clock.advance(6 * time.Second)
	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(450))
	assert.Equal(t, 2, recorder.count())

	clock.advance(6 * time.Second)
	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(450))
	assert.Equal(t, 2, recorder.count(), "the new fingerprint replaces the stored one")
}

func TestTracker_CheckoutIsolatedPerSession(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, clock := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()

	tracker.TrackInitiateCheckout(ctx, Session{ID: "s1"}, checkoutCart(500))
	clock.advance(6 * time.Second)
	tracker.TrackInitiateCheckout(ctx, Session{ID: "s2"}, checkoutCart(500))

	assert.Equal(t, 2, recorder.count(), "another session's marker does not suppress")
}

func TestTracker_PurchaseFiresOncePerOrder(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, clock := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}
	order := Order{Cart: checkoutCart(500), OrderID: "order-123"}

	tracker.TrackPurchase(ctx, session, order)
	assert.Equal(t, 1, recorder.count())

	// Confirmation page refresh re-invokes the success path.
	clock.advance(6 * time.Second)
	tracker.TrackPurchase(ctx, session, order)
	assert.Equal(t, 1, recorder.count(), "the order id was already claimed")

	clock.advance(6 * time.Second)
	tracker.TrackPurchase(ctx, session, Order{Cart: checkoutCart(300), OrderID: "order-456"})
	assert.Equal(t, 2, recorder.count(), "a different order fires normally")
}

func TestTracker_PurchaseDistinctOrdersFireBackToBack(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	// Two orders for identical items, fired in the same instant. A gift
	// buyer checking out twice is two conversions, not a duplicate.
	tracker.TrackPurchase(ctx, session, Order{Cart: checkoutCart(500), OrderID: "order-a"})
	tracker.TrackPurchase(ctx, session, Order{Cart: checkoutCart(500), OrderID: "order-b"})

	assert.Equal(t, 2, recorder.count(), "distinct order ids are never conflated")
}

func TestTracker_CheckoutRefiresImmediatelyOnTotalChange(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(500))
	// A coupon applies without any delay; the new fingerprint must fire.
	tracker.TrackInitiateCheckout(ctx, session, checkoutCart(450))

	assert.Equal(t, 2, recorder.count())
}

func TestTracker_SearchKeyedByTerm(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackSearch(ctx, session, "boots", 12)
	tracker.TrackSearch(ctx, session, "jackets", 4)
	tracker.TrackSearch(ctx, session, "boots", 12)

	assert.Equal(t, 2, recorder.count(), "distinct terms fire, a repeated term is suppressed")
}

func TestTracker_PurchaseLatchesSessionCheckout(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, clock := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()

	tracker.TrackPurchase(ctx, Session{ID: "s1"}, Order{Cart: checkoutCart(500), OrderID: "order-123"})
	require.Equal(t, 1, recorder.count())

	clock.advance(6 * time.Second)
	tracker.TrackInitiateCheckout(ctx, Session{ID: "s1"}, checkoutCart(300))
	assert.Equal(t, 1, recorder.count(), "no begin-checkout after the session purchased")

	tracker.TrackInitiateCheckout(ctx, Session{ID: "s2"}, checkoutCart(300))
	assert.Equal(t, 2, recorder.count(), "the latch is scoped to the purchasing session")
}

func TestTracker_AdapterFailuresAreIsolated(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	adapters := []pixel.Adapter{panicAdapter{}, errAdapter{}, recorder}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, adapters)

	tracker.TrackViewContent(context.Background(), Session{ID: "s1"}, viewItem("sku-1"), "USD")

	assert.Equal(t, 1, recorder.count(), "siblings fire despite a panicking and a failing adapter")
}

func TestTracker_DropsInvalidEvents(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()
	session := Session{ID: "s1"}

	tracker.TrackViewContent(ctx, session, domain.RawItem{Quantity: 1, Price: 10}, "USD")
	assert.Equal(t, 0, recorder.count(), "product event without a content id is dropped")

	badOrder := Order{
		Cart: Cart{
			Items:    []domain.RawItem{{ProductID: "sku-1", Quantity: 0, Price: 10}},
			Currency: "USD",
			Total:    10,
		},
		OrderID: "order-123",
	}
	tracker.TrackPurchase(ctx, session, badOrder)
	assert.Equal(t, 0, recorder.count())

	// The invalid attempt must not have consumed the order id.
	tracker.TrackPurchase(ctx, session, Order{Cart: checkoutCart(500), OrderID: "order-123"})
	assert.Equal(t, 1, recorder.count())
}

func TestTracker_FireTestEvent(t *testing.T) {
	recorder := &recordingAdapter{platform: domain.PlatformMeta}
	tracker, _, _ := newTestTracker(t, instantBootstrap{}, []pixel.Adapter{recorder})

	ctx := context.Background()

	err := tracker.FireTestEvent(ctx, domain.PlatformMeta)
	assert.ErrorIs(t, err, domain.ErrPixelNotLoaded)

	tracker.LoadPixels(ctx, []domain.PixelConfig{metaConfig()})
	require.NoError(t, tracker.WaitSettled(ctx, time.Second))

	require.NoError(t, tracker.FireTestEvent(ctx, domain.PlatformMeta))
	assert.Equal(t, 1, recorder.count())
}

func TestTracker_LoadPixelsSkipsDisabledConfigs(t *testing.T) {
	tracker, loader, _ := newTestTracker(t, instantBootstrap{}, nil)

	cfg := metaConfig()
	cfg.Enabled = false
	tracker.LoadPixels(context.Background(), []domain.PixelConfig{cfg})

	assert.Empty(t, loader.Statuses())
}

// loadFailureCount sums the load-failure counter across all data points
func loadFailureCount(reader *sdkmetric.ManualReader) (int64, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return 0, err
	}
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "tracking.pixel.load_failures" {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total, nil
}

func TestTracker_LoadFailureCountedOncePerPlatform(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewTrackingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	logger := zap.NewNop()
	loader := pixel.NewLoader(failingBootstrap{}, logger,
		pixel.WithSleep(func(_ context.Context, _ time.Duration) error { return nil }),
	)
	store := cache.NewInMemorySessionStore(30 * time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	tracker := NewTracker(loader, nil, store, logger, WithMetrics(metrics))

	ctx := context.Background()
	tracker.LoadPixels(ctx, []domain.PixelConfig{metaConfig()})
	require.NoError(t, tracker.WaitSettled(ctx, time.Second))

	require.Eventually(t, func() bool {
		n, err := loadFailureCount(reader)
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)

	// The config refresh loop re-requests the same platform every pass;
	// an already-Failed platform must not be counted again.
	tracker.LoadPixels(ctx, []domain.PixelConfig{metaConfig()})
	require.NoError(t, tracker.WaitSettled(ctx, time.Second))
	time.Sleep(20 * time.Millisecond)

	n, err := loadFailureCount(reader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
