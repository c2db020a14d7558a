package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apptracking "github.com/storefront/backend/internal/application/tracking"
	domain "github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/pixel"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubClient struct{}

func (stubClient) Call(context.Context, string, map[string]any) error { return nil }

type instantBootstrap struct{}

func (instantBootstrap) Bootstrap(context.Context, domain.Platform, string) (pixel.VendorClient, error) {
	return stubClient{}, nil
}

// recordingAdapter captures every event fired at it
type recordingAdapter struct {
	mu    sync.Mutex
	fired []domain.NormalizedEvent
}

func (a *recordingAdapter) Platform() domain.Platform { return domain.PlatformMeta }

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

func newTestTracker(t *testing.T, adapters []pixel.Adapter) *apptracking.Tracker {
	t.Helper()
	logger := zaptest.NewLogger(t)
	loader := pixel.NewLoader(instantBootstrap{}, logger,
		pixel.WithSleep(func(context.Context, time.Duration) error { return nil }))
	sessions := cache.NewInMemorySessionStore(30 * time.Minute)
	t.Cleanup(func() { _ = sessions.Close() })
	return apptracking.NewTracker(loader, adapters, sessions, logger)
}

func newTestServer(t *testing.T, tracker *apptracking.Tracker) *gin.Engine {
	t.Helper()
	engine := gin.New()
	engine.Use(middleware.SessionID())
	api := engine.Group("/api/v1")
	NewTrackingHandler(tracker).RegisterRoutes(api)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestTrackingHandler_TrackPageView(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/page-view", "sess-1", PageViewRequest{Page: "/home"})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["accepted"])
	assert.Equal(t, 1, adapter.count())
}

func TestTrackingHandler_TrackPageView_MissingPage(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/page-view", "sess-1", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, 0, adapter.count())
}

func TestTrackingHandler_TrackViewContent(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/view-content", "sess-1", ViewContentRequest{
		Item:     ItemRequest{SKU: "SKU-001", Price: 49.90},
		Currency: "USD",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, adapter.count())
	assert.Equal(t, domain.EventViewContent, adapter.fired[0].Name)
	assert.Equal(t, []string{"SKU-001"}, adapter.fired[0].ContentIDs)
}

func TestTrackingHandler_TrackAddToCart_RejectsZeroQuantity(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/add-to-cart", "sess-1", AddToCartRequest{
		Item:     ItemRequest{SKU: "SKU-001", Price: 10},
		Quantity: 0,
		Currency: "USD",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, adapter.count())
}

func TestTrackingHandler_TrackPurchase_DuplicateOrderFiresOnce(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	body := PurchaseRequest{
		OrderID:  "ord-1001",
		Items:    []ItemRequest{{SKU: "SKU-001", Quantity: 2, Price: 49.90}},
		Currency: "USD",
		Total:    99.80,
	}

	w := postJSON(t, engine, "/api/v1/track/purchase", "sess-1", body)
	assert.Equal(t, http.StatusAccepted, w.Code)

	// Confirmation page refresh replays the same order
	w = postJSON(t, engine, "/api/v1/track/purchase", "sess-1", body)
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, 1, adapter.count())
}

func TestTrackingHandler_TrackCheckout(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/checkout", "sess-1", CheckoutRequest{
		Items:    []ItemRequest{{SKU: "SKU-001", Quantity: 1, Price: 25}},
		Currency: "USD",
		Total:    25,
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, adapter.count())
	assert.Equal(t, domain.EventInitiateCheckout, adapter.fired[0].Name)
}

func TestTrackingHandler_TrackSearch(t *testing.T) {
	adapter := &recordingAdapter{}
	tracker := newTestTracker(t, []pixel.Adapter{adapter})
	engine := newTestServer(t, tracker)

	w := postJSON(t, engine, "/api/v1/track/search", "sess-1", SearchRequest{
		Term:        "wireless headphones",
		ResultCount: 17,
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, adapter.count())
	assert.Equal(t, "wireless headphones", adapter.fired[0].SearchTerm)
	assert.Equal(t, 17, adapter.fired[0].ResultCount)
}
