package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// gtag vocabulary shared by Google Ads and GA4
var gtagEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "page_view",
	tracking.EventViewContent:      "view_item",
	tracking.EventAddToCart:        "add_to_cart",
	tracking.EventInitiateCheckout: "begin_checkout",
	tracking.EventPurchase:         "purchase",
	tracking.EventSearch:           "search",
}

func gtagPayload(event tracking.NormalizedEvent) map[string]any {
	payload := map[string]any{
		"value":    event.Value,
		"currency": event.Currency,
	}
	if len(event.Contents) > 0 {
		payload["items"] = contentsParam(event.Contents, "item_id", "quantity", "price")
	}
	if event.OrderID != "" {
		payload["transaction_id"] = event.OrderID
	}
	if event.SearchTerm != "" {
		payload["search_term"] = event.SearchTerm
	}
	return payload
}

// GoogleAdsAdapter fires gtag-style conversion events against a Google
// Ads (AW-) tag
type GoogleAdsAdapter struct {
	baseAdapter
}

// NewGoogleAdsAdapter creates the Google Ads adapter
func NewGoogleAdsAdapter(loader *Loader, logger *zap.Logger) *GoogleAdsAdapter {
	return &GoogleAdsAdapter{baseAdapter{platform: tracking.PlatformGoogleAds, loader: loader, logger: logger}}
}

// Fire implements Adapter
func (a *GoogleAdsAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := gtagPayload(event)
	// Purchases count as conversions on the Ads tag
	if event.Name == tracking.EventPurchase {
		payload["conversion"] = true
	}

	return client.Call(ctx, gtagEvents[event.Name], payload)
}

// GA4Adapter fires gtag-style measurement events against a GA4 (G-) tag
type GA4Adapter struct {
	baseAdapter
}

// NewGA4Adapter creates the Google Analytics 4 adapter
func NewGA4Adapter(loader *Loader, logger *zap.Logger) *GA4Adapter {
	return &GA4Adapter{baseAdapter{platform: tracking.PlatformGA4, loader: loader, logger: logger}}
}

// Fire implements Adapter
func (a *GA4Adapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := gtagPayload(event)
	if event.Name == tracking.EventSearch {
		payload["engagement_time_msec"] = 1
	}

	return client.Call(ctx, gtagEvents[event.Name], payload)
}
