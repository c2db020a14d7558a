package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// TikTokAdapter fires events through the ttq-style TikTok pixel
type TikTokAdapter struct {
	baseAdapter
}

// NewTikTokAdapter creates the TikTok adapter
func NewTikTokAdapter(loader *Loader, logger *zap.Logger) *TikTokAdapter {
	return &TikTokAdapter{baseAdapter{platform: tracking.PlatformTikTok, loader: loader, logger: logger}}
}

var tiktokEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "Pageview",
	tracking.EventViewContent:      "ViewContent",
	tracking.EventAddToCart:        "AddToCart",
	tracking.EventInitiateCheckout: "InitiateCheckout",
	tracking.EventPurchase:         "CompletePayment",
	tracking.EventSearch:           "Search",
}

// Fire implements Adapter
func (a *TikTokAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"value":    event.Value,
		"currency": event.Currency,
	}
	if len(event.Contents) > 0 {
		payload["contents"] = contentsParam(event.Contents, "content_id", "quantity", "price")
		payload["content_type"] = "product"
	}
	if event.SearchTerm != "" {
		payload["query"] = event.SearchTerm
	}

	return client.Call(ctx, tiktokEvents[event.Name], payload)
}
