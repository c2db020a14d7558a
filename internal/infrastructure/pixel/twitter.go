package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// TwitterAdapter fires events through the twq-style X/Twitter tag
type TwitterAdapter struct {
	baseAdapter
}

// NewTwitterAdapter creates the X/Twitter adapter
func NewTwitterAdapter(loader *Loader, logger *zap.Logger) *TwitterAdapter {
	return &TwitterAdapter{baseAdapter{platform: tracking.PlatformTwitter, loader: loader, logger: logger}}
}

var twitterEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "PageView",
	tracking.EventViewContent:      "ContentView",
	tracking.EventAddToCart:        "AddToCart",
	tracking.EventInitiateCheckout: "InitiateCheckout",
	tracking.EventPurchase:         "Purchase",
	tracking.EventSearch:           "Search",
}

// Fire implements Adapter
func (a *TwitterAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"value":    event.Value,
		"currency": event.Currency,
	}
	if len(event.ContentIDs) > 0 {
		payload["content_ids"] = joinIDs(event.ContentIDs)
		payload["num_items"] = len(event.Contents)
	}
	if event.OrderID != "" {
		payload["conversion_id"] = event.OrderID
	}

	return client.Call(ctx, twitterEvents[event.Name], payload)
}
