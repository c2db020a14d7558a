package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// SnapchatAdapter fires events through the snaptr-style Snap pixel
type SnapchatAdapter struct {
	baseAdapter
}

// NewSnapchatAdapter creates the Snapchat adapter
func NewSnapchatAdapter(loader *Loader, logger *zap.Logger) *SnapchatAdapter {
	return &SnapchatAdapter{baseAdapter{platform: tracking.PlatformSnapchat, loader: loader, logger: logger}}
}

var snapchatEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "PAGE_VIEW",
	tracking.EventViewContent:      "VIEW_CONTENT",
	tracking.EventAddToCart:        "ADD_CART",
	tracking.EventInitiateCheckout: "START_CHECKOUT",
	tracking.EventPurchase:         "PURCHASE",
	tracking.EventSearch:           "SEARCH",
}

// Fire implements Adapter
func (a *SnapchatAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"price":    event.Value,
		"currency": event.Currency,
	}
	if len(event.ContentIDs) > 0 {
		payload["item_ids"] = joinIDs(event.ContentIDs)
	}
	if event.OrderID != "" {
		payload["transaction_id"] = event.OrderID
	}
	if event.SearchTerm != "" {
		payload["search_string"] = event.SearchTerm
	}

	return client.Call(ctx, snapchatEvents[event.Name], payload)
}
