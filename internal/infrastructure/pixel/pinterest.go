package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// PinterestAdapter fires events through the pintrk-style Pinterest tag.
// Pinterest has no begin-checkout event; InitiateCheckout maps to its
// custom event slot.
type PinterestAdapter struct {
	baseAdapter
}

// NewPinterestAdapter creates the Pinterest adapter
func NewPinterestAdapter(loader *Loader, logger *zap.Logger) *PinterestAdapter {
	return &PinterestAdapter{baseAdapter{platform: tracking.PlatformPinterest, loader: loader, logger: logger}}
}

var pinterestEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "pagevisit",
	tracking.EventViewContent:      "pagevisit",
	tracking.EventAddToCart:        "addtocart",
	tracking.EventInitiateCheckout: "custom",
	tracking.EventPurchase:         "checkout",
	tracking.EventSearch:           "search",
}

// Fire implements Adapter
func (a *PinterestAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"value":    event.Value,
		"currency": event.Currency,
	}
	if len(event.Contents) > 0 {
		payload["line_items"] = contentsParam(event.Contents, "product_id", "product_quantity", "product_price")
	}
	if event.OrderID != "" {
		payload["order_id"] = event.OrderID
	}
	if event.SearchTerm != "" {
		payload["search_query"] = event.SearchTerm
	}

	return client.Call(ctx, pinterestEvents[event.Name], payload)
}
