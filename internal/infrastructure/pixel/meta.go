package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// MetaAdapter fires events through the fbq-style Meta pixel. Meta is the
// one platform that accepts advanced matching, so pre-hashed user fields
// ride along when the caller supplied them.
type MetaAdapter struct {
	baseAdapter
}

// NewMetaAdapter creates the Meta (Facebook/Instagram) adapter
func NewMetaAdapter(loader *Loader, logger *zap.Logger) *MetaAdapter {
	return &MetaAdapter{baseAdapter{platform: tracking.PlatformMeta, loader: loader, logger: logger}}
}

// Meta uses the canonical PascalCase vocabulary directly
var metaEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "PageView",
	tracking.EventViewContent:      "ViewContent",
	tracking.EventAddToCart:        "AddToCart",
	tracking.EventInitiateCheckout: "InitiateCheckout",
	tracking.EventPurchase:         "Purchase",
	tracking.EventSearch:           "Search",
}

// Fire implements Adapter
func (a *MetaAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
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
		payload["content_type"] = "product"
		payload["contents"] = contentsParam(event.Contents, "id", "quantity", "item_price")
	}
	if event.OrderID != "" {
		payload["order_id"] = event.OrderID
	}
	if event.SearchTerm != "" {
		payload["search_string"] = event.SearchTerm
	}
	if event.Match != nil {
		if event.Match.Email != "" {
			payload["ud[em]"] = event.Match.Email
		}
		if event.Match.Phone != "" {
			payload["ud[ph]"] = event.Match.Phone
		}
		if event.Match.FirstName != "" {
			payload["ud[fn]"] = event.Match.FirstName
		}
		if event.Match.LastName != "" {
			payload["ud[ln]"] = event.Match.LastName
		}
	}

	return client.Call(ctx, metaEvents[event.Name], payload)
}
