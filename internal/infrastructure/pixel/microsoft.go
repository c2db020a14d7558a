package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// MicrosoftAdapter fires events through the uetq queue-push style
// Microsoft Advertising (Bing) UET tag
type MicrosoftAdapter struct {
	baseAdapter
}

// NewMicrosoftAdapter creates the Microsoft Advertising adapter
func NewMicrosoftAdapter(loader *Loader, logger *zap.Logger) *MicrosoftAdapter {
	return &MicrosoftAdapter{baseAdapter{platform: tracking.PlatformMicrosoft, loader: loader, logger: logger}}
}

var microsoftEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "page_view",
	tracking.EventViewContent:      "view_item",
	tracking.EventAddToCart:        "add_to_cart",
	tracking.EventInitiateCheckout: "begin_checkout",
	tracking.EventPurchase:         "purchase",
	tracking.EventSearch:           "search",
}

// UET ecomm page types per canonical event
var microsoftPageTypes = map[tracking.EventName]string{
	tracking.EventPageView:         "home",
	tracking.EventViewContent:      "product",
	tracking.EventAddToCart:        "cart",
	tracking.EventInitiateCheckout: "cart",
	tracking.EventPurchase:         "purchase",
	tracking.EventSearch:           "searchresults",
}

// Fire implements Adapter
func (a *MicrosoftAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"revenue_value":  event.Value,
		"currency":       event.Currency,
		"ecomm_pagetype": microsoftPageTypes[event.Name],
	}
	if len(event.ContentIDs) > 0 {
		payload["ecomm_prodid"] = joinIDs(event.ContentIDs)
	}
	if event.SearchTerm != "" {
		payload["search_term"] = event.SearchTerm
	}

	return client.Call(ctx, microsoftEvents[event.Name], payload)
}
