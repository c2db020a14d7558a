package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// CriteoAdapter fires events through Criteo's queue-push event tag
type CriteoAdapter struct {
	baseAdapter
}

// NewCriteoAdapter creates the Criteo adapter
func NewCriteoAdapter(loader *Loader, logger *zap.Logger) *CriteoAdapter {
	return &CriteoAdapter{baseAdapter{platform: tracking.PlatformCriteo, loader: loader, logger: logger}}
}

var criteoEvents = map[tracking.EventName]string{
	tracking.EventPageView:         "viewHome",
	tracking.EventViewContent:      "viewItem",
	tracking.EventAddToCart:        "viewBasket",
	tracking.EventInitiateCheckout: "viewBasket",
	tracking.EventPurchase:         "trackTransaction",
	tracking.EventSearch:           "viewList",
}

// Fire implements Adapter
func (a *CriteoAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"currency": event.Currency,
	}
	if len(event.Contents) > 0 {
		payload["item"] = contentsParam(event.Contents, "id", "quantity", "price")
	}
	if event.Name == tracking.EventPurchase {
		payload["id"] = event.OrderID
		payload["value"] = event.Value
	}
	if event.SearchTerm != "" {
		payload["keywords"] = event.SearchTerm
	}

	return client.Call(ctx, criteoEvents[event.Name], payload)
}
