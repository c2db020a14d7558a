package pixel

import (
	"context"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// LinkedInAdapter fires events through the lintrk-style LinkedIn Insight
// tag. LinkedIn has no e-commerce vocabulary; every canonical event maps
// to a conversion call carrying the event name.
type LinkedInAdapter struct {
	baseAdapter
}

// NewLinkedInAdapter creates the LinkedIn adapter
func NewLinkedInAdapter(loader *Loader, logger *zap.Logger) *LinkedInAdapter {
	return &LinkedInAdapter{baseAdapter{platform: tracking.PlatformLinkedIn, loader: loader, logger: logger}}
}

// Fire implements Adapter
func (a *LinkedInAdapter) Fire(ctx context.Context, event tracking.NormalizedEvent) error {
	client, ok := a.client(event.Name)
	if !ok {
		return nil
	}

	payload := map[string]any{
		"conversion_name": string(event.Name),
		"value":           event.Value,
		"currency":        event.Currency,
	}
	if event.OrderID != "" {
		payload["order_id"] = event.OrderID
	}

	return client.Call(ctx, "track", payload)
}
