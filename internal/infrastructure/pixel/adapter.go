package pixel

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/storefront/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// Adapter translates a canonical event into one vendor's call format and
// invokes that vendor's loaded tracking function. Adapters are no-ops
// while their platform is not Loaded.
type Adapter interface {
	Platform() tracking.Platform
	Fire(ctx context.Context, event tracking.NormalizedEvent) error
}

// NewAdapters builds one adapter per supported platform, all bound to the
// same loader
func NewAdapters(loader *Loader, logger *zap.Logger) []Adapter {
	return []Adapter{
		NewMetaAdapter(loader, logger),
		NewGoogleAdsAdapter(loader, logger),
		NewGA4Adapter(loader, logger),
		NewTikTokAdapter(loader, logger),
		NewSnapchatAdapter(loader, logger),
		NewPinterestAdapter(loader, logger),
		NewTwitterAdapter(loader, logger),
		NewMicrosoftAdapter(loader, logger),
		NewLinkedInAdapter(loader, logger),
		NewCriteoAdapter(loader, logger),
	}
}

// SafeFire dispatches an event to one adapter with full error isolation:
// a panicking or failing adapter is logged and never prevents sibling
// adapters from firing the same event.
func SafeFire(ctx context.Context, adapter Adapter, event tracking.NormalizedEvent, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("adapter panicked",
				zap.String("platform", adapter.Platform().String()),
				zap.String("event", string(event.Name)),
				zap.Any("panic", r),
			)
		}
	}()

	if err := adapter.Fire(ctx, event); err != nil {
		logger.Error("adapter failed to fire event",
			zap.String("platform", adapter.Platform().String()),
			zap.String("event", string(event.Name)),
			zap.Error(err),
		)
	}
}

// baseAdapter carries what every vendor adapter shares
type baseAdapter struct {
	platform tracking.Platform
	loader   *Loader
	logger   *zap.Logger
}

// Platform returns the vendor this adapter serves
func (a *baseAdapter) Platform() tracking.Platform {
	return a.platform
}

// client resolves the loaded vendor client, logging the no-op at debug
// level when the platform has not reached Loaded
func (a *baseAdapter) client(event tracking.EventName) (VendorClient, bool) {
	client, ok := a.loader.Client(a.platform)
	if !ok {
		a.logger.Debug("skipping fire, pixel not loaded",
			zap.String("platform", a.platform.String()),
			zap.String("event", string(event)),
		)
	}
	return client, ok
}

// joinIDs renders content ids as a comma-separated vendor parameter
func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

// contentsParam renders line items as a compact JSON vendor parameter
// using the given per-vendor field names
func contentsParam(contents []tracking.Content, idField, qtyField, priceField string) string {
	items := make([]map[string]any, 0, len(contents))
	for _, c := range contents {
		items = append(items, map[string]any{
			idField:    c.ID,
			qtyField:   c.Quantity,
			priceField: c.Price,
		})
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
