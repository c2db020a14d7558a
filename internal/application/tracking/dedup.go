package tracking

import (
	"fmt"
	"sync"
	"time"

	domain "github.com/storefront/backend/internal/domain/tracking"
)

// DefaultDedupWindow is the ephemeral suppression window
const DefaultDedupWindow = 5 * time.Second

// windowGate is the ephemeral deduplication tier: a sliding time window
// over semantic event keys, scoped to the process lifetime. Entries older
// than twice the window are swept on every check, bounding memory to
// recent activity.
type windowGate struct {
	mu      sync.Mutex
	entries map[string]time.Time
	window  time.Duration
	now     func() time.Time
}

func newWindowGate(window time.Duration, now func() time.Time) *windowGate {
	return &windowGate{
		entries: make(map[string]time.Time),
		window:  window,
		now:     now,
	}
}

// shouldSuppress reports whether the key fired within the window. Outside
// the window the key is treated as new and its timestamp refreshed.
func (g *windowGate) shouldSuppress(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	if seenAt, ok := g.entries[key]; ok && now.Sub(seenAt) < g.window {
		return true
	}
	g.entries[key] = now
	return false
}

// sweep removes entries older than 2×window. Caller must hold the lock.
func (g *windowGate) sweep(now time.Time) {
	cutoff := now.Add(-2 * g.window)
	for key, seenAt := range g.entries {
		if seenAt.Before(cutoff) {
			delete(g.entries, key)
		}
	}
}

// ephemeralKey builds the window-gate key for an event: canonical name
// plus primary content id, refined per event so the window only collapses
// true repeats. Add-to-cart carries a coarse time bucket so rapid remount
// storms collapse while deliberate re-adds in a later bucket still count.
// Checkout and purchase mix in the fingerprint and order id: which
// checkouts are "the same" is decided by the durable tiers, and distinct
// order ids must never be conflated however close together they fire.
func (g *windowGate) ephemeralKey(event domain.NormalizedEvent) string {
	key := string(event.Name) + ":" + event.PrimaryContentID()
	switch event.Name {
	case domain.EventPageView:
		key += ":" + event.Metadata["page"]
	case domain.EventSearch:
		key += ":" + event.SearchTerm
	case domain.EventAddToCart:
		bucket := g.now().UnixMilli() / g.window.Milliseconds()
		key = fmt.Sprintf("%s:%d", key, bucket)
	case domain.EventInitiateCheckout:
		key += ":" + domain.CheckoutFingerprint(event.Contents, event.Value)
	case domain.EventPurchase:
		key += ":" + event.OrderID
	}
	return key
}
