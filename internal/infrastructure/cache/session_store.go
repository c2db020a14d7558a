package cache

import (
	"context"
	"time"
)

// CheckoutMarker is the durable dedup record for one session's
// begin-checkout event: the checkout fingerprint and when it first fired
type CheckoutMarker struct {
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionStore persists per-browsing-session deduplication markers so
// they survive component remounts but not a session reset. Entries are
// bounded by session lifetime, never proactively collected.
type SessionStore interface {
	// CheckoutMarker returns the stored marker for a session, or nil
	// when none exists
	CheckoutMarker(ctx context.Context, sessionID string) (*CheckoutMarker, error)

	// SetCheckoutMarker stores or replaces the session's checkout marker
	SetCheckoutMarker(ctx context.Context, sessionID string, marker CheckoutMarker) error

	// PurchaseCompleted reports whether a purchase has completed in this
	// session; once set, begin-checkout must never fire again for it
	PurchaseCompleted(ctx context.Context, sessionID string) (bool, error)

	// MarkPurchaseCompleted latches the session's purchase flag
	MarkPurchaseCompleted(ctx context.Context, sessionID string) error

	// ClaimOrder atomically claims an order id for firing. Returns true
	// on first claim, false when the order was already claimed (a retry
	// re-invoking the success path).
	ClaimOrder(ctx context.Context, orderID string) (bool, error)

	// Close releases store resources
	Close() error
}
