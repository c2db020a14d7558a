package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EventName is a canonical, platform-agnostic e-commerce event name.
// Adapters translate these into each vendor's vocabulary.
type EventName string

// Canonical event names
const (
	EventPageView         EventName = "PageView"
	EventViewContent      EventName = "ViewContent"
	EventAddToCart        EventName = "AddToCart"
	EventInitiateCheckout EventName = "InitiateCheckout"
	EventPurchase         EventName = "Purchase"
	EventSearch           EventName = "Search"
)

// ProductScoped reports whether the event must carry at least one content id
func (n EventName) ProductScoped() bool {
	switch n {
	case EventViewContent, EventAddToCart, EventInitiateCheckout, EventPurchase:
		return true
	}
	return false
}

// RawItem is one loosely-shaped line item as received from callers.
// Different storefront components use different id field names.
type RawItem struct {
	ProductID string  `json:"product_id,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	ID        string  `json:"id,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Identifier resolves the item identifier using the fixed precedence
// product_id > sku > id. Advertising platforms match conversions to
// catalog entries primarily by SKU; the internal id is a degraded
// fallback but must never leave the identifier empty when one exists.
func (i RawItem) Identifier() string {
	if i.ProductID != "" {
		return i.ProductID
	}
	if i.SKU != "" {
		return i.SKU
	}
	return i.ID
}

// RawEvent is the loosely-shaped inbound payload for a domain event
type RawEvent struct {
	Name        EventName
	Currency    string
	Value       float64
	Items       []RawItem
	OrderID     string
	SearchTerm  string
	ResultCount int
	Metadata    map[string]string
	User        *User
}

// Content is one validated line item of a normalized event
type Content struct {
	ID       string  `json:"id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// NormalizedEvent is the canonical payload handed to platform adapters.
// It is built fresh per fire and never persisted beyond the fire.
type NormalizedEvent struct {
	Name        EventName
	Currency    string
	Value       float64
	ContentIDs  []string
	Contents    []Content
	OrderID     string
	SearchTerm  string
	ResultCount int
	Metadata    map[string]string
	Match       *MatchParams
}

// PrimaryContentID returns the first content id, or empty when none exist
func (e NormalizedEvent) PrimaryContentID() string {
	if len(e.ContentIDs) == 0 {
		return ""
	}
	return e.ContentIDs[0]
}

// User holds plain user-identity fields supplied by the session layer
type User struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// MatchParams carries pre-hashed user-identity fields for the one vendor
// that supports advanced matching
type MatchParams struct {
	Email     string `json:"em,omitempty"`
	Phone     string `json:"ph,omitempty"`
	FirstName string `json:"fn,omitempty"`
	LastName  string `json:"ln,omitempty"`
}

// HashUser derives deterministic advanced-matching parameters from a user.
// Fields are lower-cased, trimmed and SHA-256 hashed per the vendor's
// matching contract; empty fields stay empty.
func HashUser(u User) MatchParams {
	return MatchParams{
		Email:     hashField(u.Email),
		Phone:     hashField(u.Phone),
		FirstName: hashField(u.FirstName),
		LastName:  hashField(u.LastName),
	}
}

func hashField(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
