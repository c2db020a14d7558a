package handler

import (
	"github.com/storefront/backend/internal/application/tracking"
	domain "github.com/storefront/backend/internal/domain/tracking"
)

// ItemRequest represents one cart or catalog line item in a tracking request.
// Any one of product_id, sku or id identifies the item.
// @Description Line item with flexible identifier fields
type ItemRequest struct {
	ProductID string  `json:"product_id" example:"prod-1042"`
	SKU       string  `json:"sku" example:"SKU-001"`
	ID        string  `json:"id" example:"1042"`
	Quantity  int     `json:"quantity" example:"2"`
	Price     float64 `json:"price" example:"49.90"`
}

// UserRequest carries optional plain identity fields for advanced matching
// @Description Identity fields hashed before leaving the backend
type UserRequest struct {
	Email     string `json:"email" example:"jane@example.com"`
	Phone     string `json:"phone" example:"+15555550123"`
	FirstName string `json:"first_name" example:"Jane"`
	LastName  string `json:"last_name" example:"Doe"`
}

// PageViewRequest represents a page view tracking request
// @Description Page view event payload
type PageViewRequest struct {
	Page string       `json:"page" binding:"required" example:"/products/1042"`
	User *UserRequest `json:"user"`
}

// ViewContentRequest represents a product detail view tracking request
// @Description Product view event payload
type ViewContentRequest struct {
	Item     ItemRequest  `json:"item" binding:"required"`
	Currency string       `json:"currency" example:"USD"`
	User     *UserRequest `json:"user"`
}

// AddToCartRequest represents an add-to-cart tracking request
// @Description Add-to-cart event payload
type AddToCartRequest struct {
	Item     ItemRequest  `json:"item" binding:"required"`
	Quantity int          `json:"quantity" binding:"required,min=1" example:"2"`
	Currency string       `json:"currency" example:"USD"`
	User     *UserRequest `json:"user"`
}

// CheckoutRequest represents a begin-checkout tracking request
// @Description Checkout event payload with the full cart
type CheckoutRequest struct {
	Items    []ItemRequest `json:"items" binding:"required,min=1,dive"`
	Currency string        `json:"currency" example:"USD"`
	Total    float64       `json:"total" binding:"required" example:"149.70"`
	User     *UserRequest  `json:"user"`
}

// PurchaseRequest represents a completed purchase tracking request
// @Description Purchase event payload with the order id
type PurchaseRequest struct {
	OrderID  string        `json:"order_id" example:"ord-20260829-0001"`
	Items    []ItemRequest `json:"items" binding:"required,min=1,dive"`
	Currency string        `json:"currency" example:"USD"`
	Total    float64       `json:"total" binding:"required" example:"149.70"`
	User     *UserRequest  `json:"user"`
}

// SearchRequest represents a site-search tracking request
// @Description Search event payload
type SearchRequest struct {
	Term        string       `json:"term" binding:"required" example:"wireless headphones"`
	ResultCount int          `json:"result_count" example:"17"`
	User        *UserRequest `json:"user"`
}

// TrackAcceptedResponse confirms an event entered the dispatch pipeline
// @Description Acknowledgement for a fire-and-forget tracking event
type TrackAcceptedResponse struct {
	Accepted bool `json:"accepted" example:"true"`
	Queued   int  `json:"queued" example:"0"`
}

// PixelStatusResponse represents the load status of one platform
// @Description Pixel script load state for a platform
type PixelStatusResponse struct {
	Platform   string `json:"platform" example:"meta"`
	State      string `json:"state" example:"loaded" enums:"unloaded,loading,loaded,failed"`
	Attempts   int    `json:"attempts" example:"1"`
	LastError  string `json:"last_error,omitempty" example:""`
	LoadTimeMs int64  `json:"load_time_ms" example:"312"`
}

// PixelConfigRequest represents an admin upsert of one pixel configuration
// @Description Pixel configuration payload
type PixelConfigRequest struct {
	ExternalPixelID string `json:"external_pixel_id" binding:"required" example:"123456789012345"`
	Enabled         bool   `json:"enabled" example:"true"`
}

// PixelConfigResponse represents one stored pixel configuration
// @Description Pixel configuration as stored
type PixelConfigResponse struct {
	ID              string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Platform        string `json:"platform" example:"meta"`
	ExternalPixelID string `json:"external_pixel_id" example:"123456789012345"`
	Enabled         bool   `json:"enabled" example:"true"`
}

// TestFireResponse confirms a synthetic event reached the vendor adapter
// @Description Test fire acknowledgement
type TestFireResponse struct {
	Platform string `json:"platform" example:"meta"`
	Fired    bool   `json:"fired" example:"true"`
}

func (r ItemRequest) toDomain() domain.RawItem {
	return domain.RawItem{
		ProductID: r.ProductID,
		SKU:       r.SKU,
		ID:        r.ID,
		Quantity:  r.Quantity,
		Price:     r.Price,
	}
}

func itemsToDomain(items []ItemRequest) []domain.RawItem {
	out := make([]domain.RawItem, len(items))
	for i, item := range items {
		out[i] = item.toDomain()
	}
	return out
}

func (r *UserRequest) toDomain() *domain.User {
	if r == nil {
		return nil
	}
	return &domain.User{
		Email:     r.Email,
		Phone:     r.Phone,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

func sessionFromRequest(sessionID string, user *UserRequest) tracking.Session {
	return tracking.Session{
		ID:   sessionID,
		User: user.toDomain(),
	}
}

func statusToResponse(status domain.LoadStatus) PixelStatusResponse {
	return PixelStatusResponse{
		Platform:   status.Platform.String(),
		State:      string(status.State),
		Attempts:   status.Attempts,
		LastError:  status.LastError,
		LoadTimeMs: status.LoadTime.Milliseconds(),
	}
}

func configToResponse(cfg domain.PixelConfig) PixelConfigResponse {
	return PixelConfigResponse{
		ID:              cfg.ID.String(),
		Platform:        cfg.Platform.String(),
		ExternalPixelID: cfg.ExternalPixelID,
		Enabled:         cfg.Enabled,
	}
}
