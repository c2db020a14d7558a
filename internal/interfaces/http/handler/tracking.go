package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/tracking"
)

// TrackingHandler handles conversion tracking API endpoints. Every track
// endpoint is fire-and-forget: the request is validated, handed to the
// dispatch pipeline and acknowledged with 202 regardless of what the
// vendor adapters do with it afterwards.
type TrackingHandler struct {
	BaseHandler
	tracker *tracking.Tracker
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(tracker *tracking.Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: tracker}
}

// RegisterRoutes registers tracking routes
func (h *TrackingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	track := rg.Group("/track")
	{
		track.POST("/page-view", h.TrackPageView)
		track.POST("/view-content", h.TrackViewContent)
		track.POST("/add-to-cart", h.TrackAddToCart)
		track.POST("/checkout", h.TrackCheckout)
		track.POST("/purchase", h.TrackPurchase)
		track.POST("/search", h.TrackSearch)
	}
}

// TrackPageView godoc
// @ID           trackPageView
// @Summary      Track a page view
// @Description  Records a page view event and fans it out to every loaded pixel
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body PageViewRequest true "Page view payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/page-view [post]
func (h *TrackingHandler) TrackPageView(c *gin.Context) {
	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackPageView(c.Request.Context(), session, req.Page)
	h.accepted(c)
}

// TrackViewContent godoc
// @ID           trackViewContent
// @Summary      Track a product detail view
// @Description  Records a product view event for one catalog item
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body ViewContentRequest true "Product view payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/view-content [post]
func (h *TrackingHandler) TrackViewContent(c *gin.Context) {
	var req ViewContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackViewContent(c.Request.Context(), session, req.Item.toDomain(), req.Currency)
	h.accepted(c)
}

// TrackAddToCart godoc
// @ID           trackAddToCart
// @Summary      Track an add-to-cart
// @Description  Records an add-to-cart event for one product line
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body AddToCartRequest true "Add-to-cart payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/add-to-cart [post]
func (h *TrackingHandler) TrackAddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackAddToCart(c.Request.Context(), session, req.Item.toDomain(), req.Quantity, req.Currency)
	h.accepted(c)
}

// TrackCheckout godoc
// @ID           trackCheckout
// @Summary      Track a begin-checkout
// @Description  Records a checkout event, deduplicated per session by cart fingerprint
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body CheckoutRequest true "Checkout payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/checkout [post]
func (h *TrackingHandler) TrackCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackInitiateCheckout(c.Request.Context(), session, tracking.Cart{
		Items:    itemsToDomain(req.Items),
		Currency: req.Currency,
		Total:    req.Total,
	})
	h.accepted(c)
}

// TrackPurchase godoc
// @ID           trackPurchase
// @Summary      Track a completed purchase
// @Description  Records a purchase event, fired at most once per order id
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Purchase payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/purchase [post]
func (h *TrackingHandler) TrackPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackPurchase(c.Request.Context(), session, tracking.Order{
		Cart: tracking.Cart{
			Items:    itemsToDomain(req.Items),
			Currency: req.Currency,
			Total:    req.Total,
		},
		OrderID: req.OrderID,
	})
	h.accepted(c)
}

// TrackSearch godoc
// @ID           trackSearch
// @Summary      Track a site search
// @Description  Records a search event with the query term and result count
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        request body SearchRequest true "Search payload"
// @Success      202 {object} APIResponse[TrackAcceptedResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /track/search [post]
func (h *TrackingHandler) TrackSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session := sessionFromRequest(getSessionID(c), req.User)
	h.tracker.TrackSearch(c.Request.Context(), session, req.Term, req.ResultCount)
	h.accepted(c)
}

func (h *TrackingHandler) accepted(c *gin.Context) {
	h.Accepted(c, TrackAcceptedResponse{
		Accepted: true,
		Queued:   h.tracker.QueuedEvents(),
	})
}
