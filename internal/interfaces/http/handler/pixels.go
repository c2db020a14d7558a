package handler

import (
	"github.com/gin-gonic/gin"
	apptracking "github.com/storefront/backend/internal/application/tracking"
	"github.com/storefront/backend/internal/domain/tracking"
)

// PixelsHandler handles pixel configuration and status API endpoints
type PixelsHandler struct {
	BaseHandler
	tracker *apptracking.Tracker
	configs tracking.PixelConfigRepository
}

// NewPixelsHandler creates a new PixelsHandler
func NewPixelsHandler(tracker *apptracking.Tracker, configs tracking.PixelConfigRepository) *PixelsHandler {
	return &PixelsHandler{tracker: tracker, configs: configs}
}

// RegisterRoutes registers pixel routes
func (h *PixelsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pixels := rg.Group("/pixels")
	{
		pixels.GET("/status", h.GetStatuses)
		pixels.GET("/configs", h.ListConfigs)
		pixels.PUT("/configs/:platform", h.SaveConfig)
		pixels.DELETE("/configs/:platform", h.DeleteConfig)
		pixels.POST("/:platform/test-fire", h.TestFire)
	}
}

// GetStatuses godoc
// @ID           getPixelStatuses
// @Summary      Get pixel load statuses
// @Description  Returns the script load state of every requested platform
// @Tags         pixels
// @Produce      json
// @Success      200 {object} APIResponse[[]PixelStatusResponse]
// @Router       /pixels/status [get]
func (h *PixelsHandler) GetStatuses(c *gin.Context) {
	statuses := h.tracker.Statuses()
	out := make([]PixelStatusResponse, len(statuses))
	for i, status := range statuses {
		out[i] = statusToResponse(status)
	}
	h.Success(c, out)
}

// ListConfigs godoc
// @ID           listPixelConfigs
// @Summary      List pixel configurations
// @Description  Returns every stored pixel configuration, enabled or not
// @Tags         pixels
// @Produce      json
// @Success      200 {object} APIResponse[[]PixelConfigResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /pixels/configs [get]
func (h *PixelsHandler) ListConfigs(c *gin.Context) {
	configs, err := h.configs.FindAll(c.Request.Context())
	if err != nil {
		h.InternalError(c, "Failed to list pixel configurations")
		return
	}

	out := make([]PixelConfigResponse, len(configs))
	for i, cfg := range configs {
		out[i] = configToResponse(cfg)
	}
	h.Success(c, out)
}

// SaveConfig godoc
// @ID           savePixelConfig
// @Summary      Create or replace a pixel configuration
// @Description  Upserts the configuration for one platform. Takes effect on the next config refresh.
// @Tags         pixels
// @Accept       json
// @Produce      json
// @Param        platform path string true "Platform name" Enums(meta,google_ads,ga4,tiktok,snapchat,pinterest,twitter,microsoft,linkedin,criteo)
// @Param        request body PixelConfigRequest true "Pixel configuration"
// @Success      200 {object} APIResponse[PixelConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /pixels/configs/{platform} [put]
func (h *PixelsHandler) SaveConfig(c *gin.Context) {
	platform, err := tracking.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req PixelConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg := &tracking.PixelConfig{
		Platform:        platform,
		ExternalPixelID: req.ExternalPixelID,
		Enabled:         req.Enabled,
	}
	if err := h.configs.Save(c.Request.Context(), cfg); err != nil {
		h.InternalError(c, "Failed to save pixel configuration")
		return
	}

	saved, err := h.configs.FindByPlatform(c.Request.Context(), platform)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, configToResponse(*saved))
}

// DeleteConfig godoc
// @ID           deletePixelConfig
// @Summary      Delete a pixel configuration
// @Description  Removes the configuration for one platform
// @Tags         pixels
// @Produce      json
// @Param        platform path string true "Platform name"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /pixels/configs/{platform} [delete]
func (h *PixelsHandler) DeleteConfig(c *gin.Context) {
	platform, err := tracking.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.configs.Delete(c.Request.Context(), platform); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TestFire godoc
// @ID           testFirePixel
// @Summary      Fire a test event at one platform
// @Description  Sends a synthetic page view to a single loaded pixel and returns the adapter result
// @Tags         pixels
// @Produce      json
// @Param        platform path string true "Platform name"
// @Success      200 {object} APIResponse[TestFireResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /pixels/{platform}/test-fire [post]
func (h *PixelsHandler) TestFire(c *gin.Context) {
	platform, err := tracking.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.tracker.FireTestEvent(c.Request.Context(), platform); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TestFireResponse{Platform: platform.String(), Fired: true})
}
