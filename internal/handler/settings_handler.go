package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// SettingsHandler handles HTTP requests for survey trip breaker settings
type SettingsHandler struct {
	service *service.SurveyService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service *service.SurveyService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetSettings handles GET /api/v1/survey/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	params, err := h.service.Settings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get settings")
		return
	}

	response.Success(c, models.SettingsFromParameters(params))
}

// UpdateSettings handles PUT /api/v1/survey/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req models.SurveySettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid settings: "+err.Error())
		return
	}

	params := req.Parameters()
	if err := h.service.UpdateSettings(c.Request.Context(), id, params); err != nil {
		respondError(c, err, "Failed to update settings")
		return
	}

	response.Success(c, models.SettingsFromParameters(params))
}
