package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// TripHandler handles HTTP requests for detected trips
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// GetUserTrips handles GET /api/v1/users/:uuid/trips
func (h *TripHandler) GetUserTrips(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var filter models.TimeWindowFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	start, end, err := filter.Window()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UserTrips(c.Request.Context(), id, c.Param("uuid"), start, end)
	if err != nil {
		respondError(c, err, "Failed to detect trips")
		return
	}

	var trips interface{} = gin.H{}
	if !result.Empty() {
		trips = export.TripsGeoJSON(result)
	}

	response.Success(c, gin.H{
		"trips":       trips,
		"searchStart": filter.StartTime,
		"searchEnd":   filter.EndTime,
	})
}
