package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// SubwayHandler handles HTTP requests for subway stops
type SubwayHandler struct {
	service *service.SubwayStopService
}

// NewSubwayHandler creates a new subway stop handler
func NewSubwayHandler(service *service.SubwayStopService) *SubwayHandler {
	return &SubwayHandler{service: service}
}

// GetStops handles GET /api/v1/tripbreaker/subway
func (h *SubwayHandler) GetStops(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	view, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get subway stops")
		return
	}

	response.Success(c, gin.H{
		"stops":      export.StopsGeoJSON(models.EngineStops(view.Stops)),
		"bufferSize": view.BufferSize,
	})
}

// UploadStops handles POST /api/v1/tripbreaker/subway
func (h *SubwayHandler) UploadStops(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("stops")
	if err != nil {
		response.BadRequest(c, "Missing stops file")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "Unreadable stops file")
		return
	}
	defer file.Close()

	result, err := h.service.Import(c.Request.Context(), id, file)
	if err != nil {
		respondError(c, err, "Failed to import subway stops")
		return
	}

	response.Created(c, result)
}

// DeleteStops handles DELETE /api/v1/tripbreaker/subway
func (h *SubwayHandler) DeleteStops(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	removed, err := h.service.DeleteAll(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to delete subway stops")
		return
	}

	response.Success(c, gin.H{"removed": removed})
}
