package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/itinerum/tripbreaker-backend/internal/middleware"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// ExportHandler handles HTTP requests for trips exports
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service *service.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// exportView adds the download location to a task
type exportView struct {
	*models.ExportTask
	URI string `json:"uri,omitempty"`
}

func newExportView(task *models.ExportTask) exportView {
	view := exportView{ExportTask: task}
	if task.Status == models.ExportStatusCompleted && task.FilePath != "" {
		view.URI = fmt.Sprintf("/api/v1/exports/%d/download", task.ID)
	}
	return view
}

// CreateTripsExport handles POST /api/v1/exports/trips
func (h *ExportHandler) CreateTripsExport(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	start, end, err := req.Window()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.CreateTripsExport(c.Request.Context(), id, start, end, middleware.Subject(c))
	if err != nil {
		respondError(c, err, "Failed to create export")
		return
	}

	response.Accepted(c, newExportView(task))
}

// GetExport handles GET /api/v1/exports/:id
func (h *ExportHandler) GetExport(c *gin.Context) {
	survey, ok := surveyID(c)
	if !ok {
		return
	}
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid export ID")
		return
	}

	task, err := h.service.Task(c.Request.Context(), survey, taskID)
	if err != nil {
		respondError(c, err, "Failed to get export")
		return
	}

	response.Success(c, newExportView(task))
}

// DownloadExport handles GET /api/v1/exports/:id/download
func (h *ExportHandler) DownloadExport(c *gin.Context) {
	survey, ok := surveyID(c)
	if !ok {
		return
	}
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid export ID")
		return
	}

	task, err := h.service.DownloadPath(c.Request.Context(), survey, taskID)
	if err != nil {
		respondError(c, err, "Failed to download export")
		return
	}

	c.FileAttachment(task.FilePath, task.FileName)
}
