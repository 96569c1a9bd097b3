package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/itinerum/tripbreaker-backend/internal/export"
	"github.com/itinerum/tripbreaker-backend/internal/middleware"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/internal/tripbreaker"
	"github.com/itinerum/tripbreaker-backend/pkg/response"
)

// respondError maps service errors onto the response envelope
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, tripbreaker.ErrInvalidParameters),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrNoValidStops),
		errors.Is(err, export.ErrNoCoordinateColumns):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrExportNotReady):
		response.Conflict(c, err.Error())
	default:
		c.Error(err)
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		response.InternalError(c, message)
	}
}

// surveyID reads the authenticated survey, answering 401 when it is absent
func surveyID(c *gin.Context) (int64, bool) {
	id, ok := middleware.SurveyID(c)
	if !ok {
		response.Unauthorized(c, "no survey in session")
	}
	return id, ok
}
