package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/interview-backend/internal/response"
	"github.com/hireloop/interview-backend/internal/service"
	"github.com/hireloop/interview-backend/internal/state"
)

// writeServiceError translates the service error taxonomy into the response
// envelope. Unrecognized errors become 500 INTERNAL_ERROR.
func writeServiceError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	var transition *state.InvalidTransitionError

	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrTooEarly):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrTooEarly)
	case errors.Is(err, service.ErrNoMoreQuestions):
		response.Fail(c, http.StatusNotFound, response.ErrNoMoreQuestions)
	case errors.Is(err, service.ErrCandidateHasLive):
		response.Fail(c, http.StatusConflict, response.ErrCandidateHasActive)
	case errors.Is(err, service.ErrTemplateUnavailable):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrTemplateUnavailable)
	case errors.Is(err, service.ErrScheduleInPast):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrValidation)
	case errors.As(err, &conflict):
		response.FailWithStatus(c, http.StatusConflict, response.ErrConflict, conflict.CurrentStatus)
	case errors.As(err, &transition):
		response.FailWithStatus(c, http.StatusConflict, response.ErrInvalidTransition, string(transition.From))
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
