package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireloop/interview-backend/internal/middleware"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/response"
	"github.com/hireloop/interview-backend/internal/service"
	"github.com/hireloop/interview-backend/internal/validator"
)

// SessionHandler handles the candidate-facing interview flow: discovering
// the live interview, starting a session, question delivery, answer
// submission, proctoring events, and the post-interview summary.
type SessionHandler struct {
	interviews *service.InterviewService
	sessions   *service.SessionManager
	proctoring *service.ProctoringService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	interviews *service.InterviewService,
	sessions *service.SessionManager,
	proctoring *service.ProctoringService,
) *SessionHandler {
	return &SessionHandler{
		interviews: interviews,
		sessions:   sessions,
		proctoring: proctoring,
	}
}

// GetActiveInterview godoc
// GET /api/v1/candidate/interviews/active
// Returns the candidate's live interview, with rejoin data if running.
func (h *SessionHandler) GetActiveInterview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.interviews.Active(c.Request.Context(), claims.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": view})
}

// StartInterview godoc
// POST /api/v1/candidate/interviews/:interview_id/start
// Starts the interview or rejoins the existing session. Safe to call
// concurrently from multiple tabs: exactly one session ever exists.
func (h *SessionHandler) StartInterview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	result, err := h.sessions.Start(c.Request.Context(), id, claims.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"session": result})
}

// NextQuestion godoc
// GET /api/v1/candidate/sessions/:session_id/question
// Returns the question at the session's current position.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	question, err := h.sessions.NextQuestion(c.Request.Context(), id, claims.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// SubmitAnswer godoc
// POST /api/v1/candidate/sessions/:session_id/answer
// Records one answer and advances the session; completes the interview on
// the final answer.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.sessions.SubmitAnswer(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": outcome})
}

// ReportProctoringEvent godoc
// POST /api/v1/candidate/sessions/:session_id/proctoring-events
// REST fallback for reporting proctoring events when the control channel is
// down. Same verdict semantics as the WebSocket path.
func (h *SessionHandler) ReportProctoringEvent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	var req model.ProctoringEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	verdict, err := h.proctoring.HandleEvent(c.Request.Context(), id, claims.UserID, req.EventType, req.Confidence)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verdict": verdict})
}

// GetSummary godoc
// GET /api/v1/candidate/interviews/:interview_id/summary
func (h *SessionHandler) GetSummary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	summary, err := h.sessions.Summary(c.Request.Context(), id, claims.UserID, false)
	if err != nil {
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			response.FailWithStatus(c, http.StatusConflict, response.ErrSummaryUnavailable, conflict.CurrentStatus)
			return
		}
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}
