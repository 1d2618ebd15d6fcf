package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireloop/interview-backend/internal/middleware"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
	"github.com/hireloop/interview-backend/internal/response"
	"github.com/hireloop/interview-backend/internal/service"
	"github.com/hireloop/interview-backend/internal/validator"
)

// InterviewHandler handles the admin scheduling surface: candidates,
// templates, and interview lifecycle management.
type InterviewHandler struct {
	interviews  *service.InterviewService
	sessions    *service.SessionManager
	authService *service.AuthService
	users       *repository.UserRepository
	templates   *repository.TemplateRepository
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(
	interviews *service.InterviewService,
	sessions *service.SessionManager,
	authService *service.AuthService,
	users *repository.UserRepository,
	templates *repository.TemplateRepository,
) *InterviewHandler {
	return &InterviewHandler{
		interviews:  interviews,
		sessions:    sessions,
		authService: authService,
		users:       users,
		templates:   templates,
	}
}

// CreateInterview godoc
// POST /api/v1/admin/interviews
// Schedules an interview; the question set is resolved and frozen here.
func (h *InterviewHandler) CreateInterview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateInterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	iv, err := h.interviews.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"interview": iv})
}

// ListInterviews godoc
// GET /api/v1/admin/interviews
func (h *InterviewHandler) ListInterviews(c *gin.Context) {
	interviews, err := h.interviews.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interviews": interviews})
}

// GetInterview godoc
// GET /api/v1/admin/interviews/:interview_id
func (h *InterviewHandler) GetInterview(c *gin.Context) {
	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	iv, err := h.interviews.GetByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": iv})
}

// CancelInterview godoc
// POST /api/v1/admin/interviews/:interview_id/cancel
// Withdraws a SCHEDULED interview, freeing the candidate's live slot.
func (h *InterviewHandler) CancelInterview(c *gin.Context) {
	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	var req model.CancelInterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	iv, err := h.interviews.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": iv})
}

// RescheduleInterview godoc
// POST /api/v1/admin/interviews/:interview_id/reschedule
func (h *InterviewHandler) RescheduleInterview(c *gin.Context) {
	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	var req model.RescheduleInterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	iv, err := h.interviews.Reschedule(c.Request.Context(), id, req.ScheduledAt)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"interview": iv})
}

// GetSummary godoc
// GET /api/v1/admin/interviews/:interview_id/summary
func (h *InterviewHandler) GetSummary(c *gin.Context) {
	id, ok := parseID(c, "interview_id")
	if !ok {
		return
	}

	summary, err := h.sessions.Summary(c.Request.Context(), id, uuid.Nil, true)
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

// CreateTemplate godoc
// POST /api/v1/admin/templates
func (h *InterviewHandler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tpl := &model.InterviewTemplate{
		Name:        req.Name,
		RoleTitle:   req.RoleTitle,
		Skills:      req.Skills,
		Description: req.Description,
		IsActive:    true,
	}
	if err := h.templates.Create(c.Request.Context(), tpl); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"template": tpl})
}

// ListTemplates godoc
// GET /api/v1/admin/templates
func (h *InterviewHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"templates": templates})
}

// CreateCandidate godoc
// POST /api/v1/admin/candidates
func (h *InterviewHandler) CreateCandidate(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleCandidate,
		IsActive:     true,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"candidate": user})
}

// ResetCandidateSession godoc
// POST /api/v1/admin/candidates/:candidate_id/reset-session
// Clears a candidate's single-device login session so they can sign in from
// a new device without waiting for token expiry.
func (h *InterviewHandler) ResetCandidateSession(c *gin.Context) {
	id, ok := parseID(c, "candidate_id")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil || user.Role != model.RoleCandidate {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if err := h.authService.ResetCandidateSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListCandidates godoc
// GET /api/v1/admin/candidates
func (h *InterviewHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.users.ListCandidates(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// parseID parses a UUID path param, writing the error response on failure.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
