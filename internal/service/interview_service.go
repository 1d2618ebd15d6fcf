package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
)

// Scheduling errors beyond the shared lifecycle taxonomy.
var (
	ErrCandidateHasLive    = errors.New("candidate already has a live interview")
	ErrTemplateUnavailable = errors.New("template not found or inactive")
	ErrScheduleInPast      = errors.New("scheduled time is in the past")
)

// scheduleGrace is how far in the past an admin may still schedule an
// interview, absorbing clock skew and form latency.
const scheduleGrace = 10 * time.Minute

// InterviewService owns interview scheduling and read models. The question
// set is resolved exactly once here, at creation; nothing downstream ever
// regenerates it.
type InterviewService struct {
	store     repository.InterviewStore
	users     *repository.UserRepository
	templates *repository.TemplateRepository
	curator   *Curator
	log       zerolog.Logger
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(
	store repository.InterviewStore,
	users *repository.UserRepository,
	templates *repository.TemplateRepository,
	curator *Curator,
	log zerolog.Logger,
) *InterviewService {
	return &InterviewService{
		store:     store,
		users:     users,
		templates: templates,
		curator:   curator,
		log:       log.With().Str("component", "interview_service").Logger(),
	}
}

// Create schedules an interview for a candidate. Enforces the one-live-
// interview rule and attaches the resolved question set before the row is
// written, so the interview is answerable the moment it exists.
func (s *InterviewService) Create(ctx context.Context, adminID uuid.UUID, req *model.CreateInterviewRequest) (*model.Interview, error) {
	if req.ScheduledAt.Before(time.Now().UTC().Add(-scheduleGrace)) {
		return nil, ErrScheduleInPast
	}

	candidate, err := s.users.GetByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if candidate.Role != model.RoleCandidate || !candidate.IsActive {
		return nil, ErrNotFound
	}

	tpl, err := s.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, ErrTemplateUnavailable
		}
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateUnavailable
	}

	iv := &model.Interview{
		CandidateID: candidate.ID,
		TemplateID:  tpl.ID,
		AssignedBy:  adminID,
		Status:      model.InterviewStatusScheduled,
		ScheduledAt: req.ScheduledAt.UTC(),
		Questions:   s.curator.Resolve(ctx, tpl),
	}

	if err := s.store.CreateInterview(ctx, iv); err != nil {
		if errors.Is(err, repository.ErrDuplicateLive) {
			return nil, ErrCandidateHasLive
		}
		return nil, err
	}

	s.log.Info().
		Str("interview_id", iv.ID.String()).
		Str("candidate_id", candidate.ID.String()).
		Str("generation_method", iv.Questions.GenerationMethod).
		Msg("Interview scheduled")

	return iv, nil
}

// List returns all interviews, newest first.
func (s *InterviewService) List(ctx context.Context) ([]model.Interview, error) {
	return s.store.ListInterviews(ctx)
}

// GetByID returns one interview.
func (s *InterviewService) GetByID(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	iv, err := s.store.InterviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return iv, nil
}

// Cancel withdraws a SCHEDULED interview. Running or finished interviews
// cannot be cancelled, only terminated.
func (s *InterviewService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Interview, error) {
	var out *model.Interview
	err := s.store.WithInterview(ctx, id, func(u repository.InterviewUnit) error {
		iv := u.Interview()
		if iv.Status != model.InterviewStatusScheduled {
			return &ConflictError{CurrentStatus: string(iv.Status)}
		}
		now := time.Now().UTC()
		iv.Status = model.InterviewStatusCancelled
		iv.CancelledAt = &now
		if reason != "" {
			iv.CancellationReason = &reason
		}
		if err := u.SaveInterview(ctx); err != nil {
			return err
		}
		out = iv
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// Reschedule moves a SCHEDULED interview to a new time.
func (s *InterviewService) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (*model.Interview, error) {
	if at.Before(time.Now().UTC().Add(-scheduleGrace)) {
		return nil, ErrScheduleInPast
	}

	var out *model.Interview
	err := s.store.WithInterview(ctx, id, func(u repository.InterviewUnit) error {
		iv := u.Interview()
		if iv.Status != model.InterviewStatusScheduled {
			return &ConflictError{CurrentStatus: string(iv.Status)}
		}
		iv.ScheduledAt = at.UTC()
		if err := u.SaveInterview(ctx); err != nil {
			return err
		}
		out = iv
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// Active returns the candidate's live interview view, including the existing
// session id when the interview is already running.
func (s *InterviewService) Active(ctx context.Context, candidateID uuid.UUID) (*model.ActiveInterview, error) {
	iv, err := s.store.LiveInterviewByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	view := &model.ActiveInterview{
		InterviewID: iv.ID,
		Status:      iv.Status,
		ScheduledAt: iv.ScheduledAt,
		CanStart:    !iv.ScheduledAt.After(time.Now().UTC()),
	}
	if iv.Status == model.InterviewStatusInProgress {
		if sess, err := s.store.ActiveSessionByInterview(ctx, iv.ID); err == nil {
			id := sess.ID
			view.SessionID = &id
			view.CanStart = true
		}
	}
	return view, nil
}
