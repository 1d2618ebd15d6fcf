package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
	"github.com/hireloop/interview-backend/internal/state"
)

// Session lifecycle errors. All are terminal, caller-visible outcomes; none
// are retried internally.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrForbidden       = errors.New("resource does not belong to the caller")
	ErrTooEarly        = errors.New("interview cannot start before its scheduled time")
	ErrNoMoreQuestions = errors.New("no more questions")
)

// ConflictError reports a status disagreement; it carries the entity's
// current status so clients can reconcile.
type ConflictError struct {
	CurrentStatus string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("operation conflicts with current status %s", e.CurrentStatus)
}

// SessionManager owns the answering-session lifecycle. Every mutation of the
// interview aggregate runs inside the store's exclusive per-interview lock,
// so concurrent starts and submissions on the same interview serialize.
type SessionManager struct {
	store     repository.InterviewStore
	evaluator Evaluator
	log       zerolog.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store repository.InterviewStore, evaluator Evaluator, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		store:     store,
		evaluator: evaluator,
		log:       log.With().Str("component", "session_manager").Logger(),
	}
}

// fineState projects the coarse interview status onto the fine-grained
// session state machine. The coarse model is what persists; the fine model is
// what transitions are validated against.
func fineState(status model.InterviewStatus) state.State {
	switch status {
	case model.InterviewStatusScheduled:
		return state.StateReady
	case model.InterviewStatusInProgress:
		return state.StateInProgress
	case model.InterviewStatusCompleted:
		return state.StateCompleted
	case model.InterviewStatusCancelled, model.InterviewStatusTerminated:
		return state.StateTerminated
	default:
		return state.StateCreated
	}
}

// Start creates the single answering session for an interview, or returns the
// existing one when the interview is already running (rejoin). Under N
// simultaneous calls exactly one creates the session; the rest acquire the
// lock after it commits, observe IN_PROGRESS, and take the rejoin branch.
func (m *SessionManager) Start(ctx context.Context, interviewID, candidateID uuid.UUID) (*model.StartResult, error) {
	var result *model.StartResult

	err := m.store.WithInterview(ctx, interviewID, func(u repository.InterviewUnit) error {
		iv := u.Interview()

		// Ownership is re-validated on every start, including rejoins.
		if iv.CandidateID != candidateID {
			return ErrForbidden
		}

		switch iv.Status {
		case model.InterviewStatusInProgress:
			sess, err := u.ActiveSession(ctx)
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					// Running interview without a live session: unstartable.
					return &ConflictError{CurrentStatus: string(iv.Status)}
				}
				return err
			}
			result = &model.StartResult{
				SessionID:   sess.ID,
				InterviewID: iv.ID,
				Status:      iv.Status,
				Created:     false,
			}
			return nil

		case model.InterviewStatusScheduled:
			now := time.Now().UTC()
			// The schedule gate applies only on first creation.
			if iv.ScheduledAt.After(now) {
				return ErrTooEarly
			}
			if err := state.Validate(fineState(iv.Status), state.StateInProgress); err != nil {
				return err
			}

			iv.Status = model.InterviewStatusInProgress
			iv.StartedAt = &now
			if err := u.SaveInterview(ctx); err != nil {
				return err
			}

			sess := &model.Session{
				InterviewID:   iv.ID,
				CandidateID:   candidateID,
				Status:        model.SessionStatusActive,
				AnsweredCount: 0,
				StartedAt:     now,
			}
			if err := u.CreateSession(ctx, sess); err != nil {
				return err
			}
			result = &model.StartResult{
				SessionID:   sess.ID,
				InterviewID: iv.ID,
				Status:      iv.Status,
				Created:     true,
			}
			return nil

		default:
			return &ConflictError{CurrentStatus: string(iv.Status)}
		}
	})
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m.log.Info().
		Str("interview_id", interviewID.String()).
		Str("session_id", result.SessionID.String()).
		Bool("created", result.Created).
		Msg("Session started")

	return result, nil
}

// NextQuestion returns the question at the session's current answered count.
// ErrNoMoreQuestions signals the caller to stop polling; it is not a fault.
func (m *SessionManager) NextQuestion(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.QuestionView, error) {
	sess, err := m.session(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusActive {
		return nil, &ConflictError{CurrentStatus: string(sess.Status)}
	}

	iv, err := m.store.InterviewByID(ctx, sess.InterviewID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	questions := iv.Questions.Questions
	if sess.AnsweredCount >= len(questions) {
		return nil, ErrNoMoreQuestions
	}

	q := questions[sess.AnsweredCount]
	return &model.QuestionView{
		QuestionID:   q.QuestionID,
		Prompt:       q.Prompt,
		AnswerMode:   q.AnswerMode,
		TimeLimitSec: q.TimeLimitSec,
		Position:     sess.AnsweredCount + 1,
		Total:        len(questions),
		Conversation: q.Conversation,
		Coding:       q.Coding,
	}, nil
}

// SubmitAnswer advances the session by exactly one question under the
// interview lock, so a double-submitting client cannot lose or duplicate an
// increment. On the final answer the evaluation trigger runs synchronously
// inside the same unit of work, before the result is returned.
func (m *SessionManager) SubmitAnswer(ctx context.Context, sessionID, candidateID uuid.UUID, payload *model.SubmitAnswerRequest) (model.SubmitState, error) {
	sess, err := m.session(ctx, sessionID, candidateID)
	if err != nil {
		return "", err
	}

	var outcome model.SubmitState
	err = m.store.WithInterview(ctx, sess.InterviewID, func(u repository.InterviewUnit) error {
		iv := u.Interview()

		// Reload under the lock; the unlocked read above only located the
		// interview and checked ownership.
		locked, err := u.SessionByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return ErrNotFound
			}
			return err
		}
		if locked.Status != model.SessionStatusActive {
			// Re-submission after completion or termination never
			// increments, it always conflicts.
			return &ConflictError{CurrentStatus: string(locked.Status)}
		}

		// Walk the fine-grained chain for one answer cycle:
		// IN_PROGRESS → QUESTION_ASKED → ANSWER_SUBMITTED → EVALUATING.
		for _, step := range []struct{ from, to state.State }{
			{state.StateInProgress, state.StateQuestionAsked},
			{state.StateQuestionAsked, state.StateAnswerSubmitted},
			{state.StateAnswerSubmitted, state.StateEvaluating},
		} {
			if err := state.Validate(step.from, step.to); err != nil {
				return err
			}
		}

		total := len(iv.Questions.Questions)
		if locked.AnsweredCount >= total {
			return &ConflictError{CurrentStatus: string(locked.Status)}
		}
		locked.AnsweredCount++

		if locked.AnsweredCount >= total {
			if err := state.Validate(state.StateEvaluating, state.StateCompleted); err != nil {
				return err
			}
			now := time.Now().UTC()
			locked.Status = model.SessionStatusCompleted
			locked.CompletedAt = &now
			iv.Status = model.InterviewStatusCompleted
			iv.CompletedAt = &now

			// Evaluation trigger: synchronous, inside the unit of work.
			m.evaluate(ctx, iv)

			if err := u.SaveInterview(ctx); err != nil {
				return err
			}
			if err := u.SaveSession(ctx, locked); err != nil {
				return err
			}
			outcome = model.SubmitStateCompleted
			return nil
		}

		if err := state.Validate(state.StateEvaluating, state.StateInProgress); err != nil {
			return err
		}
		if err := u.SaveSession(ctx, locked); err != nil {
			return err
		}
		outcome = model.SubmitStateInProgress
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return outcome, nil
}

// evaluate scores the completed interview. Evaluation failures degrade to an
// unscored completion rather than failing the submission.
func (m *SessionManager) evaluate(ctx context.Context, iv *model.Interview) {
	ev, err := m.evaluator.Evaluate(ctx, iv)
	if err != nil {
		m.log.Warn().Err(err).
			Str("interview_id", iv.ID.String()).
			Msg("Evaluation failed, completing without score")
		return
	}
	iv.OverallScore = &ev.Score
	iv.Feedback = &ev.Notes
}

// Terminate forces the session and its interview to TERMINATED regardless of
// progress. Terminating an already-terminated session is a no-op.
func (m *SessionManager) Terminate(ctx context.Context, sessionID uuid.UUID, reason string) error {
	sess, err := m.store.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = m.store.WithInterview(ctx, sess.InterviewID, func(u repository.InterviewUnit) error {
		iv := u.Interview()

		locked, err := u.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if locked.Status == model.SessionStatusTerminated &&
			iv.Status == model.InterviewStatusTerminated {
			return nil // idempotent
		}

		current := fineState(iv.Status)
		if current != state.StateTerminated {
			// Completed → Terminated is a legal edge: a finished interview
			// can still be voided by a late hard violation.
			if err := state.Validate(current, state.StateTerminated); err != nil {
				return err
			}
		}

		locked.Status = model.SessionStatusTerminated
		iv.Status = model.InterviewStatusTerminated
		if iv.CancellationReason == nil && reason != "" {
			r := reason
			iv.CancellationReason = &r
		}
		if err := u.SaveInterview(ctx); err != nil {
			return err
		}
		return u.SaveSession(ctx, locked)
	})
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return ErrNotFound
		}
		return err
	}

	m.log.Warn().
		Str("session_id", sessionID.String()).
		Str("reason", reason).
		Msg("Session terminated")
	return nil
}

// Summary builds the post-interview report. Only available once the
// interview is COMPLETED or TERMINATED.
func (m *SessionManager) Summary(ctx context.Context, interviewID uuid.UUID, callerID uuid.UUID, adminCaller bool) (*model.Summary, error) {
	iv, err := m.store.InterviewByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !adminCaller && iv.CandidateID != callerID {
		return nil, ErrForbidden
	}
	if iv.Status != model.InterviewStatusCompleted && iv.Status != model.InterviewStatusTerminated {
		return nil, &ConflictError{CurrentStatus: string(iv.Status)}
	}
	return buildSummary(iv), nil
}

// session loads a session and checks candidate ownership.
func (m *SessionManager) session(ctx context.Context, sessionID, candidateID uuid.UUID) (*model.Session, error) {
	sess, err := m.store.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sess.CandidateID != candidateID {
		return nil, ErrForbidden
	}
	return sess, nil
}
