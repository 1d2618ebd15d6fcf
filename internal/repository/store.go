package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hireloop/interview-backend/internal/model"
)

// Store-level sentinel errors. Services translate these into their own
// taxonomy; nothing here is retried.
var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDuplicateLive     = errors.New("candidate already has a live interview")
)

// InterviewUnit is the view of one interview aggregate while its exclusive
// lock is held. All reads and writes inside a WithInterview callback go
// through the unit so they share one transaction.
type InterviewUnit interface {
	// Interview returns the locked interview row as loaded at lock
	// acquisition. Mutate it and call SaveInterview to persist.
	Interview() *model.Interview
	SaveInterview(ctx context.Context) error

	ActiveSession(ctx context.Context) (*model.Session, error)
	SessionByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	CreateSession(ctx context.Context, s *model.Session) error
	SaveSession(ctx context.Context, s *model.Session) error
}

// InterviewStore is the capability the session manager depends on. Its one
// required semantic: read-modify-write of the interview aggregate under an
// exclusive lock keyed by interview id.
type InterviewStore interface {
	// WithInterview acquires the interview's exclusive lock, runs fn, and
	// commits fn's mutations atomically if it returns nil (rolls back
	// otherwise). Returns ErrInterviewNotFound without invoking fn when the
	// interview does not exist. Blocks while another unit holds the lock.
	WithInterview(ctx context.Context, id uuid.UUID, fn func(u InterviewUnit) error) error

	CreateInterview(ctx context.Context, iv *model.Interview) error
	InterviewByID(ctx context.Context, id uuid.UUID) (*model.Interview, error)
	ListInterviews(ctx context.Context) ([]model.Interview, error)
	// LiveInterviewByCandidate returns the candidate's SCHEDULED or
	// IN_PROGRESS interview, or ErrInterviewNotFound.
	LiveInterviewByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.Interview, error)

	SessionByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ActiveSessionByInterview(ctx context.Context, interviewID uuid.UUID) (*model.Session, error)

	// AddCheatScore atomically adds delta to the interview's cumulative cheat
	// score and returns the new total. Concurrent increments are never lost.
	AddCheatScore(ctx context.Context, interviewID uuid.UUID, delta int) (int, error)
}
