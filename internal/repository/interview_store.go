package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireloop/interview-backend/internal/model"
)

const interviewColumns = `id, candidate_id, template_id, assigned_by, status, scheduled_at,
	started_at, completed_at, cancelled_at, cancellation_reason,
	overall_score, feedback, cheat_score, curated_questions, created_at, updated_at`

const sessionColumns = `id, interview_id, candidate_id, status, answered_count, started_at, completed_at`

// PgInterviewStore implements InterviewStore on PostgreSQL. The exclusive
// interview lock is a row lock (SELECT ... FOR UPDATE) held for the duration
// of one transaction.
type PgInterviewStore struct {
	pool *pgxpool.Pool
}

// NewPgInterviewStore creates a new PgInterviewStore.
func NewPgInterviewStore(pool *pgxpool.Pool) *PgInterviewStore {
	return &PgInterviewStore{pool: pool}
}

type pgInterviewUnit struct {
	tx pgx.Tx
	iv *model.Interview
}

func (u *pgInterviewUnit) Interview() *model.Interview { return u.iv }

func (u *pgInterviewUnit) SaveInterview(ctx context.Context) error {
	iv := u.iv
	_, err := u.tx.Exec(ctx,
		`UPDATE interviews
		 SET status = $1, scheduled_at = $2, started_at = $3, completed_at = $4,
		     cancelled_at = $5, cancellation_reason = $6, overall_score = $7,
		     feedback = $8, updated_at = NOW()
		 WHERE id = $9`,
		iv.Status, iv.ScheduledAt, iv.StartedAt, iv.CompletedAt, iv.CancelledAt,
		iv.CancellationReason, iv.OverallScore, iv.Feedback, iv.ID)
	return err
}

func (u *pgInterviewUnit) ActiveSession(ctx context.Context) (*model.Session, error) {
	return scanSession(u.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions
		 WHERE interview_id = $1 AND status = $2`,
		u.iv.ID, model.SessionStatusActive))
}

func (u *pgInterviewUnit) SessionByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return scanSession(u.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, id))
}

func (u *pgInterviewUnit) CreateSession(ctx context.Context, s *model.Session) error {
	return u.tx.QueryRow(ctx,
		`INSERT INTO interview_sessions (interview_id, candidate_id, status, answered_count, started_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		s.InterviewID, s.CandidateID, s.Status, s.AnsweredCount, s.StartedAt,
	).Scan(&s.ID)
}

func (u *pgInterviewUnit) SaveSession(ctx context.Context, s *model.Session) error {
	_, err := u.tx.Exec(ctx,
		`UPDATE interview_sessions
		 SET status = $1, answered_count = $2, completed_at = $3
		 WHERE id = $4`,
		s.Status, s.AnsweredCount, s.CompletedAt, s.ID)
	return err
}

// WithInterview opens a transaction, locks the interview row, and runs fn.
// The lock blocks concurrent units on the same interview; losers of a start
// race observe the already-updated status once they acquire it.
func (s *PgInterviewStore) WithInterview(ctx context.Context, id uuid.UUID, fn func(u InterviewUnit) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	iv, err := scanInterview(tx.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return err
	}

	if err := fn(&pgInterviewUnit{tx: tx, iv: iv}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PgInterviewStore) CreateInterview(ctx context.Context, iv *model.Interview) error {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO interviews (candidate_id, template_id, assigned_by, status, scheduled_at, curated_questions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		iv.CandidateID, iv.TemplateID, iv.AssignedBy, iv.Status, iv.ScheduledAt, questions,
	).Scan(&iv.ID, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		// 23505 on the partial unique index means the candidate already has
		// a live interview.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateLive
		}
		return err
	}
	return nil
}

func (s *PgInterviewStore) InterviewByID(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	return scanInterview(s.pool.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
}

func (s *PgInterviewStore) ListInterviews(ctx context.Context) ([]model.Interview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interviews []model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, *iv)
	}
	return interviews, rows.Err()
}

func (s *PgInterviewStore) LiveInterviewByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.Interview, error) {
	return scanInterview(s.pool.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews
		 WHERE candidate_id = $1 AND status IN ($2, $3)`,
		candidateID, model.InterviewStatusScheduled, model.InterviewStatusInProgress))
}

func (s *PgInterviewStore) SessionByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, id))
}

func (s *PgInterviewStore) ActiveSessionByInterview(ctx context.Context, interviewID uuid.UUID) (*model.Session, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM interview_sessions
		 WHERE interview_id = $1 AND status = $2`,
		interviewID, model.SessionStatusActive))
}

// AddCheatScore uses a single additive UPDATE; Postgres serializes the row
// write, so concurrent soft violations are never lost.
func (s *PgInterviewStore) AddCheatScore(ctx context.Context, interviewID uuid.UUID, delta int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`UPDATE interviews SET cheat_score = cheat_score + $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING cheat_score`,
		delta, interviewID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInterviewNotFound
	}
	return total, err
}

// ─── Row scanning ───────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*model.Interview, error) {
	iv := &model.Interview{}
	var questions []byte
	err := row.Scan(
		&iv.ID, &iv.CandidateID, &iv.TemplateID, &iv.AssignedBy, &iv.Status, &iv.ScheduledAt,
		&iv.StartedAt, &iv.CompletedAt, &iv.CancelledAt, &iv.CancellationReason,
		&iv.OverallScore, &iv.Feedback, &iv.CheatScore, &questions, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &iv.Questions); err != nil {
			return nil, fmt.Errorf("decode curated questions: %w", err)
		}
	}
	return iv, nil
}

func scanSession(row rowScanner) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID, &s.InterviewID, &s.CandidateID, &s.Status,
		&s.AnsweredCount, &s.StartedAt, &s.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
