package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates answering-session states.
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "ACTIVE"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusTerminated SessionStatus = "TERMINATED"
)

// Session is one live attempt at answering an interview's questions.
// At most one ACTIVE session exists per interview at any instant.
type Session struct {
	ID            uuid.UUID     `json:"id"`
	InterviewID   uuid.UUID     `json:"interview_id"`
	CandidateID   uuid.UUID     `json:"candidate_id"`
	Status        SessionStatus `json:"status"`
	AnsweredCount int           `json:"answered_count"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// StartResult is returned by SessionManager.Start. Created is false on an
// idempotent rejoin of an already-running interview.
type StartResult struct {
	SessionID   uuid.UUID       `json:"session_id"`
	InterviewID uuid.UUID       `json:"interview_id"`
	Status      InterviewStatus `json:"status"`
	Created     bool            `json:"-"`
}

// SubmitState is the post-submission session state returned to the client.
type SubmitState string

const (
	SubmitStateInProgress SubmitState = "IN_PROGRESS"
	SubmitStateCompleted  SubmitState = "COMPLETED"
)

// SubmitAnswerRequest carries one answer payload. The payload shape depends
// on the question's answer mode and is stored opaquely.
type SubmitAnswerRequest struct {
	QuestionID string          `json:"question_id" binding:"omitempty,max=64"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}
