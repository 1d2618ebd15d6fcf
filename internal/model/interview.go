package model

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatus is the coarse, externally visible interview lifecycle.
// It is a projection of the fine-grained session model in internal/state.
type InterviewStatus string

const (
	InterviewStatusScheduled  InterviewStatus = "SCHEDULED"
	InterviewStatusInProgress InterviewStatus = "IN_PROGRESS"
	InterviewStatusCompleted  InterviewStatus = "COMPLETED"
	InterviewStatusCancelled  InterviewStatus = "CANCELLED"
	InterviewStatusTerminated InterviewStatus = "TERMINATED"
)

// Interview is the scheduled engagement between one candidate and one
// curated question set. Interviews are never deleted.
type Interview struct {
	ID                 uuid.UUID       `json:"id"`
	CandidateID        uuid.UUID       `json:"candidate_id"`
	TemplateID         uuid.UUID       `json:"template_id"`
	AssignedBy         uuid.UUID       `json:"assigned_by"`
	Status             InterviewStatus `json:"status"`
	ScheduledAt        time.Time       `json:"scheduled_at"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	OverallScore       *float64        `json:"overall_score,omitempty"`
	Feedback           *string         `json:"feedback,omitempty"`
	CheatScore         int             `json:"cheat_score"`
	Questions          QuestionSet     `json:"curated_questions"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Live reports whether the interview still occupies the candidate's single
// active slot (at most one SCHEDULED or IN_PROGRESS interview per candidate).
func (i *Interview) Live() bool {
	return i.Status == InterviewStatusScheduled || i.Status == InterviewStatusInProgress
}

// CreateInterviewRequest is the admin payload for scheduling an interview.
type CreateInterviewRequest struct {
	CandidateID uuid.UUID `json:"candidate_id" binding:"required"`
	TemplateID  uuid.UUID `json:"template_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// CancelInterviewRequest carries the optional cancellation reason.
type CancelInterviewRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RescheduleInterviewRequest moves a scheduled interview.
type RescheduleInterviewRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// ActiveInterview is the candidate-facing view of their live interview,
// including rejoin data when a session already exists.
type ActiveInterview struct {
	InterviewID uuid.UUID       `json:"interview_id"`
	SessionID   *uuid.UUID      `json:"session_id,omitempty"`
	Status      InterviewStatus `json:"status"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	CanStart    bool            `json:"can_start"`
}

// Summary is the post-interview report, available only once the interview is
// COMPLETED or TERMINATED.
type Summary struct {
	InterviewID    uuid.UUID       `json:"interview_id"`
	Status         InterviewStatus `json:"status"`
	FinalScore     float64         `json:"final_score"`
	Recommendation string          `json:"recommendation"`
	FraudRisk      string          `json:"fraud_risk"`
	CheatScore     int             `json:"cheat_score"`
	Strengths      []string        `json:"strengths"`
	Gaps           []string        `json:"gaps"`
	Notes          string          `json:"notes"`
}
