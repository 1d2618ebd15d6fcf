package model

import (
	"time"

	"github.com/google/uuid"
)

// ProctoringEventType is the discrete signal reported by the client-side
// proctoring pipeline. Unknown values are acknowledged and dropped.
type ProctoringEventType string

const (
	EventTabSwitch     ProctoringEventType = "TAB_SWITCH"
	EventMultiFace     ProctoringEventType = "MULTI_FACE"
	EventVoiceMismatch ProctoringEventType = "VOICE_MISMATCH"
)

// ProctoringAction is the server's verdict on a reported event.
type ProctoringAction string

const (
	ActionTerminate ProctoringAction = "TERMINATE"
	ActionFlag      ProctoringAction = "FLAG"
	ActionIgnore    ProctoringAction = "IGNORE"
)

// TabSwitchPenalty is the fixed cheat-score increment for a soft violation.
const TabSwitchPenalty = 10

// ProctoringEventRequest is the REST payload for reporting an event.
// EventType is deliberately unvalidated beyond length: unknown types must be
// acknowledged as IGNORE, not rejected.
type ProctoringEventRequest struct {
	EventType  string  `json:"event_type" binding:"required,max=64"`
	Confidence float64 `json:"confidence" binding:"min=0,max=1"`
}

// ProctoringEventResponse carries the verdict back to the reporter.
type ProctoringEventResponse struct {
	Action     ProctoringAction `json:"action"`
	CheatScore int              `json:"cheat_score"`
}

// ProctoringEvent is the durable audit record persisted by the background
// worker.
type ProctoringEvent struct {
	ID          int64            `json:"id"`
	InterviewID uuid.UUID        `json:"interview_id"`
	SessionID   uuid.UUID        `json:"session_id"`
	EventType   string           `json:"event_type"`
	Confidence  float64          `json:"confidence"`
	Action      ProctoringAction `json:"action"`
	RecordedAt  time.Time        `json:"recorded_at"`
}
