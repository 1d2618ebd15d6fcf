package model

import "time"

// AnswerMode classifies how a curated question is answered.
type AnswerMode string

const (
	AnswerModeStatic         AnswerMode = "static"
	AnswerModeConversational AnswerMode = "conversational"
	AnswerModeCoding         AnswerMode = "coding"
)

// Difficulty levels for curated questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ConversationConfig is the mode-specific configuration for conversational
// questions.
type ConversationConfig struct {
	FollowUpDepth  int    `json:"follow_up_depth"`
	AIModel        string `json:"ai_model"`
	EvaluationMode string `json:"evaluation_mode"`
}

// CodingTestCase is one input/expected pair for a coding question.
type CodingTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// CodingConfig is the mode-specific configuration for coding questions.
type CodingConfig struct {
	Language            string           `json:"language"`
	StarterCode         string           `json:"starter_code"`
	TestCases           []CodingTestCase `json:"test_cases"`
	ExecutionTimeoutSec int              `json:"execution_timeout_sec"`
}

// CuratedQuestion is one immutable question record attached to an interview
// at creation time. Order is 1-based and contiguous within a set.
type CuratedQuestion struct {
	QuestionID   string     `json:"question_id"`
	Order        int        `json:"order"`
	Prompt       string     `json:"prompt"`
	Difficulty   Difficulty `json:"difficulty"`
	AnswerMode   AnswerMode `json:"question_type"`
	TimeLimitSec int        `json:"time_limit_sec"`

	// Exactly one of the following is set, matching AnswerMode.
	EvaluationMode string              `json:"evaluation_mode,omitempty"`
	Source         string              `json:"source,omitempty"`
	Conversation   *ConversationConfig `json:"conversation_config,omitempty"`
	Coding         *CodingConfig       `json:"coding_config,omitempty"`
}

// QuestionSet is the resolved, ordered question list stored on an interview.
// It is written once by the resolver and never regenerated.
type QuestionSet struct {
	TemplateID       string            `json:"template_id"`
	GeneratedAt      time.Time         `json:"generated_at"`
	GenerationMethod string            `json:"generation_method"`
	Questions        []CuratedQuestion `json:"questions"`
}

// QuestionView is the read-only projection of the next unanswered question
// returned to the candidate.
type QuestionView struct {
	QuestionID   string     `json:"question_id"`
	Prompt       string     `json:"prompt"`
	AnswerMode   AnswerMode `json:"answer_mode"`
	TimeLimitSec int        `json:"time_limit_sec"`
	Position     int        `json:"position"`
	Total        int        `json:"total"`

	Conversation *ConversationConfig `json:"conversation,omitempty"`
	Coding       *CodingConfig       `json:"coding,omitempty"`
}
