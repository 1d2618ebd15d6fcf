package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
)

// QuestionGenerator produces a tailored, ordered question list for a
// template. Errors are expected and non-fatal; the curator falls back to the
// static set.
type QuestionGenerator interface {
	Generate(ctx context.Context, tpl *model.InterviewTemplate) ([]model.CuratedQuestion, error)
}

// Curator resolves the question set for a new interview. Resolution happens
// exactly once, at interview creation; the resulting set is stored on the
// interview record and never regenerated.
type Curator struct {
	generator QuestionGenerator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewCurator creates a curator. generator may be nil, in which case every
// resolution uses the static set.
func NewCurator(generator QuestionGenerator, log zerolog.Logger) *Curator {
	return &Curator{
		generator: generator,
		timeout:   20 * time.Second,
		log:       log.With().Str("component", "question_curator").Logger(),
	}
}

// Resolve returns the question set for the template. It never fails: any
// generator error or malformed output degrades to the static fallback set.
func (c *Curator) Resolve(ctx context.Context, tpl *model.InterviewTemplate) model.QuestionSet {
	if c.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		questions, err := c.generator.Generate(genCtx, tpl)
		if err == nil {
			if err = validateSet(questions); err == nil {
				c.log.Info().
					Str("template_id", tpl.ID.String()).
					Int("count", len(questions)).
					Msg("Question set generated")
				return model.QuestionSet{
					TemplateID:       tpl.ID.String(),
					GeneratedAt:      time.Now().UTC(),
					GenerationMethod: "generated",
					Questions:        questions,
				}
			}
		}
		c.log.Warn().Err(err).
			Str("template_id", tpl.ID.String()).
			Msg("Question generation failed, using static set")
	}

	return model.QuestionSet{
		TemplateID:       tpl.ID.String(),
		GeneratedAt:      time.Now().UTC(),
		GenerationMethod: "static",
		Questions:        StaticQuestions(),
	}
}

// validateSet enforces the set invariants: non-empty, 1-based contiguous
// order, unique question IDs, known answer modes.
func validateSet(questions []model.CuratedQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("empty question set")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.Order != i+1 {
			return fmt.Errorf("question %d has order %d, want %d", i, q.Order, i+1)
		}
		if q.QuestionID == "" {
			return fmt.Errorf("question %d has empty id", i)
		}
		if _, dup := seen[q.QuestionID]; dup {
			return fmt.Errorf("duplicate question id %s", q.QuestionID)
		}
		seen[q.QuestionID] = struct{}{}
		if q.Prompt == "" {
			return fmt.Errorf("question %s has empty prompt", q.QuestionID)
		}
		switch q.AnswerMode {
		case model.AnswerModeStatic, model.AnswerModeConversational, model.AnswerModeCoding:
		default:
			return fmt.Errorf("question %s has unknown answer mode %q", q.QuestionID, q.AnswerMode)
		}
	}
	return nil
}

// StaticQuestions is the curated fallback set: one question per answer mode,
// deterministic and always valid.
func StaticQuestions() []model.CuratedQuestion {
	return []model.CuratedQuestion{
		{
			QuestionID:     "q_static_001",
			Order:          1,
			Prompt:         "Tell me about yourself and your background in software development.",
			Difficulty:     model.DifficultyEasy,
			AnswerMode:     model.AnswerModeStatic,
			TimeLimitSec:   120,
			EvaluationMode: "post_interview",
		},
		{
			QuestionID:   "q_conv_001",
			Order:        2,
			Prompt:       "Describe a technically challenging project you worked on recently.",
			Difficulty:   model.DifficultyMedium,
			AnswerMode:   model.AnswerModeConversational,
			TimeLimitSec: 300,
			Conversation: &model.ConversationConfig{
				FollowUpDepth:  2,
				AIModel:        "gemini-2.5-flash",
				EvaluationMode: "realtime",
			},
		},
		{
			QuestionID:   "q_code_001",
			Order:        3,
			Prompt:       "Write a function that returns the first non-repeating character in a string.",
			Difficulty:   model.DifficultyMedium,
			AnswerMode:   model.AnswerModeCoding,
			TimeLimitSec: 600,
			Coding: &model.CodingConfig{
				Language:    "python",
				StarterCode: "def first_unique_char(s: str) -> str:\n    pass\n",
				TestCases: []model.CodingTestCase{
					{Input: "aabcc", ExpectedOutput: "b"},
					{Input: "xxyz", ExpectedOutput: "y"},
				},
				ExecutionTimeoutSec: 10,
			},
		},
	}
}
