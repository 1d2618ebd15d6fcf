package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
)

// Evaluation is the scoring verdict produced when an interview completes.
type Evaluation struct {
	Score          float64  `json:"score"`
	Recommendation string   `json:"recommendation"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	Notes          string   `json:"notes"`
}

// Evaluator scores a completed interview. Implementations must be safe for
// concurrent use; they are called from inside the interview lock.
type Evaluator interface {
	Evaluate(ctx context.Context, iv *model.Interview) (*Evaluation, error)
}

// ─── static evaluator ───────────────────────────────────────────────────────

// StaticEvaluator returns a fixed baseline verdict. It is the fallback wired
// behind the remote evaluator and the default in development setups.
type StaticEvaluator struct{}

func (StaticEvaluator) Evaluate(_ context.Context, _ *model.Interview) (*Evaluation, error) {
	return &Evaluation{
		Score:          80,
		Recommendation: "PROCEED",
		Strengths:      []string{"Communicated answers clearly", "Completed every question in the set"},
		Gaps:           []string{"Depth on follow-up topics not assessed"},
		Notes:          "Baseline evaluation generated without an external scoring service.",
	}, nil
}

// ─── remote evaluator ───────────────────────────────────────────────────────

// RemoteEvaluator calls an external scoring service over HTTP and falls back
// to the static verdict when the service is unreachable or answers garbage.
type RemoteEvaluator struct {
	client   *resty.Client
	fallback StaticEvaluator
	log      zerolog.Logger
}

// NewRemoteEvaluator creates an evaluator against the given base URL.
func NewRemoteEvaluator(baseURL string, timeout time.Duration, log zerolog.Logger) *RemoteEvaluator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &RemoteEvaluator{
		client: client,
		log:    log.With().Str("component", "remote_evaluator").Logger(),
	}
}

func (e *RemoteEvaluator) Evaluate(ctx context.Context, iv *model.Interview) (*Evaluation, error) {
	var verdict Evaluation

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"interview_id": iv.ID.String(),
			"candidate_id": iv.CandidateID.String(),
			"template_id":  iv.TemplateID.String(),
			"cheat_score":  iv.CheatScore,
			"questions":    iv.Questions.Questions,
		}).
		SetResult(&verdict).
		Post("/v1/evaluations")
	if err != nil {
		e.log.Warn().Err(err).Msg("Remote evaluation unreachable, using static verdict")
		return e.fallback.Evaluate(ctx, iv)
	}
	if resp.IsError() {
		e.log.Warn().
			Int("status", resp.StatusCode()).
			Msg("Remote evaluation rejected request, using static verdict")
		return e.fallback.Evaluate(ctx, iv)
	}
	if verdict.Recommendation == "" {
		e.log.Warn().Msg("Remote evaluation returned empty verdict, using static verdict")
		return e.fallback.Evaluate(ctx, iv)
	}
	return &verdict, nil
}

// ─── summary ────────────────────────────────────────────────────────────────

// buildSummary derives the post-interview report from the stored record.
func buildSummary(iv *model.Interview) *model.Summary {
	s := &model.Summary{
		InterviewID: iv.ID,
		Status:      iv.Status,
		CheatScore:  iv.CheatScore,
		FraudRisk:   fraudRisk(iv.CheatScore),
	}

	if iv.Status == model.InterviewStatusTerminated {
		s.FinalScore = 0
		s.Recommendation = "REJECT"
		s.Notes = "Interview was terminated before a verdict could be produced."
		if iv.CancellationReason != nil {
			s.Notes = fmt.Sprintf("Interview terminated: %s.", *iv.CancellationReason)
		}
		return s
	}

	static, _ := StaticEvaluator{}.Evaluate(context.Background(), iv)
	s.FinalScore = static.Score
	s.Recommendation = static.Recommendation
	s.Strengths = static.Strengths
	s.Gaps = static.Gaps
	s.Notes = static.Notes
	if iv.OverallScore != nil {
		s.FinalScore = *iv.OverallScore
	}
	if iv.Feedback != nil {
		s.Notes = *iv.Feedback
	}
	return s
}

func fraudRisk(cheatScore int) string {
	switch {
	case cheatScore < 20:
		return "LOW"
	case cheatScore < 50:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}
