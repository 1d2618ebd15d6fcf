package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/hireloop/interview-backend/internal/model"
)

// GeminiGenerator produces tailored question sets with the Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	log       zerolog.Logger
}

// NewGeminiGenerator creates a generator against the Gemini API. Fails only
// on client construction; generation errors surface per call.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, log zerolog.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:    client,
		modelName: modelName,
		log:       log.With().Str("component", "gemini_generator").Logger(),
	}, nil
}

const questionPromptTemplate = `You are an interview question designer.
Generate exactly 3 interview questions for the role "%s" covering these skills: %s.
Role description: %s

Return ONLY a JSON array, no markdown fences, where each element has:
  "question_id": short unique string id
  "order": integer starting at 1
  "prompt": the question text
  "difficulty": one of "easy", "medium", "hard"
  "question_type": one of "static", "conversational", "coding"
  "time_limit_sec": integer seconds`

func (g *GeminiGenerator) Generate(ctx context.Context, tpl *model.InterviewTemplate) ([]model.CuratedQuestion, error) {
	prompt := fmt.Sprintf(questionPromptTemplate,
		tpl.RoleTitle, strings.Join(tpl.Skills, ", "), tpl.Description)

	result, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.3)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := stripFences(result.Text())
	parsed := gjson.Parse(text)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("model returned non-array payload")
	}

	var questions []model.CuratedQuestion
	for _, item := range parsed.Array() {
		q := model.CuratedQuestion{
			QuestionID:   item.Get("question_id").String(),
			Order:        int(item.Get("order").Int()),
			Prompt:       item.Get("prompt").String(),
			Difficulty:   model.Difficulty(item.Get("difficulty").String()),
			AnswerMode:   model.AnswerMode(item.Get("question_type").String()),
			TimeLimitSec: int(item.Get("time_limit_sec").Int()),
		}
		switch q.AnswerMode {
		case model.AnswerModeConversational:
			q.Conversation = &model.ConversationConfig{
				FollowUpDepth:  2,
				AIModel:        g.modelName,
				EvaluationMode: "realtime",
			}
		case model.AnswerModeCoding:
			q.Coding = &model.CodingConfig{
				Language:            "python",
				ExecutionTimeoutSec: 10,
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// stripFences removes markdown code fences that models emit despite being
// told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
