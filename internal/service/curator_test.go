package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
)

type stubGenerator struct {
	questions []model.CuratedQuestion
	err       error
	calls     int
}

func (g *stubGenerator) Generate(_ context.Context, _ *model.InterviewTemplate) ([]model.CuratedQuestion, error) {
	g.calls++
	return g.questions, g.err
}

func testTemplate() *model.InterviewTemplate {
	return &model.InterviewTemplate{
		ID:        uuid.New(),
		Name:      "Backend Engineer Screen",
		RoleTitle: "Backend Engineer",
		Skills:    []string{"go", "postgres"},
		IsActive:  true,
	}
}

func validQuestions() []model.CuratedQuestion {
	return []model.CuratedQuestion{
		{QuestionID: "g1", Order: 1, Prompt: "Explain goroutine scheduling.", AnswerMode: model.AnswerModeStatic, TimeLimitSec: 120},
		{QuestionID: "g2", Order: 2, Prompt: "Design a rate limiter.", AnswerMode: model.AnswerModeConversational, TimeLimitSec: 300},
	}
}

func TestResolveUsesGeneratedSet(t *testing.T) {
	gen := &stubGenerator{questions: validQuestions()}
	curator := NewCurator(gen, zerolog.Nop())

	set := curator.Resolve(context.Background(), testTemplate())
	if set.GenerationMethod != "generated" {
		t.Fatalf("method = %s", set.GenerationMethod)
	}
	if len(set.Questions) != 2 || set.Questions[0].QuestionID != "g1" {
		t.Fatalf("questions = %+v", set.Questions)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times", gen.calls)
	}
}

func TestResolveFallsBackOnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream unavailable")}
	curator := NewCurator(gen, zerolog.Nop())

	set := curator.Resolve(context.Background(), testTemplate())
	if set.GenerationMethod != "static" {
		t.Fatalf("method = %s", set.GenerationMethod)
	}
	if len(set.Questions) != len(StaticQuestions()) {
		t.Fatalf("got %d questions", len(set.Questions))
	}
}

func TestResolveFallsBackOnInvalidSet(t *testing.T) {
	broken := validQuestions()
	broken[1].Order = 5
	gen := &stubGenerator{questions: broken}
	curator := NewCurator(gen, zerolog.Nop())

	set := curator.Resolve(context.Background(), testTemplate())
	if set.GenerationMethod != "static" {
		t.Fatalf("method = %s", set.GenerationMethod)
	}
}

func TestResolveWithoutGenerator(t *testing.T) {
	curator := NewCurator(nil, zerolog.Nop())

	set := curator.Resolve(context.Background(), testTemplate())
	if set.GenerationMethod != "static" {
		t.Fatalf("method = %s", set.GenerationMethod)
	}
	if set.TemplateID == "" {
		t.Fatal("template id not stamped")
	}
}

func TestValidateSet(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(qs []model.CuratedQuestion) []model.CuratedQuestion
		wantErr bool
	}{
		{"valid", func(qs []model.CuratedQuestion) []model.CuratedQuestion { return qs }, false},
		{"empty", func(_ []model.CuratedQuestion) []model.CuratedQuestion { return nil }, true},
		{"order gap", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[1].Order = 3
			return qs
		}, true},
		{"zero-based order", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[0].Order = 0
			return qs
		}, true},
		{"duplicate id", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[1].QuestionID = qs[0].QuestionID
			return qs
		}, true},
		{"empty id", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[0].QuestionID = ""
			return qs
		}, true},
		{"empty prompt", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[1].Prompt = ""
			return qs
		}, true},
		{"unknown answer mode", func(qs []model.CuratedQuestion) []model.CuratedQuestion {
			qs[0].AnswerMode = "telepathic"
			return qs
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSet(tc.mutate(validQuestions()))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestStaticQuestionsAreValid(t *testing.T) {
	if err := validateSet(StaticQuestions()); err != nil {
		t.Fatal(err)
	}
}
