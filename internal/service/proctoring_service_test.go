package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
)

type capturedPublish struct {
	interviewID uuid.UUID
	reason      string
}

type fakePublisher struct {
	mu        sync.Mutex
	published []capturedPublish
}

func (p *fakePublisher) PublishTerminate(_ context.Context, interviewID uuid.UUID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, capturedPublish{interviewID, reason})
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []model.ProctoringEvent
}

func (r *fakeRecorder) Record(_ context.Context, event *model.ProctoringEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

type proctoringFixture struct {
	svc       *ProctoringService
	mgr       *SessionManager
	store     *repository.MemoryInterviewStore
	publisher *fakePublisher
	recorder  *fakeRecorder
	iv        *model.Interview
	sessionID uuid.UUID
	candidate uuid.UUID
}

func newProctoringFixture(t *testing.T) *proctoringFixture {
	t.Helper()
	store := repository.NewMemoryInterviewStore()
	mgr := NewSessionManager(store, StaticEvaluator{}, zerolog.Nop())
	publisher := &fakePublisher{}
	recorder := &fakeRecorder{}
	svc := NewProctoringService(store, mgr, publisher, recorder, zerolog.Nop())

	candidate := uuid.New()
	iv := seedInterview(t, store, candidate, time.Now().Add(-time.Minute))
	start, err := mgr.Start(context.Background(), iv.ID, candidate)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return &proctoringFixture{
		svc:       svc,
		mgr:       mgr,
		store:     store,
		publisher: publisher,
		recorder:  recorder,
		iv:        iv,
		sessionID: start.SessionID,
		candidate: candidate,
	}
}

func TestTabSwitchAccumulatesCheatScore(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		resp, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, string(model.EventTabSwitch), 0.9)
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if resp.Action != model.ActionFlag {
			t.Fatalf("event %d: action = %s", i, resp.Action)
		}
		if resp.CheatScore != i*model.TabSwitchPenalty {
			t.Fatalf("event %d: cheat score = %d, want %d", i, resp.CheatScore, i*model.TabSwitchPenalty)
		}
	}

	// Session stays active; soft violations never terminate.
	sess, err := f.store.SessionByID(ctx, f.sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != model.SessionStatusActive {
		t.Fatalf("session status = %s", sess.Status)
	}
	if len(f.recorder.events) != 3 {
		t.Fatalf("recorded %d events", len(f.recorder.events))
	}
}

func TestHardViolationTerminates(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	resp, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, string(model.EventMultiFace), 0.97)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != model.ActionTerminate {
		t.Fatalf("action = %s", resp.Action)
	}

	sess, _ := f.store.SessionByID(ctx, f.sessionID)
	if sess.Status != model.SessionStatusTerminated {
		t.Fatalf("session status = %s", sess.Status)
	}
	iv, _ := f.store.InterviewByID(ctx, f.iv.ID)
	if iv.Status != model.InterviewStatusTerminated {
		t.Fatalf("interview status = %s", iv.Status)
	}
	if iv.CancellationReason == nil || *iv.CancellationReason != "proctoring violation: MULTI_FACE" {
		t.Fatalf("cancellation reason = %v", iv.CancellationReason)
	}

	if len(f.publisher.published) != 1 {
		t.Fatalf("published %d terminations", len(f.publisher.published))
	}
	if f.publisher.published[0].interviewID != f.iv.ID {
		t.Fatalf("published for interview %s", f.publisher.published[0].interviewID)
	}
}

func TestHardViolationIsIdempotent(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, string(model.EventVoiceMismatch), 0.9)
		if err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
		if resp.Action != model.ActionTerminate {
			t.Fatalf("report %d: action = %s", i+1, resp.Action)
		}
	}
}

func TestHardViolationVoidsCompletedInterview(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	for range StaticQuestions() {
		if _, err := f.mgr.SubmitAnswer(ctx, f.sessionID, f.candidate, &model.SubmitAnswerRequest{Answer: []byte(`"x"`)}); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, string(model.EventMultiFace), 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != model.ActionTerminate {
		t.Fatalf("action = %s", resp.Action)
	}
	iv, _ := f.store.InterviewByID(ctx, f.iv.ID)
	if iv.Status != model.InterviewStatusTerminated {
		t.Fatalf("interview status = %s", iv.Status)
	}
}

func TestTabSwitchOnEndedSessionConflicts(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	if err := f.mgr.Terminate(ctx, f.sessionID, "manual"); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, string(model.EventTabSwitch), 0.8)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestUnknownEventIsIgnoredButRecorded(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	resp, err := f.svc.HandleEvent(ctx, f.sessionID, f.candidate, "EYE_TRACKING_LOST", 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != model.ActionIgnore {
		t.Fatalf("action = %s", resp.Action)
	}
	if resp.CheatScore != 0 {
		t.Fatalf("cheat score = %d", resp.CheatScore)
	}

	if len(f.recorder.events) != 1 {
		t.Fatalf("recorded %d events", len(f.recorder.events))
	}
	ev := f.recorder.events[0]
	if ev.EventType != "EYE_TRACKING_LOST" || ev.Action != model.ActionIgnore {
		t.Fatalf("recorded event = %+v", ev)
	}
}

func TestEventOwnershipAndLookup(t *testing.T) {
	f := newProctoringFixture(t)
	ctx := context.Background()

	if _, err := f.svc.HandleEvent(ctx, f.sessionID, uuid.New(), string(model.EventTabSwitch), 0.8); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger: err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.HandleEvent(ctx, uuid.New(), f.candidate, string(model.EventTabSwitch), 0.8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown session: err = %v, want ErrNotFound", err)
	}
}

func TestNilPublisherAndRecorderAreSafe(t *testing.T) {
	store := repository.NewMemoryInterviewStore()
	mgr := NewSessionManager(store, StaticEvaluator{}, zerolog.Nop())
	svc := NewProctoringService(store, mgr, nil, nil, zerolog.Nop())

	candidate := uuid.New()
	iv := seedInterview(t, store, candidate, time.Now().Add(-time.Minute))
	start, err := mgr.Start(context.Background(), iv.ID, candidate)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.HandleEvent(context.Background(), start.SessionID, candidate, string(model.EventMultiFace), 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Action != model.ActionTerminate {
		t.Fatalf("action = %s", resp.Action)
	}
}
