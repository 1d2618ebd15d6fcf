package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
)

// newSchedulingService wires only the store-backed operations; Create is
// exercised end-to-end against Postgres, not here.
func newSchedulingService(store *repository.MemoryInterviewStore) *InterviewService {
	return NewInterviewService(store, nil, nil, NewCurator(nil, zerolog.Nop()), zerolog.Nop())
}

func TestCancelScheduledInterview(t *testing.T) {
	store := repository.NewMemoryInterviewStore()
	svc := newSchedulingService(store)
	candidateID := uuid.New()
	iv := seedInterview(t, store, candidateID, time.Now().Add(time.Hour))

	out, err := svc.Cancel(context.Background(), iv.ID, "candidate withdrew")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != model.InterviewStatusCancelled {
		t.Fatalf("status = %s", out.Status)
	}
	if out.CancelledAt == nil {
		t.Fatal("cancelled_at not set")
	}
	if out.CancellationReason == nil || *out.CancellationReason != "candidate withdrew" {
		t.Fatalf("reason = %v", out.CancellationReason)
	}
}

func TestCancelRunningInterviewConflicts(t *testing.T) {
	store := repository.NewMemoryInterviewStore()
	svc := newSchedulingService(store)
	mgr := NewSessionManager(store, StaticEvaluator{}, zerolog.Nop())
	candidateID := uuid.New()
	iv := seedInterview(t, store, candidateID, time.Now().Add(-time.Minute))

	if _, err := mgr.Start(context.Background(), iv.ID, candidateID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Cancel(context.Background(), iv.ID, "too late")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.CurrentStatus != string(model.InterviewStatusInProgress) {
		t.Fatalf("current status = %s", conflict.CurrentStatus)
	}
}

func TestCancelUnknownInterview(t *testing.T) {
	svc := newSchedulingService(repository.NewMemoryInterviewStore())
	if _, err := svc.Cancel(context.Background(), uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReschedule(t *testing.T) {
	store := repository.NewMemoryInterviewStore()
	svc := newSchedulingService(store)
	candidateID := uuid.New()
	iv := seedInterview(t, store, candidateID, time.Now().Add(time.Hour))

	if _, err := svc.Reschedule(context.Background(), iv.ID, time.Now().Add(-24*time.Hour)); !errors.Is(err, ErrScheduleInPast) {
		t.Fatalf("past reschedule: err = %v, want ErrScheduleInPast", err)
	}

	at := time.Now().Add(48 * time.Hour).UTC()
	out, err := svc.Reschedule(context.Background(), iv.ID, at)
	if err != nil {
		t.Fatal(err)
	}
	if !out.ScheduledAt.Equal(at) {
		t.Fatalf("scheduled_at = %s, want %s", out.ScheduledAt, at)
	}
	if out.Status != model.InterviewStatusScheduled {
		t.Fatalf("status = %s", out.Status)
	}

	// The new time must come back from the store, not just the returned
	// struct: the persisted schedule is what the start gate reads.
	stored, err := store.InterviewByID(context.Background(), iv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.ScheduledAt.Equal(at) {
		t.Fatalf("stored scheduled_at = %s, want %s", stored.ScheduledAt, at)
	}
}

func TestActiveInterviewView(t *testing.T) {
	store := repository.NewMemoryInterviewStore()
	svc := newSchedulingService(store)
	mgr := NewSessionManager(store, StaticEvaluator{}, zerolog.Nop())
	candidateID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Active(ctx, candidateID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no live interview: err = %v, want ErrNotFound", err)
	}

	iv := seedInterview(t, store, candidateID, time.Now().Add(time.Hour))
	view, err := svc.Active(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if view.InterviewID != iv.ID || view.Status != model.InterviewStatusScheduled {
		t.Fatalf("view = %+v", view)
	}
	if view.CanStart {
		t.Fatal("can_start should be false before the scheduled time")
	}
	if view.SessionID != nil {
		t.Fatal("session id set before start")
	}

	// Pull the schedule back and start: the view must expose the session.
	if _, err := svc.Reschedule(ctx, iv.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	start, err := mgr.Start(ctx, iv.ID, candidateID)
	if err != nil {
		t.Fatal(err)
	}

	view, err = svc.Active(ctx, candidateID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != model.InterviewStatusInProgress || !view.CanStart {
		t.Fatalf("view = %+v", view)
	}
	if view.SessionID == nil || *view.SessionID != start.SessionID {
		t.Fatalf("session id = %v, want %s", view.SessionID, start.SessionID)
	}
}
