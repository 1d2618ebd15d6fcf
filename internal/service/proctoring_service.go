package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/config"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
)

// ControlMessage is the payload published on an interview's control channel.
// The WebSocket handler subscribed to the channel forwards it to the client.
type ControlMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// ControlPublisher pushes server-initiated control messages to whichever
// node holds the candidate's control connection.
type ControlPublisher interface {
	PublishTerminate(ctx context.Context, interviewID uuid.UUID, reason string) error
}

// EventRecorder accepts proctoring audit events for asynchronous
// persistence. Recording is best-effort: a full or unavailable sink never
// blocks the violation verdict.
type EventRecorder interface {
	Record(ctx context.Context, event *model.ProctoringEvent) error
}

// ProctoringService turns reported proctoring events into verdicts:
// hard violations terminate the session, soft violations raise the cheat
// score, anything else is acknowledged and dropped.
type ProctoringService struct {
	store     repository.InterviewStore
	sessions  *SessionManager
	publisher ControlPublisher
	recorder  EventRecorder
	log       zerolog.Logger
}

// NewProctoringService creates a new ProctoringService. publisher and
// recorder may be nil, which disables pushes and audit recording.
func NewProctoringService(
	store repository.InterviewStore,
	sessions *SessionManager,
	publisher ControlPublisher,
	recorder EventRecorder,
	log zerolog.Logger,
) *ProctoringService {
	return &ProctoringService{
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		recorder:  recorder,
		log:       log.With().Str("component", "proctoring_service").Logger(),
	}
}

// HandleEvent classifies one reported event and applies its consequence.
// It is transport-agnostic: the REST endpoint and the WebSocket control
// channel both land here.
func (s *ProctoringService) HandleEvent(ctx context.Context, sessionID, candidateID uuid.UUID, eventType string, confidence float64) (*model.ProctoringEventResponse, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sess.CandidateID != candidateID {
		return nil, ErrForbidden
	}

	iv, err := s.store.InterviewByID(ctx, sess.InterviewID)
	if err != nil {
		return nil, err
	}

	var action model.ProctoringAction
	cheatScore := iv.CheatScore

	switch model.ProctoringEventType(eventType) {
	case model.EventMultiFace, model.EventVoiceMismatch:
		// Hard violation: terminate immediately. A hard violation reported
		// after completion still voids the finished interview.
		action = model.ActionTerminate
		reason := fmt.Sprintf("proctoring violation: %s", eventType)
		if err := s.sessions.Terminate(ctx, sessionID, reason); err != nil {
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				return nil, err
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishTerminate(ctx, sess.InterviewID, reason); err != nil {
				s.log.Warn().Err(err).
					Str("interview_id", sess.InterviewID.String()).
					Msg("Failed to publish termination")
			}
		}

	case model.EventTabSwitch:
		if sess.Status != model.SessionStatusActive {
			return nil, &ConflictError{CurrentStatus: string(sess.Status)}
		}
		action = model.ActionFlag
		total, err := s.store.AddCheatScore(ctx, sess.InterviewID, model.TabSwitchPenalty)
		if err != nil {
			return nil, err
		}
		cheatScore = total

	default:
		// Unknown event types are acknowledged, recorded, and otherwise
		// ignored so old backends tolerate newer detection pipelines.
		action = model.ActionIgnore
	}

	s.record(ctx, &model.ProctoringEvent{
		InterviewID: sess.InterviewID,
		SessionID:   sessionID,
		EventType:   eventType,
		Confidence:  confidence,
		Action:      action,
		RecordedAt:  time.Now().UTC(),
	})

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("event_type", eventType).
		Str("action", string(action)).
		Msg("Proctoring event handled")

	return &model.ProctoringEventResponse{Action: action, CheatScore: cheatScore}, nil
}

func (s *ProctoringService) record(ctx context.Context, event *model.ProctoringEvent) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, event); err != nil {
		s.log.Warn().Err(err).Msg("Failed to queue proctoring event for persistence")
	}
}

// ─── redis implementations ──────────────────────────────────────────────────

// RedisControlPublisher publishes control messages on the per-interview
// Pub/Sub channel.
type RedisControlPublisher struct {
	rdb *redis.Client
}

func NewRedisControlPublisher(rdb *redis.Client) *RedisControlPublisher {
	return &RedisControlPublisher{rdb: rdb}
}

func (p *RedisControlPublisher) PublishTerminate(ctx context.Context, interviewID uuid.UUID, reason string) error {
	payload, err := json.Marshal(ControlMessage{Type: "TERMINATE", Reason: reason})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.InterviewControlChannel(interviewID.String()), payload).Err()
}

// RedisEventRecorder queues audit events on a Redis list; the proctoring
// worker drains it into Postgres in batches.
type RedisEventRecorder struct {
	rdb *redis.Client
}

func NewRedisEventRecorder(rdb *redis.Client) *RedisEventRecorder {
	return &RedisEventRecorder{rdb: rdb}
}

func (r *RedisEventRecorder) Record(ctx context.Context, event *model.ProctoringEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.rdb.RPush(ctx, config.WorkerKey.ProctoringEventsQueue, payload).Err()
}
