package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/interview-backend/internal/model"
)

// MemoryInterviewStore is an in-memory InterviewStore backing unit tests.
// The lock discipline matches the Postgres implementation: one exclusive
// mutex per interview aggregate held for the whole read-decide-write unit.
type MemoryInterviewStore struct {
	mu         sync.RWMutex
	interviews map[uuid.UUID]*model.Interview
	sessions   map[uuid.UUID]*model.Session
	locks      map[uuid.UUID]*sync.Mutex
}

// NewMemoryInterviewStore creates an empty MemoryInterviewStore.
func NewMemoryInterviewStore() *MemoryInterviewStore {
	return &MemoryInterviewStore{
		interviews: make(map[uuid.UUID]*model.Interview),
		sessions:   make(map[uuid.UUID]*model.Session),
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

type memInterviewUnit struct {
	store *MemoryInterviewStore
	iv    *model.Interview // private working copy
	// staged session writes, applied on commit
	created []*model.Session
	saved   []*model.Session
}

func (u *memInterviewUnit) Interview() *model.Interview { return u.iv }

func (u *memInterviewUnit) SaveInterview(_ context.Context) error {
	// Working copy is committed by WithInterview; nothing to do here.
	return nil
}

func (u *memInterviewUnit) ActiveSession(_ context.Context) (*model.Session, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	for _, s := range u.store.sessions {
		if s.InterviewID == u.iv.ID && s.Status == model.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	for _, s := range u.created {
		if s.Status == model.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (u *memInterviewUnit) SessionByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	if s, ok := u.store.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrSessionNotFound
}

func (u *memInterviewUnit) CreateSession(_ context.Context, s *model.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	u.created = append(u.created, &cp)
	return nil
}

func (u *memInterviewUnit) SaveSession(_ context.Context, s *model.Session) error {
	cp := *s
	u.saved = append(u.saved, &cp)
	return nil
}

func (m *MemoryInterviewStore) interviewLock(id uuid.UUID) (*sync.Mutex, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interviews[id]; !ok {
		return nil, false
	}
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock, true
}

// WithInterview serializes units on the same interview. fn works on a copy;
// mutations become visible only when fn returns nil, so a failed unit leaves
// no partial state.
func (m *MemoryInterviewStore) WithInterview(_ context.Context, id uuid.UUID, fn func(u InterviewUnit) error) error {
	lock, ok := m.interviewLock(id)
	if !ok {
		return ErrInterviewNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	stored := m.interviews[id]
	if stored == nil {
		m.mu.RUnlock()
		return ErrInterviewNotFound
	}
	working := *stored
	m.mu.RUnlock()

	unit := &memInterviewUnit{store: m, iv: &working}
	if err := fn(unit); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	working.UpdatedAt = time.Now().UTC()
	// Cheat score is owned by AddCheatScore; keep increments that landed
	// while the unit was running.
	working.CheatScore = m.interviews[id].CheatScore
	m.interviews[id] = &working
	for _, s := range unit.created {
		cp := *s
		m.sessions[s.ID] = &cp
	}
	for _, s := range unit.saved {
		cp := *s
		m.sessions[s.ID] = &cp
	}
	return nil
}

func (m *MemoryInterviewStore) CreateInterview(_ context.Context, iv *model.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.interviews {
		if existing.CandidateID == iv.CandidateID && existing.Live() {
			return ErrDuplicateLive
		}
	}
	if iv.ID == uuid.Nil {
		iv.ID = uuid.New()
	}
	now := time.Now().UTC()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	cp := *iv
	m.interviews[iv.ID] = &cp
	return nil
}

func (m *MemoryInterviewStore) InterviewByID(_ context.Context, id uuid.UUID) (*model.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if iv, ok := m.interviews[id]; ok {
		cp := *iv
		return &cp, nil
	}
	return nil, ErrInterviewNotFound
}

func (m *MemoryInterviewStore) ListInterviews(_ context.Context) ([]model.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Interview, 0, len(m.interviews))
	for _, iv := range m.interviews {
		out = append(out, *iv)
	}
	return out, nil
}

func (m *MemoryInterviewStore) LiveInterviewByCandidate(_ context.Context, candidateID uuid.UUID) (*model.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, iv := range m.interviews {
		if iv.CandidateID == candidateID && iv.Live() {
			cp := *iv
			return &cp, nil
		}
	}
	return nil, ErrInterviewNotFound
}

func (m *MemoryInterviewStore) SessionByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryInterviewStore) ActiveSessionByInterview(_ context.Context, interviewID uuid.UUID) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.InterviewID == interviewID && s.Status == model.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryInterviewStore) AddCheatScore(_ context.Context, interviewID uuid.UUID, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.interviews[interviewID]
	if !ok {
		return 0, ErrInterviewNotFound
	}
	iv.CheatScore += delta
	return iv.CheatScore, nil
}
