package session

import (
	"context"
	"sync"

	"github.com/brightpath/attempt-service/internal/cache"
	"github.com/brightpath/attempt-service/internal/events"
	"github.com/brightpath/attempt-service/internal/utils"
)

// Manager tracks the active sessions in this process, one per attempt.
// Attempt identity is assigned at hydration and never reassigned; a second
// start for the same attempt returns the existing session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gateway Gateway
	cache   cache.AttemptCache
	events  events.Publisher
	logger  utils.Logger
	warnAt  int
}

type ManagerConfig struct {
	Gateway        Gateway
	Cache          cache.AttemptCache
	Events         events.Publisher
	Logger         utils.Logger
	WarningSeconds int
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		gateway:  cfg.Gateway,
		cache:    cfg.Cache,
		events:   cfg.Events,
		logger:   cfg.Logger,
		warnAt:   cfg.WarningSeconds,
	}
}

// Open hydrates a session for the assessment, resuming resumeAttemptID when
// it names a live cached snapshot, and registers it under its attempt id.
func (m *Manager) Open(ctx context.Context, assessmentID, resumeAttemptID, learnerID string) (*Session, error) {
	if resumeAttemptID != "" {
		if existing, ok := m.Get(resumeAttemptID); ok {
			return existing, nil
		}
	}

	s := New(Config{
		Gateway:        m.gateway,
		Cache:          m.cache,
		Events:         m.events,
		Logger:         m.logger,
		WarningSeconds: m.warnAt,
	})
	if err := s.Hydrate(ctx, assessmentID, resumeAttemptID, learnerID); err != nil {
		return nil, err
	}

	attemptID := s.Attempt().AttemptID

	m.mu.Lock()
	if existing, ok := m.sessions[attemptID]; ok {
		m.mu.Unlock()
		s.Close()
		return existing, nil
	}
	m.sessions[attemptID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(attemptID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[attemptID]
	return s, ok
}

// Release tears down and forgets a session, typically after submit.
func (m *Manager) Release(attemptID string) {
	m.mu.Lock()
	s, ok := m.sessions[attemptID]
	delete(m.sessions, attemptID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Shutdown closes every session and waits for in-flight autosaves.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		s.Flush()
	}
}
