package recovery

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown session identifiers.
var ErrSessionNotFound = errors.New("recovery session not found")

// Manager tracks the live recovery sessions. Each playback attempt owns
// exactly one session; starting a new episode means creating a new
// session and destroying the old one.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	backoffBase time.Duration
	maxRetries  int
	logger      *slog.Logger
}

// NewManager creates a session manager. Its backoff base and retry
// bound apply to every session it creates.
func NewManager(backoffBase time.Duration, maxRetries int, logger *slog.Logger) *Manager {
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		backoffBase: backoffBase,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// Create starts a new session and registers it.
func (m *Manager) Create() *Session {
	s := NewSession(m.backoffBase, m.maxRetries, m.logger)

	m.mu.Lock()
	m.sessions[s.ID().String()] = s
	m.mu.Unlock()

	m.logger.Info("recovery session created", slog.String("session", s.ID().String()))
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Destroy terminates and unregisters a session.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.Destroy()
	m.logger.Info("recovery session destroyed", slog.String("session", id))
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
