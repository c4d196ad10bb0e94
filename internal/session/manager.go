package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager tracks live sessions by id and evicts the ones left idle
type Manager struct {
	provider Provider
	cache    cache.Cache
	cfg      Config
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// ended holds ids closed through End until their tokens can no longer be valid
	ended map[string]time.Time
}

// NewManager creates a manager whose sessions expire after ttl without requests
func NewManager(p Provider, c cache.Cache, cfg Config, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		provider: p,
		cache:    c,
		cfg:      cfg,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		ended:    make(map[string]time.Time),
	}
}

// Create starts a new session with a random id
func (m *Manager) Create() *Session {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.newLocked(id)
	m.logger.Info("Session created", zap.String("session_id", id))
	return s
}

// Get returns the session for id. A session evicted for idleness while its token is
// still valid comes back empty under the same id; it only finds a catalog snapshot
// when the cache outlived the in-memory entry. Ids closed through End are rejected.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.ended[id]; ok {
		if m.now().Before(until) {
			return nil, ErrSessionNotFound
		}
		delete(m.ended, id)
	}

	s, ok := m.sessions[id]
	if !ok {
		s = m.newLocked(id)
		m.logger.Debug("Session recreated", zap.String("session_id", id))
	}
	s.touch(m.now())
	return s, nil
}

// End closes and forgets the session. Its id stays unusable for one TTL so the
// token it was issued with cannot bring it back.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	if ok {
		m.ended[id] = m.now().Add(m.ttl)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.logger.Info("Session ended", zap.String("session_id", id))
	return s.Close(ctx)
}

// EvictIdle ends every session idle for longer than the TTL and returns how many
func (m *Manager) EvictIdle(ctx context.Context) int {
	now := m.now()
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	for id, until := range m.ended {
		if !now.Before(until) {
			delete(m.ended, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Failed to close idle session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	if len(idle) > 0 {
		m.logger.Info("Evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(ctx)
		}
	}
}

// Shutdown ends every session
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Failed to close session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
}

// Len is the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) newLocked(id string) *Session {
	s := New(id, m.provider, m.cache, m.cfg, m.logger)
	s.touch(m.now())
	m.sessions[id] = s
	return s
}
