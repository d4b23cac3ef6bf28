package session

import (
	"context"
	"sync"
	"time"

	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/domain"
)

type memoryEntry struct {
	sess      conversation.Session
	expiresAt time.Time
}

type memoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]memoryEntry

	lockMu sync.Mutex
	locked map[string]struct{}
}

// NewMemory returns a process-local Store. Sessions expire ttl after their
// last save.
func NewMemory(ttl time.Duration) Store {
	return newMemory(ttl, time.Now)
}

func newMemory(ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]memoryEntry),
		locked:   make(map[string]struct{}),
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) (*conversation.Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.sessions[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.sessions, key)
		}
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	sess := e.sess
	return &sess, nil
}

func (m *memoryStore) Save(ctx context.Context, sess conversation.Session) error {
	now := m.now()
	sess.UpdatedAt = now
	m.mu.Lock()
	m.sessions[sess.UserID] = memoryEntry{sess: sess, expiresAt: now.Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Lock(ctx context.Context, key string) (func(), error) {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	if _, held := m.locked[key]; held {
		return nil, ErrSessionBusy
	}
	m.locked[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lockMu.Lock()
			delete(m.locked, key)
			m.lockMu.Unlock()
		})
	}, nil
}
