// Package sessionstore persists server-side sessions behind the signed
// cookie. Three backends: Postgres (sessions table), Redis, and in-memory
// for tests and the database-less mode. All enforce expiry on read.
package sessionstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gtead/marketplace-backend/internal/types"
)

var ErrNotFound = errors.New("session not found")

type SessionStore interface {
	Create(ctx context.Context, session *types.Session) error
	// Get returns the live session for sid; expired sessions are
	// removed and reported as not found.
	Get(ctx context.Context, sid string) (*types.Session, error)
	// Update rewrites an existing session (token refresh).
	Update(ctx context.Context, session *types.Session) error
	Delete(ctx context.Context, sid string) error
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]types.Session
}

func NewMemoryStore() SessionStore {
	return &memoryStore{sessions: make(map[string]types.Session)}
}

func (ms *memoryStore) Create(ctx context.Context, session *types.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[session.SID] = *session
	return nil
}

func (ms *memoryStore) Get(ctx context.Context, sid string) (*types.Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.sessions[sid]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(s.ExpiresAt) {
		delete(ms.sessions, sid)
		return nil, ErrNotFound
	}
	out := s
	return &out, nil
}

func (ms *memoryStore) Update(ctx context.Context, session *types.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.sessions[session.SID]; !ok {
		return ErrNotFound
	}
	ms.sessions[session.SID] = *session
	return nil
}

func (ms *memoryStore) Delete(ctx context.Context, sid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, sid)
	return nil
}
