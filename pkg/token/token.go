// Package token holds the single shared session the gateway authenticates against.
package token

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no active session")

type Session struct {
	Token    string
	LastUsed time.Time
}

// Provider is the owner of the active session.
type Provider interface {
	// Current returns ErrNoSession if there is no active session.
	Current(ctx context.Context) (Session, error)
	// Touch refreshes LastUsed if tok is still the active token.
	Touch(ctx context.Context, tok string, at time.Time) error
}

func newToken(tok string) string {
	if tok == "" {
		return uuid.NewString()
	}
	return tok
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

type MemoryStore struct {
	mx      sync.RWMutex
	now     func() time.Time
	session *Session
}

// Issue starts a new session, replacing the current one. An empty tok generates a random one.
func (s *MemoryStore) Issue(_ context.Context, tok string) (Session, error) {
	sess := Session{
		Token:    newToken(tok),
		LastUsed: s.now(),
	}
	s.mx.Lock()
	s.session = &sess
	s.mx.Unlock()
	return sess, nil
}

func (s *MemoryStore) Revoke(_ context.Context) error {
	s.mx.Lock()
	s.session = nil
	s.mx.Unlock()
	return nil
}

func (s *MemoryStore) Current(_ context.Context) (Session, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if s.session == nil {
		return Session{}, ErrNoSession
	}
	return *s.session, nil
}

func (s *MemoryStore) Touch(_ context.Context, tok string, at time.Time) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.session == nil || s.session.Token != tok {
		return ErrNoSession
	}
	s.session.LastUsed = at
	return nil
}
