package session

import (
	"context"
	"errors"

	"bigbite-orderbot/internal/conversation"
)

// ErrSessionBusy is returned by Lock while another turn for the same user
// holds the lock.
var ErrSessionBusy = errors.New("session busy")

// Store persists conversation sessions keyed by user and serializes turns.
// Get returns domain.ErrNotFound for a missing or expired session.
type Store interface {
	Get(ctx context.Context, key string) (*conversation.Session, error)
	Save(ctx context.Context, sess conversation.Session) error
	Delete(ctx context.Context, key string) error
	// Lock claims the turn lock for key without waiting. The returned
	// func releases it and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
