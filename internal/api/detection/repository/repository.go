package detectionRepository

import (
	"context"
	"time"

	"PPEGuard/internal/entity"
)

const (
	sessionKeyPrefix = "session:"
	lockKeyPrefix    = "session-lock:"
)

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func lockKey(id string) string {
	return lockKeyPrefix + id
}

// SessionStore keeps live detection sessions. Get returns
// detection.ErrSessionNotFound for ids that are absent or past ExpiresAt.
//
// Lock serializes read-modify-write cycles on one session across every
// process sharing the store. It blocks until the lock is held or ctx is done,
// in which case it returns detection.ErrSessionBusy.
type SessionStore interface {
	Lock(ctx context.Context, id string) (unlock func(), err error)
	Create(ctx context.Context, session entity.DetectionSession) error
	Get(ctx context.Context, id string) (entity.DetectionSession, error)
	Save(ctx context.Context, session entity.DetectionSession) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// remaining is the storage TTL for a session, never below one second.
func remaining(session entity.DetectionSession, now time.Time) time.Duration {
	ttl := session.ExpiresAt.Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
