package detectionRepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PPEGuard/internal/api/detection"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	redisPkg "PPEGuard/pkg/redis"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var ErrSessionExists = errors.New("session id already in use")

const (
	// defaultLockTTL outlives the slowest advance request, recorder write included.
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 20 * time.Millisecond
)

type redisSessionStore struct {
	redis     redisPkg.IRedis
	log       *logrus.Logger
	clock     func() time.Time
	lockTTL   time.Duration
	lockRetry time.Duration
}

// NewRedisSessionStore stores each session as a JSON document under
// session:<id> with a key TTL matching its deadline.
func NewRedisSessionStore(redis redisPkg.IRedis, log *logrus.Logger) SessionStore {
	return &redisSessionStore{
		redis:     redis,
		log:       log,
		clock:     time.Now,
		lockTTL:   defaultLockTTL,
		lockRetry: defaultLockRetry,
	}
}

// Lock takes session-lock:<id> with SET NX PX and a random token. The token
// is checked on release so an expired holder never frees a newer lock.
func (r *redisSessionStore) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKey(id)
	token := []byte(uuid.NewString())

	ticker := time.NewTicker(r.lockRetry)
	defer ticker.Stop()

	for {
		ok, err := r.redis.SetNX(ctx, key, token, r.lockTTL)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"session_id": id,
				"error":      err.Error(),
			}).Error("Failed to acquire session lock")
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, detection.ErrSessionBusy
		case <-ticker.C:
		}
	}

	return func() {
		// Release must not depend on the request context, which may be done.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		released, err := r.redis.CompareAndDelete(releaseCtx, key, token)
		if err != nil || !released {
			r.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"session_id": id,
				"released":   released,
			}).Warn("Session lock was not released cleanly")
		}
	}, nil
}

func (r *redisSessionStore) Create(ctx context.Context, session entity.DetectionSession) error {
	payload, err := jsoniter.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.redis.SetNX(ctx, sessionKey(session.ID), payload, remaining(session, r.clock()))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to create session")
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (r *redisSessionStore) Get(ctx context.Context, id string) (entity.DetectionSession, error) {
	payload, err := r.redis.Get(ctx, sessionKey(id))
	if errors.Is(err, redisPkg.ErrNil) {
		return entity.DetectionSession{}, detection.ErrSessionNotFound
	}
	if err != nil {
		return entity.DetectionSession{}, err
	}

	var session entity.DetectionSession
	if err := jsoniter.Unmarshal(payload, &session); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Warn("Dropping unreadable session document")
		_ = r.redis.Delete(ctx, sessionKey(id))
		return entity.DetectionSession{}, detection.ErrSessionNotFound
	}

	if session.Expired(r.clock()) {
		_ = r.redis.Delete(ctx, sessionKey(id))
		return entity.DetectionSession{}, detection.ErrSessionNotFound
	}

	return session, nil
}

func (r *redisSessionStore) Save(ctx context.Context, session entity.DetectionSession) error {
	payload, err := jsoniter.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return r.redis.Set(ctx, sessionKey(session.ID), payload, remaining(session, r.clock()))
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	return r.redis.Delete(ctx, sessionKey(id))
}

func (r *redisSessionStore) Close() error {
	return r.redis.Close()
}
