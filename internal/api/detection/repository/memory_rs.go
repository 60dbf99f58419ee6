package detectionRepository

import (
	"context"
	"sync"
	"time"

	"PPEGuard/internal/api/detection"
	"PPEGuard/internal/entity"
	"PPEGuard/pkg/keylock"

	"github.com/sirupsen/logrus"
)

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entity.DetectionSession
	locks    *keylock.KeyLock
	log      *logrus.Logger
	clock    func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewMemorySessionStore keeps sessions in process. A janitor drops expired
// sessions every sweep interval; lookups check the deadline regardless.
func NewMemorySessionStore(log *logrus.Logger, sweep time.Duration) SessionStore {
	m := &memorySessionStore{
		sessions: make(map[string]entity.DetectionSession),
		locks:    keylock.New(),
		log:      log,
		clock:    time.Now,
		stop:     make(chan struct{}),
	}

	if sweep > 0 {
		go m.janitor(sweep)
	}

	return m
}

func (m *memorySessionStore) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.sweep(); n > 0 {
				m.log.WithField("expired", n).Debug("Swept expired detection sessions")
			}
		}
	}
}

func (m *memorySessionStore) sweep() int {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Lock serializes callers sharing this store. A caller whose ctx ends while
// waiting gets detection.ErrSessionBusy and never holds the lock.
func (m *memorySessionStore) Lock(ctx context.Context, id string) (func(), error) {
	acquired := make(chan func(), 1)
	go func() {
		acquired <- m.locks.Lock(id)
	}()

	select {
	case unlock := <-acquired:
		return unlock, nil
	case <-ctx.Done():
		go func() {
			(<-acquired)()
		}()
		return nil, detection.ErrSessionBusy
	}
}

func (m *memorySessionStore) Create(_ context.Context, session entity.DetectionSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[session.ID]; ok && !existing.Expired(m.clock()) {
		return ErrSessionExists
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (entity.DetectionSession, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || session.Expired(m.clock()) {
		return entity.DetectionSession{}, detection.ErrSessionNotFound
	}
	return session, nil
}

func (m *memorySessionStore) Save(_ context.Context, session entity.DetectionSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *memorySessionStore) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
