package dialog

import (
	"context"
	"sync"
	"time"
)

// Session is one user's (state, draft) pair. The draft is non-nil exactly
// when the state is not idle.
type Session struct {
	State     State     `json:"state"`
	Draft     *Draft    `json:"draft,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIdleSession is the session every user implicitly starts with.
func NewIdleSession() Session {
	return Session{State: StateIdle}
}

// Store keeps per-user conversation sessions. Implementations must isolate
// users from each other; serialization of a single user's events is the
// dispatcher's job, not the store's.
type Store interface {
	// Get returns the user's session, creating an idle one if absent.
	Get(ctx context.Context, userID int64) (Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryStore is the in-process Store. A janitor goroutine expires sessions
// that saw no input for the configured TTL, releasing abandoned drafts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

const janitorInterval = time.Minute

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}
	return NewIdleSession(), nil
}

func (s *MemoryStore) Set(_ context.Context, userID int64, sess Session) error {
	sess.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.expire(time.Now())
		}
	}
}

func (s *MemoryStore) expire(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
