package inspection

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 30 * time.Minute

// ErrSessionNotFound is wrapped when a session id is unknown or expired.
var ErrSessionNotFound = errors.NewStd("inspection session not found")

// Store keeps sessions in memory. Every update refreshes the session's TTL.
// Callers receive copies; changes go through Update.
type Store struct {
	mu      sync.Mutex
	cache   *cache.Cache
	metrics *metrics.InspectionMetrics
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, m *metrics.InspectionMetrics) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	s := &Store{
		cache:   cache.New(ttl, ttl),
		metrics: m,
	}
	s.cache.OnEvicted(func(string, any) {
		s.metrics.SetActiveSessions(s.cache.ItemCount())
	})
	return s
}

// Create adds a new idle session.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), time.Now())

	s.mu.Lock()
	s.cache.SetDefault(sess.ID, sess)
	s.mu.Unlock()

	s.metrics.RecordTransition(string(StateIdle))
	s.metrics.SetActiveSessions(s.cache.ItemCount())
	return copySession(sess)
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return copySession(sess), nil
}

// Update applies fn to a copy of the session and stores the copy only if fn
// succeeds, so a rejected transition leaves the session untouched.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	next := copySession(current)
	if err := fn(next); err != nil {
		return nil, err
	}

	s.cache.SetDefault(id, next)
	if next.State != current.State {
		s.metrics.RecordTransition(string(next.State))
	}
	return copySession(next), nil
}

// Delete removes the session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(id); err != nil {
		return err
	}
	// OnEvicted refreshes the gauge
	s.cache.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func (s *Store) lookup(id string) (*Session, error) {
	if v, ok := s.cache.Get(id); ok {
		if sess, ok := v.(*Session); ok {
			return sess, nil
		}
	}
	return nil, errors.New(ErrSessionNotFound).
		Component(componentName).
		Category(errors.CategoryNotFound).
		Context("session_id", id).
		Build()
}

// copySession makes a shallow copy. Images and assessments are never
// modified after creation, so sharing them is safe.
func copySession(s *Session) *Session {
	c := *s
	return &c
}
