package memory

import (
	"context"
	"sync"
	"time"

	"asd-screening-service/internal/domain"
)

// SignalStore keeps auto-start signals in process memory with a TTL.
type SignalStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	signals map[string]time.Time
}

func NewSignalStore(ttl time.Duration) *SignalStore {
	return &SignalStore{
		ttl:     ttl,
		clock:   time.Now,
		signals: make(map[string]time.Time),
	}
}

func (s *SignalStore) Set(_ context.Context, userID string, kind domain.ActivityKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if s.ttl > 0 {
		expires = s.clock().Add(s.ttl)
	}
	s.signals[key(userID, kind)] = expires
	return nil
}

func (s *SignalStore) Consume(_ context.Context, userID string, kind domain.ActivityKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(userID, kind)
	expires, ok := s.signals[k]
	if !ok {
		return false, nil
	}
	delete(s.signals, k)
	if !expires.IsZero() && !expires.After(s.clock()) {
		return false, nil
	}
	return true, nil
}

func key(userID string, kind domain.ActivityKind) string {
	return userID + "/" + string(kind)
}
