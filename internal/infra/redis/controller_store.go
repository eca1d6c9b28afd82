package redis

import (
	"context"
	"sync"
	"time"

	"asd-screening-service/internal/game"
	"github.com/redis/go-redis/v9"
)

// ControllerStore keeps controllers in process memory and marks each
// mounted session in Redis with its activity kind.
type ControllerStore struct {
	client      *redis.Client
	ttl         time.Duration
	mu          sync.RWMutex
	controllers map[string]*game.Controller
}

func NewControllerStore(client *redis.Client, ttl time.Duration) *ControllerStore {
	return &ControllerStore{
		client:      client,
		ttl:         ttl,
		controllers: make(map[string]*game.Controller),
	}
}

func (s *ControllerStore) Put(ctrl *game.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers[ctrl.ID()] = ctrl
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(ctrl.ID()), string(ctrl.Kind()), s.ttl).Err()
}

func (s *ControllerStore) Get(sessionID string) (*game.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.controllers[sessionID]
	return ctrl, ok
}

func (s *ControllerStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.controllers, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *ControllerStore) key(sessionID string) string {
	return "game:session:" + sessionID
}
