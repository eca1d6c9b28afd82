package redis

import (
	"context"
	"sync"
	"time"

	"asd-screening-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// FlowStore is a Redis-aware implementation of app.FlowRepository.
// Answers stay in process memory; Redis only carries a liveness marker per
// user so other instances and operators can see who is mid-questionnaire.
type FlowStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	flows  map[string]*app.Flow
}

func NewFlowStore(client *redis.Client, ttl time.Duration) *FlowStore {
	return &FlowStore{
		client: client,
		ttl:    ttl,
		flows:  make(map[string]*app.Flow),
	}
}

func (s *FlowStore) GetOrCreate(userID string) *app.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flow, ok := s.flows[userID]; ok {
		if s.ttl > 0 {
			// refresh liveness on every touch
			_ = s.client.Expire(context.Background(), s.key(userID), s.ttl).Err()
		}
		return flow
	}
	flow := app.NewFlow(userID)
	s.flows[userID] = flow
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(userID), "1", s.ttl).Err()
	return flow
}

func (s *FlowStore) Get(userID string) (*app.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[userID]
	return flow, ok
}

func (s *FlowStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[userID]; !ok {
		return
	}
	delete(s.flows, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *FlowStore) key(userID string) string {
	return "questionnaire:flow:" + userID
}

// Sweep drops flows untouched since cutoff along with their markers.
func (s *FlowStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for userID, flow := range s.flows {
		if flow.UpdatedAt().Before(cutoff) {
			delete(s.flows, userID)
			keys = append(keys, s.key(userID))
		}
	}
	if len(keys) > 0 {
		_ = s.client.Del(context.Background(), keys...).Err()
	}
	return len(keys)
}
