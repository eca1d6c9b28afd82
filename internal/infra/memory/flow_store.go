package memory

import (
	"sync"
	"time"

	"asd-screening-service/internal/app"
)

// FlowStore is an in-memory implementation of app.FlowRepository.
type FlowStore struct {
	mu    sync.RWMutex
	flows map[string]*app.Flow
}

func NewFlowStore() *FlowStore {
	return &FlowStore{
		flows: make(map[string]*app.Flow),
	}
}

func (s *FlowStore) GetOrCreate(userID string) *app.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flow, ok := s.flows[userID]; ok {
		return flow
	}
	flow := app.NewFlow(userID)
	s.flows[userID] = flow
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
	delete(s.flows, userID)
}

// Sweep drops flows untouched since cutoff and reports how many went.
func (s *FlowStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for userID, flow := range s.flows {
		if flow.UpdatedAt().Before(cutoff) {
			delete(s.flows, userID)
			n++
		}
	}
	return n
}
