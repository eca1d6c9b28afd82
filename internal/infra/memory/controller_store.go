package memory

import (
	"sync"

	"asd-screening-service/internal/game"
)

// ControllerStore is an in-memory implementation of app.ControllerRepository.
type ControllerStore struct {
	mu          sync.RWMutex
	controllers map[string]*game.Controller
}

func NewControllerStore() *ControllerStore {
	return &ControllerStore{
		controllers: make(map[string]*game.Controller),
	}
}

func (s *ControllerStore) Put(ctrl *game.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers[ctrl.ID()] = ctrl
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
}

// Len reports how many controllers are mounted.
func (s *ControllerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.controllers)
}
