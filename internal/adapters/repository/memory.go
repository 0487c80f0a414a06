package repository

import (
	"context"
	"sync"

	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/metrics"
)

// MemoryStore keeps ranked games in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	games  map[string]model.RankedGame
	byDate map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:  make(map[string]model.RankedGame),
		byDate: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Save(_ context.Context, g model.RankedGame) error {
	if err := validate(g); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.games[g.EventID]; ok && prev.Date != g.Date {
		delete(s.byDate[prev.Date], g.EventID)
	}
	s.games[g.EventID] = g
	ids, ok := s.byDate[g.Date]
	if !ok {
		ids = make(map[string]struct{})
		s.byDate[g.Date] = ids
	}
	ids[g.EventID] = struct{}{}

	metrics.UpdateStoredGames(len(s.games))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, eventID string) (model.RankedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[eventID]
	if !ok {
		return model.RankedGame{}, errorf(ErrNotFound, "event %s", eventID)
	}
	return g, nil
}

func (s *MemoryStore) TopN(_ context.Context, date string, n int) ([]model.RankedGame, error) {
	s.mu.RLock()
	ids := s.byDate[date]
	games := make([]model.RankedGame, 0, len(ids))
	for id := range ids {
		games = append(games, s.games[id])
	}
	s.mu.RUnlock()

	return rank(games, n), nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *MemoryStore) Close() error { return nil }
