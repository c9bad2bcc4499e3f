package memory

import (
	"context"
	"sync"

	"gdpr-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore. It stores
// copies so callers never share a game across goroutines.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]domain.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]domain.Game),
	}
}

func (s *GameStore) Save(_ context.Context, game *domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *GameStore) Get(_ context.Context, gameID string) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	out := cloneGame(&game)
	return &out, nil
}

func (s *GameStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return nil
}

// Len reports the number of games in flight.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func cloneGame(g *domain.Game) domain.Game {
	out := *g
	out.Questions = append([]domain.Question(nil), g.Questions...)
	out.Answers = append([]domain.AnswerRecord(nil), g.Answers...)
	return out
}
