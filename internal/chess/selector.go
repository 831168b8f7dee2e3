package chess

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrNoMoves = errors.New("no moves to choose from")

// Selector picks a legal move uniformly at random.
type Selector struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewSelector() *Selector {
	return &Selector{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *Selector) Select(moves []Move) (Move, error) {
	if len(moves) == 0 {
		return Move{}, ErrNoMoves
	}
	s.mu.Lock()
	idx := s.rand.Intn(len(moves))
	s.mu.Unlock()
	return moves[idx], nil
}
