// Package cart provides the per-session shopping cart store.
package cart

import (
	"sync"

	domain "github.com/000francisca0/Peluchemaniav3/domain/cart"
)

// Store holds one cart per session in memory. Every operation is atomic and
// reads return copies.
type Store struct {
	mu    sync.RWMutex
	carts map[string][]domain.Line
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{carts: make(map[string][]domain.Line)}
}

// Get returns a snapshot of the session's cart.
func (s *Store) Get(sessionID string) domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.carts[sessionID])
}

// Add increments the line for line.ProductID, or appends it with quantity 1.
func (s *Store) Add(sessionID string, line domain.Line) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	if i := indexOf(lines, line.ProductID); i >= 0 {
		lines[i].Quantity++
	} else {
		line.Quantity = 1
		lines = append(lines, line)
	}
	s.carts[sessionID] = lines
	return snapshot(lines)
}

// Decrement lowers the line's quantity, removing it at 1. Absent lines are ignored.
func (s *Store) Decrement(sessionID string, productID int64) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	i := indexOf(lines, productID)
	switch {
	case i < 0:
	case lines[i].Quantity <= 1:
		lines = remove(lines, i)
	default:
		lines[i].Quantity--
	}
	s.store(sessionID, lines)
	return snapshot(lines)
}

// RemoveItem drops the line for productID.
func (s *Store) RemoveItem(sessionID string, productID int64) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	if i := indexOf(lines, productID); i >= 0 {
		lines = remove(lines, i)
	}
	s.store(sessionID, lines)
	return snapshot(lines)
}

// Clear empties the session's cart.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
}

// Subtract takes the quantities of lines out of the session's cart, dropping
// lines that reach zero. Units added after lines were read are kept.
func (s *Store) Subtract(sessionID string, lines []domain.Line) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.carts[sessionID]
	for _, l := range lines {
		i := indexOf(current, l.ProductID)
		if i < 0 {
			continue
		}
		if current[i].Quantity <= l.Quantity {
			current = remove(current, i)
			continue
		}
		current[i].Quantity -= l.Quantity
	}
	s.store(sessionID, current)
	return snapshot(current)
}

// Sessions returns the number of sessions holding a non-empty cart.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

// store keeps the map free of empty carts. Caller holds the lock.
func (s *Store) store(sessionID string, lines []domain.Line) {
	if len(lines) == 0 {
		delete(s.carts, sessionID)
		return
	}
	s.carts[sessionID] = lines
}

func indexOf(lines []domain.Line, productID int64) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func remove(lines []domain.Line, i int) []domain.Line {
	out := make([]domain.Line, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...)
}

func snapshot(lines []domain.Line) domain.Cart {
	out := make([]domain.Line, len(lines))
	copy(out, lines)
	return domain.Cart{Lines: out}
}
