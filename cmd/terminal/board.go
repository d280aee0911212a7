package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/smartcart/internal/model"
)

// Board keeps the most recent register events shown on the cashier screen.
type Board struct {
	mu       sync.RWMutex
	events   []model.RegisterEvent
	capacity int
	seen     map[string]struct{}
	total    int64
}

func NewBoard(capacity int) *Board {
	if capacity <= 0 {
		capacity = 100
	}
	return &Board{
		events:   make([]model.RegisterEvent, 0, capacity),
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Add stores ev and reports false when an event with the same id is
// already on the board.
func (b *Board) Add(ev model.RegisterEvent) bool {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.seen[ev.ID]; dup {
		return false
	}
	if len(b.events) == b.capacity {
		delete(b.seen, b.events[0].ID)
		b.events = append(b.events[:0], b.events[1:]...)
	}
	b.events = append(b.events, ev)
	b.seen[ev.ID] = struct{}{}
	b.total++
	return true
}

// List returns up to limit events, newest first. A limit <= 0 returns all.
func (b *Board) List(limit int) []model.RegisterEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.RegisterEvent, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, b.events[i])
	}
	return out
}

func (b *Board) Total() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
