package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/emission-dashboard/internal/chart"
)

var (
	// ErrNotFound is returned when no panel is registered under an ID.
	ErrNotFound = errors.New("no chart panel with that id")
)

// Panel is a chart rendered once at startup and served as-is afterwards.
type Panel struct {
	Figure   chart.Figure
	HTML     []byte
	Rendered time.Time
}

// MemoryStore is a concurrency-safe in-memory registry of rendered panels,
// keeping the order in which they were saved.
type MemoryStore struct {
	mu sync.RWMutex

	panels map[string]Panel
	order  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		panels: make(map[string]Panel),
	}
}

// Save registers a panel, replacing any earlier panel with the same ID in place.
func (s *MemoryStore) Save(p Panel) {
	id := p.Figure.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.panels[id]; !ok {
		s.order = append(s.order, id)
	}
	s.panels[id] = p
}

// Get returns the panel registered under id.
func (s *MemoryStore) Get(id string) (Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.panels[id]
	if !ok {
		return Panel{}, ErrNotFound
	}
	return p, nil
}

// List returns every panel in save order.
func (s *MemoryStore) List() []Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Panel, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.panels[id])
	}
	return out
}
