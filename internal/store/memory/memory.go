package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"footprint/internal/core"
	"footprint/internal/store"
)

// Store keeps factors and activities in process memory.
type Store struct {
	mu         sync.RWMutex
	factors    map[string]core.EmissionFactor
	order      []string
	activities map[string]map[string]core.Activity // user id -> activity id
}

func New(factors []core.EmissionFactor) *Store {
	s := &Store{
		factors:    make(map[string]core.EmissionFactor, len(factors)),
		activities: make(map[string]map[string]core.Activity),
	}
	_, _ = s.UpsertFactors(context.Background(), factors)
	return s
}

func (s *Store) GetFactor(_ context.Context, id string) (core.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factors[id]
	if !ok {
		return core.EmissionFactor{}, fmt.Errorf("factor %s: %w", id, store.ErrNotFound)
	}
	return f, nil
}

// ListFactors returns matching factors in load order.
func (s *Store) ListFactors(_ context.Context, filter store.FactorFilter) ([]core.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.EmissionFactor{}
	for _, id := range s.order {
		if f := s.factors[id]; filter.Match(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, f := range s.factors {
		if _, ok := seen[f.Category]; ok {
			continue
		}
		seen[f.Category] = struct{}{}
		out = append(out, f.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) UpsertFactors(_ context.Context, factors []core.EmissionFactor) (int, error) {
	for _, f := range factors {
		if err := f.Validate(); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range factors {
		if _, ok := s.factors[f.ID]; !ok {
			s.order = append(s.order, f.ID)
		}
		s.factors[f.ID] = f
	}
	return len(factors), nil
}

func (s *Store) ListActivities(_ context.Context, userID string) ([]core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.activities[userID]
	out := make([]core.Activity, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	store.SortActivities(out)
	return out, nil
}

func (s *Store) GetActivity(_ context.Context, userID, id string) (core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[userID][id]
	if !ok {
		return core.Activity{}, fmt.Errorf("activity %s: %w", id, store.ErrNotFound)
	}
	return a, nil
}

func (s *Store) InsertActivity(_ context.Context, a core.Activity) error {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.UserID) == "" {
		return fmt.Errorf("%w: activity needs an id and a user", core.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.activities[a.UserID]
	if !ok {
		byID = make(map[string]core.Activity)
		s.activities[a.UserID] = byID
	}
	if _, dup := byID[a.ID]; dup {
		return fmt.Errorf("%w: activity %s already exists", core.ErrInvalidInput, a.ID)
	}
	byID[a.ID] = a
	return nil
}

func (s *Store) UpdateActivity(_ context.Context, a core.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.activities[a.UserID]
	if _, ok := byID[a.ID]; !ok {
		return fmt.Errorf("activity %s: %w", a.ID, store.ErrNotFound)
	}
	byID[a.ID] = a
	return nil
}

func (s *Store) DeleteActivity(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := s.activities[userID]
	if _, ok := byID[id]; !ok {
		return fmt.Errorf("activity %s: %w", id, store.ErrNotFound)
	}
	delete(byID, id)
	return nil
}

func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
