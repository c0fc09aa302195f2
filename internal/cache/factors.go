package cache

import (
	"context"
	"strings"
	"time"

	"footprint/internal/core"
	"footprint/internal/store"
)

// Factors caches factor lookups in front of a store.FactorReader.
// Errors are never cached, so unknown ids keep hitting the store.
type Factors struct {
	next       store.FactorReader
	byID       *LRUCache[core.EmissionFactor]
	lists      *LRUCache[[]core.EmissionFactor]
	categories *LRUCache[[]string]
}

var _ store.FactorReader = (*Factors)(nil)

func NewFactors(next store.FactorReader, maxSize int, ttl time.Duration) *Factors {
	return &Factors{
		next:       next,
		byID:       NewLRUCache[core.EmissionFactor](maxSize, ttl),
		lists:      NewLRUCache[[]core.EmissionFactor](64, ttl),
		categories: NewLRUCache[[]string](1, ttl),
	}
}

// Register adds the underlying caches to m's expiry sweep.
func (f *Factors) Register(m *Manager) {
	m.Register(f.byID)
	m.Register(f.lists)
	m.Register(f.categories)
}

func (f *Factors) GetFactor(ctx context.Context, id string) (core.EmissionFactor, error) {
	if ef, ok := f.byID.Get(id); ok {
		return ef, nil
	}
	ef, err := f.next.GetFactor(ctx, id)
	if err != nil {
		return core.EmissionFactor{}, err
	}
	f.byID.Set(id, ef)
	return ef, nil
}

func (f *Factors) ListFactors(ctx context.Context, filter store.FactorFilter) ([]core.EmissionFactor, error) {
	key := strings.ToLower(strings.TrimSpace(filter.Category)) + "\x00" + strings.ToLower(strings.TrimSpace(filter.Search))
	if list, ok := f.lists.Get(key); ok {
		return append([]core.EmissionFactor(nil), list...), nil
	}
	list, err := f.next.ListFactors(ctx, filter)
	if err != nil {
		return nil, err
	}
	f.lists.Set(key, append([]core.EmissionFactor(nil), list...))
	return list, nil
}

func (f *Factors) ListCategories(ctx context.Context) ([]string, error) {
	if cats, ok := f.categories.Get("all"); ok {
		return append([]string(nil), cats...), nil
	}
	cats, err := f.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	f.categories.Set("all", append([]string(nil), cats...))
	return cats, nil
}

// Invalidate drops every cached entry, e.g. after factors are re-imported.
func (f *Factors) Invalidate() {
	f.byID.Purge()
	f.lists.Purge()
	f.categories.Purge()
}

// Stats reports the id lookup counters.
func (f *Factors) Stats() Stats {
	return f.byID.Stats()
}
