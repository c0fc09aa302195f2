package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"footprint/internal/core"
	"footprint/internal/store"
	"footprint/internal/store/memory"
)

type countingReader struct {
	store.FactorReader
	gets, lists, cats int
}

func (c *countingReader) GetFactor(ctx context.Context, id string) (core.EmissionFactor, error) {
	c.gets++
	return c.FactorReader.GetFactor(ctx, id)
}

func (c *countingReader) ListFactors(ctx context.Context, f store.FactorFilter) ([]core.EmissionFactor, error) {
	c.lists++
	return c.FactorReader.ListFactors(ctx, f)
}

func (c *countingReader) ListCategories(ctx context.Context) ([]string, error) {
	c.cats++
	return c.FactorReader.ListCategories(ctx)
}

func newCounting() *countingReader {
	return &countingReader{FactorReader: memory.New([]core.EmissionFactor{
		{ID: "beef", Name: "Beef", Category: "Food", Unit: "kg", Rate: 27},
		{ID: "rail", Name: "Rail", Category: "Transportation", Unit: "km", Rate: 0.035},
	})}
}

func TestFactorsCachesLookups(t *testing.T) {
	ctx := context.Background()
	next := newCounting()
	c := NewFactors(next, 16, time.Minute)

	for i := 0; i < 3; i++ {
		ef, err := c.GetFactor(ctx, "beef")
		if err != nil || ef.Rate != 27 {
			t.Fatalf("get: %+v %v", ef, err)
		}
	}
	if next.gets != 1 {
		t.Fatalf("expected one store lookup, got %d", next.gets)
	}
	if st := c.Stats(); st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	c.ListFactors(ctx, store.FactorFilter{Category: "food"})
	c.ListFactors(ctx, store.FactorFilter{Category: "Food "})
	if next.lists != 1 {
		t.Fatalf("expected normalized filter to hit cache, got %d store calls", next.lists)
	}

	c.ListCategories(ctx)
	cats, _ := c.ListCategories(ctx)
	if next.cats != 1 || len(cats) != 2 {
		t.Fatalf("expected cached categories, got %v after %d calls", cats, next.cats)
	}

	c.Invalidate()
	c.GetFactor(ctx, "beef")
	if next.gets != 2 {
		t.Fatalf("expected lookup after invalidate, got %d", next.gets)
	}
}

func TestFactorsDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	next := newCounting()
	c := NewFactors(next, 16, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.GetFactor(ctx, "nope"); !errors.Is(err, core.ErrReferenceNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if next.gets != 2 {
		t.Fatalf("misses should reach the store every time, got %d", next.gets)
	}
}

func TestFactorsListIsolation(t *testing.T) {
	ctx := context.Background()
	c := NewFactors(newCounting(), 16, time.Minute)

	list, _ := c.ListFactors(ctx, store.FactorFilter{})
	list[0].Name = "mutated"
	again, _ := c.ListFactors(ctx, store.FactorFilter{})
	if again[0].Name == "mutated" {
		t.Fatal("callers must not be able to mutate cached slices")
	}
}
