package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"footprint/internal/core"
	"footprint/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "footprint.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var testFactors = []core.EmissionFactor{
	{ID: "beef", Name: "Beef", Category: "Food", Unit: "kg", Rate: 27},
	{ID: "rail", Name: "National rail", Category: "Transportation", Unit: "km", Rate: 0.035},
	{ID: "air", Name: "Air transportation", Category: "Transportation", Unit: "USD", Rate: 0.9},
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	version, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestSeedAndListFactors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	n, err := repo.SeedFactors(ctx, testFactors)
	if err != nil || n != 3 {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	// A non-empty table is left alone.
	n, err = repo.SeedFactors(ctx, testFactors[:1])
	if err != nil || n != 0 {
		t.Fatalf("second seed: n=%d err=%v", n, err)
	}

	f, err := repo.GetFactor(ctx, "air")
	if err != nil || f.Unit != "USD" || f.Rate != 0.9 {
		t.Fatalf("unexpected factor: %+v err=%v", f, err)
	}
	if _, err := repo.GetFactor(ctx, "nope"); !errors.Is(err, core.ErrReferenceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := repo.ListFactors(ctx, store.FactorFilter{})
	if err != nil || len(all) != 3 || all[0].ID != "beef" || all[2].ID != "air" {
		t.Fatalf("expected load order, got %+v err=%v", all, err)
	}
	filtered, _ := repo.ListFactors(ctx, store.FactorFilter{Category: "TRANSPORTATION", Search: "rail"})
	if len(filtered) != 1 || filtered[0].ID != "rail" {
		t.Fatalf("unexpected filtered factors: %+v", filtered)
	}

	cats, _ := repo.ListCategories(ctx)
	if len(cats) != 2 || cats[0] != "Food" || cats[1] != "Transportation" {
		t.Fatalf("unexpected categories: %v", cats)
	}
}

func TestUpsertFactorsReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if _, err := repo.UpsertFactors(ctx, testFactors); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	changed := testFactors[0]
	changed.Rate = 30
	if _, err := repo.UpsertFactors(ctx, []core.EmissionFactor{changed}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	f, _ := repo.GetFactor(ctx, "beef")
	if f.Rate != 30 {
		t.Fatalf("expected replaced rate, got %v", f.Rate)
	}
	if n, _ := repo.CountFactors(ctx); n != 3 {
		t.Fatalf("expected 3 factors, got %d", n)
	}
	if _, err := repo.UpsertFactors(ctx, []core.EmissionFactor{{ID: "bad", Name: "x", Category: "c", Rate: -1}}); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected invalid factor rejection, got %v", err)
	}
}

func TestActivityRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	acts := []core.Activity{
		{ID: "b", UserID: "u1", FactorID: "beef", ItemName: "Beef", Category: "Food", Kind: core.Physical,
			Quantity: 2, Unit: "kg", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Emissions: 54, CreatedAt: now, UpdatedAt: now},
		{ID: "a", UserID: "u1", FactorID: "air", ItemName: "Air transportation", Category: "Transportation", Kind: core.Economic,
			Quantity: 1, MonetaryAmount: 100, Unit: "USD", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Emissions: 90, CreatedAt: now, UpdatedAt: now},
		{ID: "c", UserID: "u1", FactorID: "rail", ItemName: "National rail", Category: "Transportation", Kind: core.Physical,
			Quantity: 100, Unit: "km", Date: time.Date(2024, 1, 15, 8, 0, 0, 0, time.FixedZone("CET", 3600)), Emissions: 3.5, CreatedAt: now, UpdatedAt: now},
		{ID: "x", UserID: "u2", FactorID: "beef", ItemName: "Beef", Category: "Food", Kind: core.Physical,
			Quantity: 1, Unit: "kg", Date: now, Emissions: 27, CreatedAt: now, UpdatedAt: now},
	}
	for _, a := range acts {
		if err := repo.InsertActivity(ctx, a); err != nil {
			t.Fatalf("insert %s: %v", a.ID, err)
		}
	}

	got, err := repo.ListActivities(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Fatalf("expected date then id ordering, got %+v", got)
	}
	if got[0].Date.Location() != time.UTC || got[0].Date.Hour() != 7 {
		t.Fatalf("expected UTC normalized date, got %v", got[0].Date)
	}
	if got[1].Kind != core.Economic || got[1].MonetaryAmount != 100 || got[1].Quantity != 1 {
		t.Fatalf("economic fields lost: %+v", got[1])
	}

	upd := got[2]
	upd.Quantity = 3
	upd.Emissions = 81
	upd.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpdateActivity(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	a, err := repo.GetActivity(ctx, "u1", "b")
	if err != nil || a.Emissions != 81 || !a.UpdatedAt.Equal(upd.UpdatedAt) || !a.CreatedAt.Equal(now) {
		t.Fatalf("unexpected updated activity: %+v err=%v", a, err)
	}

	if _, err := repo.GetActivity(ctx, "u2", "b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected user scoping, got %v", err)
	}
	if err := repo.DeleteActivity(ctx, "u2", "b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected user scoping on delete, got %v", err)
	}
	if err := repo.DeleteActivity(ctx, "u1", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.UpdateActivity(ctx, upd); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected update after delete to fail, got %v", err)
	}

	empty, err := repo.ListActivities(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice, got %#v err=%v", empty, err)
	}
}
