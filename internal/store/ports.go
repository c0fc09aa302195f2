// Package store declares the persistence ports the services depend on.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"footprint/internal/core"
)

// ErrNotFound is returned by stores for unknown factors or activities.
var ErrNotFound = fmt.Errorf("not found: %w", core.ErrReferenceNotFound)

// Ports for persistence adapters.
type (
	FactorFilter struct {
		Category string // exact match, case-insensitive
		Search   string // substring of the factor name, case-insensitive
	}

	FactorReader interface {
		GetFactor(ctx context.Context, id string) (core.EmissionFactor, error)
		ListFactors(ctx context.Context, filter FactorFilter) ([]core.EmissionFactor, error)
		// ListCategories returns the distinct factor categories, sorted.
		ListCategories(ctx context.Context) ([]string, error)
	}

	FactorWriter interface {
		// UpsertFactors inserts or replaces factors by id and returns how many were written.
		UpsertFactors(ctx context.Context, factors []core.EmissionFactor) (int, error)
	}

	ActivityReader interface {
		// ListActivities returns every activity of the user ordered by date, then id.
		ListActivities(ctx context.Context, userID string) ([]core.Activity, error)
		GetActivity(ctx context.Context, userID, id string) (core.Activity, error)
	}

	ActivityWriter interface {
		InsertActivity(ctx context.Context, a core.Activity) error
		UpdateActivity(ctx context.Context, a core.Activity) error
		DeleteActivity(ctx context.Context, userID, id string) error
	}

	ActivityStore interface {
		ActivityReader
		ActivityWriter
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		FactorReader
		FactorWriter
		ActivityStore
		Close() error
	}
)

// Match reports whether f passes the filter.
func (ff FactorFilter) Match(f core.EmissionFactor) bool {
	if c := strings.TrimSpace(ff.Category); c != "" && !strings.EqualFold(c, f.Category) {
		return false
	}
	if s := strings.TrimSpace(ff.Search); s != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(s)) {
		return false
	}
	return true
}

// SortActivities orders activities by date ascending, then id.
func SortActivities(acts []core.Activity) {
	sort.SliceStable(acts, func(i, j int) bool {
		if !acts[i].Date.Equal(acts[j].Date) {
			return acts[i].Date.Before(acts[j].Date)
		}
		return acts[i].ID < acts[j].ID
	})
}
