package services

import (
	"context"
	"fmt"

	"footprint/internal/core"
	applog "footprint/internal/log"
	"footprint/internal/store"

	"golang.org/x/sync/errgroup"
)

// SummaryService derives read-only views from a user's activity log.
// Nothing is cached: every call reads a fresh snapshot.
type SummaryService struct {
	activities store.ActivityReader
}

func NewSummaryService(activities store.ActivityReader) *SummaryService {
	return &SummaryService{activities: activities}
}

// Dashboard bundles every summary computed from the same snapshot.
type Dashboard struct {
	UserID        string
	ActivityCount int
	TotalKg       float64
	Split         core.KindSplit
	Categories    []core.CategoryTotal
	Physical      []core.ItemTotal
	Economic      []core.SectorTotal
	Impactors     core.Impactors
	Daily         []core.Bucket
	Weekly        []core.Bucket
	Monthly       []core.Bucket
}

func (s *SummaryService) snapshot(ctx context.Context, userID string) ([]core.Activity, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	acts, err := s.activities.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	return acts, nil
}

func (s *SummaryService) CategorySummary(ctx context.Context, userID string) ([]core.CategoryTotal, error) {
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.CategoryTotals(acts), nil
}

func (s *SummaryService) PhysicalSummary(ctx context.Context, userID string) ([]core.ItemTotal, error) {
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.PhysicalTotals(acts), nil
}

func (s *SummaryService) EconomicSummary(ctx context.Context, userID string) ([]core.SectorTotal, error) {
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.EconomicTotals(acts), nil
}

func (s *SummaryService) BiggestImpactors(ctx context.Context, userID string) (core.Impactors, error) {
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.Impactors{}, err
	}
	return core.BiggestImpactors(core.PhysicalTotals(acts), core.EconomicTotals(acts)), nil
}

func (s *SummaryService) TimeSummary(ctx context.Context, userID string, g core.Granularity) ([]core.Bucket, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: unknown granularity %q", core.ErrInvalidInput, string(g))
	}
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.Bucketize(acts, g)
}

// Dashboard reads one snapshot and computes all summaries over it
// concurrently. The snapshot is shared read-only; each goroutine writes its
// own field.
func (s *SummaryService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	acts, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{UserID: userID, ActivityCount: len(acts)}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.TotalKg = core.TotalEmissions(acts)
		d.Split = core.SplitByKind(acts)
		return nil
	})
	g.Go(func() error {
		d.Categories = core.CategoryTotals(acts)
		return nil
	})
	g.Go(func() error {
		d.Physical = core.PhysicalTotals(acts)
		d.Economic = core.EconomicTotals(acts)
		d.Impactors = core.BiggestImpactors(d.Physical, d.Economic)
		return nil
	})
	g.Go(func() (err error) {
		d.Daily, err = core.Bucketize(acts, core.Daily)
		return err
	})
	g.Go(func() (err error) {
		d.Weekly, err = core.Bucketize(acts, core.Weekly)
		return err
	})
	g.Go(func() (err error) {
		d.Monthly, err = core.Bucketize(acts, core.Monthly)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute dashboard: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentSummary).DebugContext(ctx, "Dashboard computed",
		applog.FieldOperation, applog.OpSummarize,
		applog.FieldUserID, userID,
		applog.FieldEmissions, d.TotalKg,
		"activities", d.ActivityCount)
	return d, nil
}
