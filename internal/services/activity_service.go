package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"footprint/internal/amqp"
	"footprint/internal/core"
	applog "footprint/internal/log"
	"footprint/internal/store"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	lockStripes      = 64
)

// EventPublisher announces activity writes to downstream consumers.
type EventPublisher interface {
	PublishActivityEvent(ctx context.Context, ev *amqp.ActivityEvent) error
}

// ActivityService validates, calculates and persists activities, then
// publishes a change event. Publishing is best effort.
type ActivityService struct {
	factors    store.FactorReader
	activities store.ActivityStore
	events     EventPublisher

	locks [lockStripes]sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewActivityService(factors store.FactorReader, activities store.ActivityStore, events EventPublisher) *ActivityService {
	return &ActivityService{
		factors:    factors,
		activities: activities,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// CreateActivity logs a new activity. A zero date means now.
func (s *ActivityService) CreateActivity(ctx context.Context, userID string, in core.ActivityInput) (core.Activity, error) {
	if err := requireUser(userID); err != nil {
		return core.Activity{}, err
	}
	in.FactorID = strings.TrimSpace(in.FactorID)
	if in.FactorID == "" {
		return core.Activity{}, fmt.Errorf("%w: factor_id is required", core.ErrInvalidInput)
	}

	now := s.now()
	if in.Date.IsZero() {
		in.Date = now
	}

	a := core.Activity{
		ID:        s.newID(),
		UserID:    userID,
		Date:      in.Date.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.calculate(ctx, &a, in); err != nil {
		return core.Activity{}, err
	}

	if err := s.activities.InsertActivity(ctx, a); err != nil {
		return core.Activity{}, fmt.Errorf("save activity: %w", err)
	}

	activityLogger(ctx).LogActivityWritten(ctx, applog.OpCreate, a.UserID, a.ID, a.FactorID, string(a.Kind), a.Emissions)

	s.publish(ctx, a, amqp.ActionCreated)
	return a, nil
}

// UpdateActivity merges patch over the stored activity and recomputes its
// emissions with the (possibly new) factor.
func (s *ActivityService) UpdateActivity(ctx context.Context, userID, activityID string, patch core.ActivityPatch) (core.Activity, error) {
	if err := requireUser(userID); err != nil {
		return core.Activity{}, err
	}

	mu := s.lockFor(activityID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.activities.GetActivity(ctx, userID, activityID)
	if err != nil {
		return core.Activity{}, fmt.Errorf("load activity: %w", err)
	}

	in := patch.Merge(current)
	updated := current
	updated.Date = in.Date.UTC()
	updated.UpdatedAt = s.now()
	if err := s.calculate(ctx, &updated, in); err != nil {
		return core.Activity{}, err
	}

	if err := s.activities.UpdateActivity(ctx, updated); err != nil {
		return core.Activity{}, fmt.Errorf("save activity: %w", err)
	}

	activityLogger(ctx).LogActivityWritten(ctx, applog.OpUpdate, updated.UserID, updated.ID, updated.FactorID, string(updated.Kind), updated.Emissions)

	s.publish(ctx, updated, amqp.ActionUpdated)
	return updated, nil
}

func (s *ActivityService) DeleteActivity(ctx context.Context, userID, activityID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	mu := s.lockFor(activityID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.activities.DeleteActivity(ctx, userID, activityID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentActivity).InfoContext(ctx, "Activity deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldUserID, userID,
		applog.FieldActivityID, activityID)

	s.publish(ctx, core.Activity{ID: activityID, UserID: userID, UpdatedAt: s.now()}, amqp.ActionDeleted)
	return nil
}

// ListActivities returns the user's activities, most recent first.
// A non-positive limit selects DefaultListLimit.
func (s *ActivityService) ListActivities(ctx context.Context, userID string, limit int) ([]core.Activity, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	acts, err := s.activities.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	sort.SliceStable(acts, func(i, j int) bool {
		if !acts[i].Date.Equal(acts[j].Date) {
			return acts[i].Date.After(acts[j].Date)
		}
		return acts[i].ID > acts[j].ID
	})
	if len(acts) > limit {
		acts = acts[:limit]
	}
	return acts, nil
}

func (s *ActivityService) calculate(ctx context.Context, a *core.Activity, in core.ActivityInput) error {
	f, err := s.factors.GetFactor(ctx, in.FactorID)
	if err != nil {
		if errors.Is(err, core.ErrReferenceNotFound) {
			return fmt.Errorf("emission factor %s: %w", in.FactorID, core.ErrReferenceNotFound)
		}
		return fmt.Errorf("load emission factor: %w", err)
	}

	calc, err := core.Calculate(&f, in.Quantity, in.MonetaryAmount)
	if err != nil {
		return err
	}
	calc.Apply(a, f)
	return nil
}

func (s *ActivityService) publish(ctx context.Context, a core.Activity, action amqp.Action) {
	if s.events == nil {
		applog.FromContext(ctx).DebugContext(ctx, "No event publisher configured, skipping activity event", "action", action)
		return
	}
	ev := amqp.NewActivityEvent(a.ID, a.UserID, action, a.UpdatedAt.UnixNano())
	if err := s.events.PublishActivityEvent(ctx, ev); err != nil {
		activityLogger(ctx).LogError(ctx, "Failed to publish activity event", err,
			applog.ErrorTypeNetwork, string(action),
			applog.LogFields{applog.FieldUserID: a.UserID, applog.FieldActivityID: a.ID})
	}
}

func activityLogger(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentActivity))
}

func (s *ActivityService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", core.ErrInvalidInput)
	}
	return nil
}
