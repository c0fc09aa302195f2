package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"footprint/internal/amqp"
	applog "footprint/internal/log"
	"footprint/internal/sheets"
	"footprint/internal/store"
)

// ExportStats counts processed events since start.
type ExportStats struct {
	Exported int64
	Deleted  int64
	Skipped  int64
	Failed   int64
}

// ExportProcessor applies activity events to a sheet exporter. Events only
// carry identity, so the current record is always read from the store.
type ExportProcessor struct {
	activities store.ActivityReader
	exporter   sheets.ActivityExporter

	exported atomic.Int64
	deleted  atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewExportProcessor(activities store.ActivityReader, exporter sheets.ActivityExporter) *ExportProcessor {
	return &ExportProcessor{activities: activities, exporter: exporter}
}

// Handle processes one event. A returned error asks the caller to retry.
func (p *ExportProcessor) Handle(ctx context.Context, ev *amqp.ActivityEvent) error {
	var err error
	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		err = p.export(ctx, ev)
	case amqp.ActionDeleted:
		err = p.remove(ctx, ev)
	default:
		// Unknown actions cannot become valid by retrying.
		exportLogger(ctx).WarnContext(ctx, "Skipping event with unknown action", "action", ev.Action, applog.FieldActivityID, ev.ID)
		p.skipped.Add(1)
		return nil
	}
	if err != nil {
		p.failed.Add(1)
	}
	return err
}

func (p *ExportProcessor) export(ctx context.Context, ev *amqp.ActivityEvent) error {
	a, err := p.activities.GetActivity(ctx, ev.UserID, ev.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted after the event was published; the delete event follows.
		exportLogger(ctx).InfoContext(ctx, "Activity no longer exists, skipping export", applog.FieldActivityID, ev.ID)
		p.skipped.Add(1)
		return nil
	}
	if err != nil {
		return p.fail(ctx, ev, applog.ErrorTypeDatabase, applog.OpRead, fmt.Errorf("get activity %s: %w", ev.ID, err))
	}

	if err := p.exporter.UpsertActivity(ctx, a); err != nil {
		return p.fail(ctx, ev, applog.ErrorTypeNetwork, applog.OpExport, fmt.Errorf("export activity %s: %w", ev.ID, err))
	}
	p.exported.Add(1)

	exportLogger(ctx).InfoContext(ctx, "Exported activity to sheet",
		applog.FieldOperation, applog.OpExport,
		applog.FieldActivityID, a.ID,
		applog.FieldUserID, a.UserID,
		applog.FieldEmissions, a.Emissions,
		"version", ev.Version)
	return nil
}

func (p *ExportProcessor) remove(ctx context.Context, ev *amqp.ActivityEvent) error {
	if err := p.exporter.DeleteActivity(ctx, ev.ID); err != nil {
		return p.fail(ctx, ev, applog.ErrorTypeNetwork, applog.OpDelete, fmt.Errorf("delete exported activity %s: %w", ev.ID, err))
	}
	p.deleted.Add(1)
	exportLogger(ctx).InfoContext(ctx, "Removed activity from sheet",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldActivityID, ev.ID)
	return nil
}

// fail logs err with its category and returns it so the event is requeued.
func (p *ExportProcessor) fail(ctx context.Context, ev *amqp.ActivityEvent, errorType, op string, err error) error {
	applog.NewStructuredLogger(exportLogger(ctx)).LogError(ctx, "Activity export failed", err, errorType, op,
		applog.LogFields{applog.FieldUserID: ev.UserID, applog.FieldActivityID: ev.ID})
	return err
}

func exportLogger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentSheets)
}

func (p *ExportProcessor) Stats() ExportStats {
	return ExportStats{
		Exported: p.exported.Load(),
		Deleted:  p.deleted.Load(),
		Skipped:  p.skipped.Load(),
		Failed:   p.failed.Load(),
	}
}
