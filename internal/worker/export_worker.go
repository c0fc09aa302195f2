package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"footprint/internal/amqp"
	"footprint/internal/services"
)

// EventConsumer delivers activity events until ctx ends or the
// subscription breaks.
type EventConsumer interface {
	ConsumeActivityEvents(ctx context.Context, handler func(context.Context, *amqp.ActivityEvent) error) error
}

// Processor applies one event and reports running totals.
type Processor interface {
	Handle(ctx context.Context, ev *amqp.ActivityEvent) error
	Stats() services.ExportStats
}

// ExportWorker keeps a consumer subscription alive and feeds events to
// the export processor.
type ExportWorker struct {
	consumer      EventConsumer
	processor     Processor
	retryDelay    time.Duration
	statsInterval time.Duration
}

func NewExportWorker(consumer EventConsumer, processor Processor, retryDelay, statsInterval time.Duration) *ExportWorker {
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	if statsInterval <= 0 {
		statsInterval = time.Minute
	}
	return &ExportWorker{
		consumer:      consumer,
		processor:     processor,
		retryDelay:    retryDelay,
		statsInterval: statsInterval,
	}
}

// Run blocks until ctx is cancelled, resubscribing after consumer failures.
func (w *ExportWorker) Run(ctx context.Context) error {
	go w.reportStats(ctx)

	for {
		err := w.consumer.ConsumeActivityEvents(ctx, w.processor.Handle)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "Event consumption stopped, resubscribing",
				"error", err,
				"retry_in", w.retryDelay)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *ExportWorker) reportStats(ctx context.Context) {
	ticker := time.NewTicker(w.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.processor.Stats()
			slog.InfoContext(ctx, "Export worker stats",
				"exported", s.Exported,
				"deleted", s.Deleted,
				"skipped", s.Skipped,
				"failed", s.Failed)
		}
	}
}
