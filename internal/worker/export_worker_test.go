package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"footprint/internal/amqp"
	"footprint/internal/services"
)

type fakeConsumer struct {
	calls  atomic.Int32
	events []*amqp.ActivityEvent
	fail   error
}

func (f *fakeConsumer) ConsumeActivityEvents(ctx context.Context, handler func(context.Context, *amqp.ActivityEvent) error) error {
	if f.calls.Add(1) == 1 {
		for _, ev := range f.events {
			if err := handler(ctx, ev); err != nil {
				return err
			}
		}
		if f.fail != nil {
			return f.fail
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeProcessor struct {
	mu   sync.Mutex
	seen []string
}

func (p *fakeProcessor) Handle(_ context.Context, ev *amqp.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, ev.ID)
	return nil
}

func (p *fakeProcessor) Stats() services.ExportStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return services.ExportStats{Exported: int64(len(p.seen))}
}

func TestExportWorkerDeliversEvents(t *testing.T) {
	consumer := &fakeConsumer{events: []*amqp.ActivityEvent{
		amqp.NewActivityEvent("a", "u1", amqp.ActionCreated, 1),
		amqp.NewActivityEvent("b", "u1", amqp.ActionDeleted, 2),
	}}
	proc := &fakeProcessor{}
	w := NewExportWorker(consumer, proc, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := proc.Stats().Exported; got != 2 {
		t.Fatalf("expected 2 events handled, got %d", got)
	}
}

func TestExportWorkerResubscribes(t *testing.T) {
	consumer := &fakeConsumer{fail: errors.New("message channel closed")}
	w := NewExportWorker(consumer, &fakeProcessor{}, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if consumer.calls.Load() < 2 {
		t.Fatalf("expected a resubscription, got %d calls", consumer.calls.Load())
	}
}

func TestNewExportWorkerDefaults(t *testing.T) {
	w := NewExportWorker(&fakeConsumer{}, &fakeProcessor{}, 0, 0)
	if w.retryDelay != 5*time.Second || w.statsInterval != time.Minute {
		t.Fatalf("unexpected defaults: %+v", w)
	}
}
