// Package worker keeps the spreadsheet mirror in step with the backend.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/sheets"
)

// maxPasses bounds how often one sync repeats because events kept arriving.
const maxPasses = 3

// Source lists the current expenses. client.API satisfies it.
type Source interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// Stats reports what the worker has done so far.
type Stats struct {
	Syncs    int64
	Failures int64
	LastSync time.Time
}

// MirrorWorker rewrites the mirror from the full expense list on every
// change event and on a periodic tick. Overlapping syncs collapse into one.
type MirrorWorker struct {
	source   Source
	mirror   sheets.Mirror
	interval time.Duration
	logger   *log.Logger

	group singleflight.Group
	dirty atomic.Bool

	syncs    atomic.Int64
	failures atomic.Int64
	mu       sync.Mutex
	lastSync time.Time
}

func NewMirrorWorker(source Source, mirror sheets.Mirror, interval time.Duration, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		source:   source,
		mirror:   mirror,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is the amqp.Handler for change events. An error requeues the
// event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		"type", ev.Type,
		log.FieldExpenseID, ev.ID,
		"timestamp", ev.Timestamp)

	// an in-flight sync may have listed before this change; make it go again
	w.dirty.Store(true)
	return w.Sync(ctx)
}

// Sync lists every expense and replaces the mirror. Callers arriving while
// a sync is running share its result.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	_, err, shared := w.group.Do("mirror", func() (any, error) {
		return nil, w.syncPasses(ctx)
	})
	if shared {
		w.logger.DebugContext(ctx, "Joined in-flight sync")
	}
	return err
}

func (w *MirrorWorker) syncPasses(ctx context.Context) error {
	for pass := 0; pass < maxPasses; pass++ {
		w.dirty.Store(false)
		if err := w.syncOnce(ctx); err != nil {
			return err
		}
		if !w.dirty.Load() {
			return nil
		}
	}
	return nil
}

func (w *MirrorWorker) syncOnce(ctx context.Context) error {
	start := time.Now()

	items, err := w.source.List(ctx)
	if err != nil {
		w.failures.Add(1)
		return fmt.Errorf("list expenses: %w", err)
	}
	if err := w.mirror.Replace(ctx, items); err != nil {
		w.failures.Add(1)
		return fmt.Errorf("replace mirror: %w", err)
	}

	w.syncs.Add(1)
	w.mu.Lock()
	w.lastSync = time.Now()
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Mirror synced",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(items),
		log.FieldTotal, core.Total(items).Units,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Run syncs once at startup and then on every tick until ctx is done.
// Sync failures are logged; the next tick or event retries.
func (w *MirrorWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting mirror worker", "interval", w.interval)

	if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup sync failed", log.FieldError, err)
	}

	if w.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Mirror worker stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *MirrorWorker) Stats() Stats {
	w.mu.Lock()
	last := w.lastSync
	w.mu.Unlock()
	return Stats{
		Syncs:    w.syncs.Load(),
		Failures: w.failures.Load(),
		LastSync: last,
	}
}
