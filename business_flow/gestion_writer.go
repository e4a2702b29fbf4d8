package businessflow

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/turnixpro/turnix/config"
)

// GestionRowStore is the part of the backing store the writer depends on: a fresh read of the
// identifier column and an append whose acknowledgement is not trusted.
type GestionRowStore interface {
	ReadIDColumn(ctx context.Context) ([]string, error)
	AppendRow(ctx context.Context, row []string) error
}

// GestionWriter allocates an id and durably records a row under it
type GestionWriter interface {
	Write(ctx context.Context, buildRow func(id string) []string) (string, error)
}

// GestionWriterImpl implements GestionWriter with a bounded verify-after-write loop.
// It holds no shared state between calls; concurrent Writes only meet in the store.
type GestionWriterImpl struct {
	store  GestionRowStore
	cfg    config.AllocationConfig
	logger *log.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewGestionWriter creates a writer over store. A nil logger logs through log.Default.
func NewGestionWriter(store GestionRowStore, cfg config.AllocationConfig, logger *log.Logger) GestionWriter {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GestionWriterImpl{
		store:  store,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Write runs up to cfg.Attempts rounds of read, allocate, probe, append, re-probe.
// Only collisions and unconfirmed appends consume the budget; any store failure is returned
// on first occurrence.
func (w *GestionWriterImpl) Write(ctx context.Context, buildRow func(id string) []string) (string, error) {
	start := time.Now()
	defer func() { idAllocationDuration.Observe(time.Since(start).Seconds()) }()

	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	for attempt := 1; attempt <= w.cfg.Attempts; attempt++ {
		column, err := w.readColumn(ctx)
		if err != nil {
			return "", w.fail(ctx, "read id column", err)
		}

		candidate, err := NextGestionID(column)
		if err != nil {
			if errors.Is(err, ErrSpaceExhausted) {
				idAllocationsTotal.WithLabelValues(outcomeExhausted).Inc()
				w.logger.Printf("gestion writer: id space exhausted, archive required")
				return "", NewBusinessError(CodeSpaceExhausted, "Gestion id space exhausted; archive and clear the sheet", err)
			}
			return "", err
		}

		// Existence probe: another writer may have claimed candidate since our read
		taken, err := w.exists(ctx, candidate)
		if err != nil {
			return "", w.fail(ctx, "probe id", err)
		}
		if taken {
			idAllocationRetriesTotal.WithLabelValues(retryCollision).Inc()
			w.logger.Printf("gestion writer: attempt %d/%d candidate %s already present", attempt, w.cfg.Attempts, candidate)
			if err := w.pause(ctx, attempt, w.cfg.CollisionDelay); err != nil {
				return "", err
			}
			continue
		}

		if err := w.store.AppendRow(ctx, buildRow(candidate)); err != nil {
			return "", w.fail(ctx, "append row", err)
		}

		// The append acknowledgement is not proof of persistence
		landed, err := w.exists(ctx, candidate)
		if err != nil {
			return "", w.fail(ctx, "re-probe id", err)
		}
		if landed {
			idAllocationsTotal.WithLabelValues(outcomeConfirmed).Inc()
			w.logger.Printf("gestion writer: %s confirmed on attempt %d", candidate, attempt)
			return candidate, nil
		}

		idAllocationRetriesTotal.WithLabelValues(retryUnconfirmed).Inc()
		w.logger.Printf("gestion writer: attempt %d/%d append of %s not visible", attempt, w.cfg.Attempts, candidate)
		if err := w.pause(ctx, attempt, w.cfg.UnconfirmedDelay); err != nil {
			return "", err
		}
	}

	idAllocationsTotal.WithLabelValues(outcomeConflict).Inc()
	return "", NewBusinessErrorf(CodeAllocationConflict, "could not confirm a unique gestion id after %d attempts", ErrAllocationConflict, w.cfg.Attempts)
}

func (w *GestionWriterImpl) readColumn(ctx context.Context) ([]string, error) {
	raw, err := w.store.ReadIDColumn(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeIDColumn(raw), nil
}

func (w *GestionWriterImpl) exists(ctx context.Context, id string) (bool, error) {
	column, err := w.readColumn(ctx)
	if err != nil {
		return false, err
	}
	return containsGestionID(column, id), nil
}

// pause waits before the next attempt; there is nothing to wait for after the last one
func (w *GestionWriterImpl) pause(ctx context.Context, attempt int, d time.Duration) error {
	if attempt >= w.cfg.Attempts {
		return nil
	}
	if err := w.sleep(ctx, d); err != nil {
		idAllocationsTotal.WithLabelValues(outcomeTimeout).Inc()
		return NewBusinessError(CodeAllocationTimeout, "gestion id allocation timed out", errors.Join(ErrAllocationTimeout, err))
	}
	return nil
}

// fail classifies an error from the store: an expired or cancelled context is a timeout,
// anything else is a backing store failure.
func (w *GestionWriterImpl) fail(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		idAllocationsTotal.WithLabelValues(outcomeTimeout).Inc()
		return NewBusinessError(CodeAllocationTimeout, "gestion id allocation timed out", errors.Join(ErrAllocationTimeout, ctxErr, err))
	}
	idAllocationsTotal.WithLabelValues(outcomeStore).Inc()
	w.logger.Printf("gestion writer: %s failed: %v", op, err)
	return newStoreError(op, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
