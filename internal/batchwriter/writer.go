// Package batchwriter implements C3: a stateful, single-writer buffer
// that flushes normalized Business records as chunked, transactional,
// retried bulk upserts, grounded on the teacher's worker.Worker
// shutdown pairing (stopCh/doneCh) and queue.Queue's retry/backoff
// idiom.
package batchwriter

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/abrsearch/core/internal/adapters/driven/postgres"
	"github.com/abrsearch/core/internal/core/domain"
)

// Config mirrors spec §6.3's etl.* keys.
type Config struct {
	DB            *postgres.DB
	BatchSize     int           // default 5000
	RetryAttempts int           // default 3
	RetryDelay    time.Duration // default 1s; doubles per attempt
	FlushDelay    time.Duration // default 200ms; post-flush pacing
	Logger        *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = 200 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// entry is one normalized record plus its alternate names, buffered
// together so a flush can replace names atomically with the upsert
// that resolves their owning business id.
type entry struct {
	business domain.Business
	names    []domain.BusinessName
}

// Writer buffers normalized Business records and flushes them as
// described in spec §4.3. Add and Flush are safe for concurrent use,
// though the parser in practice calls Add from a single goroutine.
type Writer struct {
	cfg Config

	mu      sync.Mutex // guards buf; held only long enough to drain it
	buf     []entry
	flushMu sync.Mutex // serializes flush execution; spec §4.3.5

	totalInserted int64
	totalUpdated  int64
}

// New constructs a Writer. Defaults match spec §6.3.
func New(cfg Config) *Writer {
	cfg.applyDefaults()
	return &Writer{cfg: cfg}
}

// Add appends a normalized Business (with its alternate names) to the
// buffer. If the buffer reaches BatchSize, Add blocks until the
// resulting flush completes — this blocking call IS the backpressure
// signal C4's parser relies on (SPEC_FULL §C4).
func (w *Writer) Add(ctx context.Context, business domain.Business, names []domain.BusinessName) error {
	w.mu.Lock()
	w.buf = append(w.buf, entry{business: business, names: names})
	full := len(w.buf) >= w.cfg.BatchSize
	w.mu.Unlock()

	if full {
		return w.Flush(ctx)
	}
	return nil
}

// Flush drains the buffer and runs one transactional batch behind the
// flush mutex, retrying on transient failure. A concurrent Add that
// arrives while a flush is in flight simply appends to the next
// buffer; it does not wait for this flush unless it also fills the
// buffer.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buf) == 0 {
		w.mu.Unlock()
		return nil
	}
	batch := w.buf
	w.buf = nil
	w.mu.Unlock()

	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	if err := w.runWithRetry(ctx, batch); err != nil {
		return err
	}

	if w.cfg.FlushDelay > 0 {
		select {
		case <-time.After(w.cfg.FlushDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Destroy awaits any in-flight flush (by acquiring and releasing the
// flush mutex after a final Flush), and returns the running insert
// and update totals.
func (w *Writer) Destroy(ctx context.Context) (totalInserted, totalUpdated int64, err error) {
	if err := w.Flush(ctx); err != nil {
		return w.totalInserted, w.totalUpdated, err
	}
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	return w.totalInserted, w.totalUpdated, nil
}

func (w *Writer) runWithRetry(ctx context.Context, batch []entry) error {
	var lastErr error
	for attempt := 1; attempt <= w.cfg.RetryAttempts; attempt++ {
		err := w.runOnce(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransientError(err) {
			return err
		}

		if attempt == w.cfg.RetryAttempts {
			break
		}

		delay := w.cfg.RetryDelay * time.Duration(1<<(attempt-1))
		w.cfg.Logger.Warn("batch flush failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// runOnce executes one batch inside one transaction, per spec §4.3.2:
// upsert businesses, delete the owning businesses' existing names,
// then insert the fresh ones.
func (w *Writer) runOnce(ctx context.Context, batch []entry) error {
	businesses := make([]domain.Business, len(batch))
	for i, e := range batch {
		businesses[i] = e.business
	}

	return w.cfg.DB.Transaction(ctx, func(tx *sql.Tx) error {
		repo := postgres.NewRepository(w.cfg.DB, 0)

		_, inserted, updated, err := repo.BulkUpsertTx(ctx, tx, businesses)
		if err != nil {
			return err
		}

		abns := make([]string, 0, len(batch))
		hasNames := false
		for _, e := range batch {
			abns = append(abns, e.business.ABN)
			if len(e.names) > 0 {
				hasNames = true
			}
		}

		if !hasNames {
			w.totalInserted += int64(inserted)
			w.totalUpdated += int64(updated)
			return nil
		}

		ids, err := repo.GetIDsByABNsTx(ctx, tx, abns)
		if err != nil {
			return err
		}

		businessIDs := make([]int64, 0, len(ids))
		for _, id := range ids {
			businessIDs = append(businessIDs, id)
		}
		if err := repo.DeleteNamesByBusinessIDsTx(ctx, tx, businessIDs); err != nil {
			return err
		}

		var names []domain.BusinessName
		for _, e := range batch {
			id, ok := ids[e.business.ABN]
			if !ok {
				// Should not occur if the upsert above succeeded;
				// skipped defensively per spec §4.3.2.c.
				continue
			}
			for _, n := range e.names {
				n.BusinessID = id
				names = append(names, n)
			}
		}
		if err := repo.BulkInsertNamesTx(ctx, tx, names); err != nil {
			return err
		}

		w.totalInserted += int64(inserted)
		w.totalUpdated += int64(updated)
		return nil
	})
}
