// Package ingest implements C5: the Orchestrator that isolates one
// ingestion run from request-serving, grounded on the teacher's
// SyncOrchestrator.SyncSource (own connector, own state machine,
// structured result) and worker.Worker.Start (goroutine with a
// stopCh/doneCh shutdown pair).
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abrsearch/core/internal/adapters/driven/postgres"
	"github.com/abrsearch/core/internal/adapters/driven/xmlsource"
	"github.com/abrsearch/core/internal/batchwriter"
	"github.com/abrsearch/core/internal/core/domain"
	"github.com/abrsearch/core/internal/core/ports/driving"
)

// Config is the Orchestrator's dependency set: the database URL it
// opens a private pool against (spec §4.3: "a private connection
// pool ... distinct from the serving pool") and a logger.
type Config struct {
	DatabaseURL string
	Logger      *slog.Logger
}

// Orchestrator runs the parser/adapter/writer pipeline as a task
// isolated from request-serving. It is invoked identically by the
// HTTP ingest endpoint and the offline seed CLI.
type Orchestrator struct {
	cfg Config
}

var _ driving.IngestService = (*Orchestrator)(nil)

func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg}
}

// Run launches one ingestion pipeline on its own goroutine with its
// own small connection pool (2-4 connections, per spec §4.3) and
// returns a channel the caller drains for progress/done/error events.
// The channel is closed after the first done or error event.
func (o *Orchestrator) Run(opts driving.IngestOptions) (<-chan domain.IngestEvent, error) {
	events := make(chan domain.IngestEvent, 16)

	go o.run(opts, events)

	return events, nil
}

func (o *Orchestrator) run(opts driving.IngestOptions, events chan domain.IngestEvent) {
	defer close(events)

	start := time.Now()
	ctx := context.Background()

	file, err := os.Open(opts.FilePath)
	if err != nil {
		events <- domain.IngestEvent{Kind: domain.IngestError, Err: fmt.Errorf("ingest: open %s: %w", opts.FilePath, err)}
		return
	}
	defer file.Close()

	db, err := postgres.Connect(ctx, ingestPoolConfig(o.cfg.DatabaseURL))
	if err != nil {
		events <- domain.IngestEvent{Kind: domain.IngestError, Err: fmt.Errorf("ingest: connect: %w", err)}
		return
	}
	defer db.Close()

	writer := batchwriter.New(batchwriter.Config{
		DB:            db,
		BatchSize:     opts.BatchSize,
		RetryAttempts: opts.RetryAttempts,
		RetryDelay:    time.Duration(opts.RetryDelayMs) * time.Millisecond,
		FlushDelay:    time.Duration(opts.FlushDelayMs) * time.Millisecond,
		Logger:        o.cfg.Logger,
	})

	parser := xmlsource.New(writer, func(processed int64) {
		events <- domain.IngestEvent{Kind: domain.IngestProgress, Processed: processed}
	})

	if err := parser.Parse(ctx, file); err != nil {
		events <- domain.IngestEvent{Kind: domain.IngestError, Err: fmt.Errorf("ingest: parse: %w", err)}
		return
	}

	totalInserted, totalUpdated, err := writer.Destroy(ctx)
	if err != nil {
		events <- domain.IngestEvent{Kind: domain.IngestError, Err: fmt.Errorf("ingest: final flush: %w", err)}
		return
	}

	events <- domain.IngestEvent{
		Kind:           domain.IngestDone,
		TotalProcessed: parser.Processed(),
		TotalInserted:  totalInserted,
		TotalUpdated:   totalUpdated,
		DurationMs:     time.Since(start).Milliseconds(),
	}
}

// ingestPoolConfig sizes the orchestrator's private pool small (2-4
// connections), distinct from and never shared with the serving
// plane's pool, per spec §4.3 and §5's "connection-pool-per-plane".
func ingestPoolConfig(url string) postgres.Config {
	cfg := postgres.DefaultConfig(url)
	cfg.MaxOpenConns = 4
	cfg.MaxIdleConns = 2
	cfg.ConnMaxIdleTime = 4 * time.Minute // etl.poolIdleTimeoutMs default 240000
	return cfg
}
