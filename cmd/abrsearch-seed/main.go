// Command abrsearch-seed is the offline ingestion CLI: it invokes the
// same Orchestrator as the HTTP ingest endpoint, with identical
// semantics (spec §4.5), reporting progress to stdout.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/abrsearch/core/internal/config"
	"github.com/abrsearch/core/internal/core/domain"
	"github.com/abrsearch/core/internal/core/ports/driving"
	"github.com/abrsearch/core/internal/ingest"
)

func main() {
	filePath := flag.String("file", "", "path to an ABR XML export to ingest")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: abrsearch-seed -file <path-to-abr-export.xml>")
		os.Exit(1)
	}

	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	orchestrator := ingest.New(ingest.Config{DatabaseURL: cfg.DatabaseURL, Logger: logger})

	events, err := orchestrator.Run(driving.IngestOptions{
		FilePath:      *filePath,
		BatchSize:     cfg.ETLBatchSize,
		RetryAttempts: cfg.ETLRetryAttempts,
		RetryDelayMs:  cfg.ETLRetryDelayMs,
		FlushDelayMs:  cfg.ETLFlushDelayMs,
	})
	if err != nil {
		logger.Error("failed to start ingestion", "error", err)
		os.Exit(1)
	}

	for ev := range events {
		switch ev.Kind {
		case domain.IngestProgress:
			fmt.Printf("processed %d records\n", ev.Processed)
		case domain.IngestDone:
			fmt.Printf("done: processed=%d inserted=%d updated=%d duration=%dms\n",
				ev.TotalProcessed, ev.TotalInserted, ev.TotalUpdated, ev.DurationMs)
		case domain.IngestError:
			logger.Error("ingestion failed", "error", ev.Err)
			os.Exit(1)
		}
	}
}
