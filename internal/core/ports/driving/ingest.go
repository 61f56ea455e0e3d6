package driving

import "github.com/abrsearch/core/internal/core/domain"

// IngestOptions carries the Orchestrator's per-run input, the Go
// analogue of spec §4.5's {filePath, storeConfig, batchSize, etlOptions}.
type IngestOptions struct {
	FilePath      string
	BatchSize     int
	RetryAttempts int
	RetryDelayMs  int
	FlushDelayMs  int
}

// IngestService runs one ingestion pipeline to completion, invoked
// identically by the HTTP ingest endpoint and the offline seed CLI.
type IngestService interface {
	Run(opts IngestOptions) (<-chan domain.IngestEvent, error)
}
