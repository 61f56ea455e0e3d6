package driven

import (
	"context"

	"github.com/abrsearch/core/internal/core/domain"
)

// Repository is the store-facing boundary C2 implements. All
// operations are safe for concurrent use by multiple callers; none
// mutate state concurrently with a Batch Writer flush except through
// the store's own transactional isolation.
type Repository interface {
	// BulkUpsert inserts or merge-updates rows keyed by ABN, chunked to
	// stay under the store's bound-parameter cap. Returns the count of
	// rows submitted (not rows changed) and, when the store can report
	// it cheaply, the insert/update split.
	BulkUpsert(ctx context.Context, rows []domain.Business) (submitted int, inserted int, updated int, err error)

	// BulkInsertNames unconditionally appends business_names rows,
	// chunked to the store's parameter cap.
	BulkInsertNames(ctx context.Context, names []domain.BusinessName) error

	// DeleteNamesByBusinessIDs removes every business_names row owned
	// by any of the given business ids, ahead of BulkInsertNames, to
	// realize the replace-on-re-ingest invariant.
	DeleteNamesByBusinessIDs(ctx context.Context, businessIDs []int64) error

	// GetIDsByABNs resolves a set of ABNs to surrogate ids. ABNs with
	// no matching row are simply absent from the result.
	GetIDsByABNs(ctx context.Context, abns []string) (map[string]int64, error)

	// FindByABN fetches a Business and its BusinessNames in two
	// statements. Returns domain.ErrNotFound when no row matches.
	FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error)

	// SearchNative is the unindexed ILIKE substring baseline.
	SearchNative(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)

	// SearchOptimized is the tsvector/GIN-backed path.
	SearchOptimized(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)

	// FindWithFilters serves both search paths when q.Term is blank.
	FindWithFilters(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
}
