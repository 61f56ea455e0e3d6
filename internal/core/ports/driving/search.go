package driving

import (
	"context"

	"github.com/abrsearch/core/internal/core/domain"
)

// SearchService is the strategy-dispatch boundary C6's HTTP handlers
// call into. It owns the mode/technique decision table of spec §4.6.3;
// the Repository underneath knows nothing about HTTP concerns.
type SearchService interface {
	Search(ctx context.Context, mode domain.Mode, technique domain.Technique, q domain.SearchQuery) (domain.SearchResult, error)
	FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error)
}
