package driven

import (
	"context"
	"time"

	"github.com/abrsearch/core/internal/core/domain"
)

// SearchCache is the optional, additive memoization layer described in
// SPEC_FULL's C2 expansion. When REDIS_URL is unset the search service
// holds a nil SearchCache interface value and its dispatch checks for
// nil, calling the repository directly without caching.
type SearchCache interface {
	Get(ctx context.Context, key string) (domain.SearchResult, bool, error)
	Set(ctx context.Context, key string, result domain.SearchResult, ttl time.Duration) error
}
