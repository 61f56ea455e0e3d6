package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/abrsearch/core/internal/core/domain"
)

// cacheTTL is deliberately short: the cache only smooths repeated
// identical queries, never changes search semantics.
const cacheTTL = 30 * time.Second

// cacheKey hashes the normalized query so equivalent queries
// (same term/filters/page/limit) share a cache entry regardless of
// map iteration order on the filter set.
func cacheKey(technique string, q domain.SearchQuery) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%d|%d",
		technique, q.Term, derefStr(q.State), derefStr(q.Postcode),
		derefStr(q.EntityType), derefStr(q.ABNStatus), q.Page, q.Limit)
	return "search:" + hex.EncodeToString(h.Sum(nil))
}

func derefStr(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}
