// Package services implements the driving ports against the driven
// ports, following the teacher's core/services layout: thin
// orchestration, no SQL, no HTTP.
package services

import (
	"context"
	"log/slog"

	"github.com/abrsearch/core/internal/core/domain"
	"github.com/abrsearch/core/internal/core/ports/driven"
)

// SearchServiceConfig mirrors the teacher's services constructors:
// collaborators plus an optional logger defaulting to slog.Default().
type SearchServiceConfig struct {
	Repository driven.Repository
	Cache      driven.SearchCache // optional; nil disables caching
	Logger     *slog.Logger
}

type searchService struct {
	repo   driven.Repository
	cache  driven.SearchCache
	logger *slog.Logger
}

// NewSearchService wires the strategy-dispatch table of spec §4.6.3.
func NewSearchService(cfg SearchServiceConfig) *searchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{repo: cfg.Repository, cache: cfg.Cache, logger: logger}
}

func (s *searchService) Search(ctx context.Context, mode domain.Mode, technique domain.Technique, q domain.SearchQuery) (domain.SearchResult, error) {
	if mode == domain.ModeAI {
		return domain.SearchResult{}, domain.NewOperationalError(domain.KindNotImplemented, "AI search is not implemented", domain.ErrNotImplemented)
	}
	if mode != domain.ModeStandard {
		return domain.SearchResult{}, domain.NewOperationalError(domain.KindValidation, "unknown mode: "+string(mode), domain.ErrValidation)
	}

	if technique != domain.TechniqueNative && technique != domain.TechniqueOptimized {
		return domain.SearchResult{}, domain.NewOperationalError(domain.KindValidation, "unknown technique: "+string(technique), domain.ErrValidation)
	}

	if blank(q.Term) {
		return s.repo.FindWithFilters(ctx, q)
	}

	switch technique {
	case domain.TechniqueOptimized:
		return s.dispatch(ctx, q, s.repo.SearchOptimized, "optimized")
	default:
		return s.dispatch(ctx, q, s.repo.SearchNative, "native")
	}
}

func (s *searchService) dispatch(ctx context.Context, q domain.SearchQuery, fn func(context.Context, domain.SearchQuery) (domain.SearchResult, error), technique string) (domain.SearchResult, error) {
	if s.cache == nil {
		return fn(ctx, q)
	}
	key := cacheKey(technique, q)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	}
	result, err := fn(ctx, q)
	if err != nil {
		return result, err
	}
	if err := s.cache.Set(ctx, key, result, cacheTTL); err != nil {
		s.logger.Warn("search cache set failed", "error", err)
	}
	return result, nil
}

func (s *searchService) FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error) {
	b, queryTimeMs, err := s.repo.FindByABN(ctx, abn)
	if err != nil {
		return nil, 0, err
	}
	return b, queryTimeMs, nil
}

func blank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
