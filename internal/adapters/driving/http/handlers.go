package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/abrsearch/core/internal/core/domain"
)

// handleHealth reports process uptime.
//
// @Summary      Health check
// @Produce      json
// @Success      200 {object} healthResponse
// @Router       /api/v1/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startedAt).String(),
		Timestamp: time.Now().UTC(),
	})
}

// handleSearch dispatches to the optimized or native search path per
// spec §4.6.3, normalizing query parameters per spec §4.6.4.
//
// @Summary      Search businesses
// @Produce      json
// @Param        q          query string false "free-text term"
// @Param        state      query string false "state filter"
// @Param        postcode   query string false "postcode filter"
// @Param        entityType query string false "entity type code filter"
// @Param        abnStatus  query string false "ABN status filter"
// @Param        page       query int    false "page number, default 1"
// @Param        limit      query int    false "page size, default 20, max 100"
// @Param        mode       query string false "standard|ai, default standard"
// @Param        technique  query string false "native|optimized, default native"
// @Success      200 {object} successResponse
// @Failure      400 {object} errorResponse
// @Failure      501 {object} errorResponse
// @Router       /api/v1/businesses/search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := r.URL.Query()
	mode := domain.Mode(orDefault(q.Get("mode"), string(domain.ModeStandard)))
	technique := domain.Technique(orDefault(q.Get("technique"), string(domain.TechniqueNative)))

	page, err := parseIntParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, s.logger, domain.NewOperationalError(domain.KindValidation, "invalid page parameter", err))
		return
	}
	limit, err := parseIntParam(q.Get("limit"), 20)
	if err != nil {
		writeError(w, s.logger, domain.NewOperationalError(domain.KindValidation, "invalid limit parameter", err))
		return
	}

	query := domain.SearchQuery{
		Term:       q.Get("q"),
		State:      optionalParam(q, "state"),
		Postcode:   optionalParam(q, "postcode"),
		EntityType: optionalParam(q, "entityType"),
		ABNStatus:  optionalParam(q, "abnStatus"),
		Page:       clamp(page, 1, 1<<31-1),
		Limit:      clamp(limit, 1, 100),
	}

	result, err := s.searchService.Search(r.Context(), mode, technique, query)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Status: "success",
		Data:   toBusinessDTOs(result.Data),
		Pagination: &paginationDTO{
			Page: result.Pagination.Page, Limit: result.Pagination.Limit,
			Total: result.Pagination.Total, TotalPages: result.Pagination.TotalPages,
		},
		Meta: metaDTO{QueryTimeMs: result.QueryTimeMs, TotalTimeMs: time.Since(start).Milliseconds()},
	})
}

// handleGetByABN is the by-key lookup.
//
// @Summary      Get business by ABN
// @Produce      json
// @Param        abn path string true "11-digit Australian Business Number"
// @Success      200 {object} successResponse
// @Failure      404 {object} errorResponse
// @Router       /api/v1/businesses/{abn} [get]
func (s *Server) handleGetByABN(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	abn := r.PathValue("abn")

	business, queryTimeMs, err := s.searchService.FindByABN(r.Context(), abn)
	if err != nil {
		if isNotFound(err) {
			writeError(w, s.logger, domain.NewOperationalError(domain.KindNotFound, "Business not found: "+abn, err))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Status: "success",
		Data:   toBusinessDTO(*business),
		Meta:   metaDTO{QueryTimeMs: queryTimeMs, TotalTimeMs: time.Since(start).Milliseconds()},
	})
}

// handleIngest triggers an ingestion run and blocks until it finishes.
// Gated by the operator bearer-token middleware when the server is
// configured with an Operator; otherwise the route is unauthenticated.
//
// @Summary      Ingest an ABR XML file
// @Accept       json
// @Produce      json
// @Param        body body ingestRequest true "file path to ingest"
// @Success      200 {object} ingestResponse
// @Failure      400 {object} errorResponse
// @Router       /api/v1/ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, domain.NewOperationalError(domain.KindValidation, "malformed request body", err))
		return
	}
	if req.FilePath == "" {
		writeError(w, s.logger, domain.NewOperationalError(domain.KindValidation, "filePath is required", nil))
		return
	}

	opts := s.cfg.IngestDefaults
	opts.FilePath = req.FilePath

	events, err := s.ingestService.Run(opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	for ev := range events {
		switch ev.Kind {
		case domain.IngestDone:
			writeJSON(w, http.StatusOK, ingestResponse{
				Status: "success",
				Data: ingestResultDTO{
					TotalProcessed: ev.TotalProcessed, TotalInserted: ev.TotalInserted,
					TotalUpdated: ev.TotalUpdated, DurationMs: ev.DurationMs,
				},
			})
			return
		case domain.IngestError:
			writeError(w, s.logger, domain.Wrap(ev.Err))
			return
		}
	}

	// Channel closed without a done or error event.
	writeError(w, s.logger, domain.Wrap(errUnexpectedChannelClose))
}

var errUnexpectedChannelClose = &channelClosedError{}

type channelClosedError struct{}

func (*channelClosedError) Error() string { return "ingest: event channel closed without done or error" }

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func optionalParam(q map[string][]string, key string) *string {
	values, ok := q[key]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}
	return &values[0]
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
