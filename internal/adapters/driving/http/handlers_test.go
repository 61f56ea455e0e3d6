package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abrsearch/core/internal/core/domain"
	"github.com/abrsearch/core/internal/core/ports/driving"
)

type fakeSearchService struct {
	searchFn     func(ctx context.Context, mode domain.Mode, technique domain.Technique, q domain.SearchQuery) (domain.SearchResult, error)
	findByABNFn  func(ctx context.Context, abn string) (*domain.Business, int64, error)
}

func (f *fakeSearchService) Search(ctx context.Context, mode domain.Mode, technique domain.Technique, q domain.SearchQuery) (domain.SearchResult, error) {
	return f.searchFn(ctx, mode, technique, q)
}

func (f *fakeSearchService) FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error) {
	return f.findByABNFn(ctx, abn)
}

type fakeIngestService struct {
	events []domain.IngestEvent

	gotOpts driving.IngestOptions
}

func (f *fakeIngestService) Run(opts driving.IngestOptions) (<-chan domain.IngestEvent, error) {
	f.gotOpts = opts
	ch := make(chan domain.IngestEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestServer(search driving.SearchService, ingest driving.IngestService) *Server {
	return NewServer(Config{SearchService: search, IngestService: ingest})
}

func TestHandleSearch_AIModeReturns501(t *testing.T) {
	fake := &fakeSearchService{
		searchFn: func(ctx context.Context, mode domain.Mode, technique domain.Technique, q domain.SearchQuery) (domain.SearchResult, error) {
			return domain.SearchResult{}, domain.NewOperationalError(domain.KindNotImplemented, "AI search is not implemented", domain.ErrNotImplemented)
		},
	}
	srv := newTestServer(fake, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/search?q=x&mode=ai", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Message != "AI search is not implemented" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestHandleGetByABN_NotFoundReturns404(t *testing.T) {
	fake := &fakeSearchService{
		findByABNFn: func(ctx context.Context, abn string) (*domain.Business, int64, error) {
			return nil, 0, domain.ErrNotFound
		},
	}
	srv := newTestServer(fake, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/00000000000", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "Business not found: 00000000000" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestHandleGetByABN_Found(t *testing.T) {
	fake := &fakeSearchService{
		findByABNFn: func(ctx context.Context, abn string) (*domain.Business, int64, error) {
			return &domain.Business{ABN: abn, EntityName: "VANTAGE SEARCH PTY LTD", BusinessNames: []domain.BusinessName{
				{NameType: "TRD", NameText: "VANTAGE DIRECTORY"},
				{NameType: "BN", NameText: "VANTAGE SEARCH"},
			}}, 3, nil
		},
	}
	srv := newTestServer(fake, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/53004085616", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var body successResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "success" {
		t.Errorf("status field = %q", body.Status)
	}
}

func TestHandleSearch_InvalidPageIsBadRequest(t *testing.T) {
	srv := newTestServer(&fakeSearchService{}, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/search?page=notanumber", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngest_MissingFilePathIsBadRequest(t *testing.T) {
	srv := newTestServer(&fakeSearchService{}, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngest_Success(t *testing.T) {
	ingest := &fakeIngestService{events: []domain.IngestEvent{
		{Kind: domain.IngestDone, TotalProcessed: 100, TotalInserted: 90, TotalUpdated: 10, DurationMs: 42},
	}}
	srv := newTestServer(&fakeSearchService{}, ingest)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(`{"filePath":"/data/abr.xml"}`))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var body ingestResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Data.TotalProcessed != 100 {
		t.Errorf("TotalProcessed = %d", body.Data.TotalProcessed)
	}
}

func TestHandleIngest_ThreadsETLDefaultsFromConfig(t *testing.T) {
	ingest := &fakeIngestService{events: []domain.IngestEvent{{Kind: domain.IngestDone}}}
	srv := NewServer(Config{
		SearchService: &fakeSearchService{},
		IngestService: ingest,
		IngestDefaults: driving.IngestOptions{
			BatchSize: 2500, RetryAttempts: 5, RetryDelayMs: 500, FlushDelayMs: 50,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewBufferString(`{"filePath":"/data/abr.xml"}`))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	want := driving.IngestOptions{FilePath: "/data/abr.xml", BatchSize: 2500, RetryAttempts: 5, RetryDelayMs: 500, FlushDelayMs: 50}
	if ingest.gotOpts != want {
		t.Fatalf("Run() opts = %+v, want %+v", ingest.gotOpts, want)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeSearchService{}, &fakeIngestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
