package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/abrsearch/core/internal/core/domain"
)

// businessColumns is the column order every businesses INSERT in this
// file uses. 14 columns -> a 65535-bound-parameter statement caps out
// around 4680 rows; maxUpsertBatchRows stays well under that so
// single-statement latency on a remote store stays bounded.
var businessColumns = []string{
	"abn", "abn_status", "abn_status_from", "entity_type_code", "entity_type_text",
	"entity_name", "given_name", "family_name", "state", "postcode",
	"gst_status", "gst_from_date", "acn", "record_last_updated",
}

const (
	maxUpsertBatchRows = 1000
	maxNameBatchRows   = 5000 // 3 columns; ceiling ~21844, default kept conservative
)

// queryer is satisfied by both *sql.DB and *sql.Tx, letting the same
// SQL-building code run standalone or inside the Batch Writer's
// transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository implements driven.Repository against PostgreSQL.
type Repository struct {
	db            *DB
	maxCandidates int
}

// NewRepository constructs a Repository. maxCandidates is spec
// §4.2.6's pagination cap (default 5000).
func NewRepository(db *DB, maxCandidates int) *Repository {
	if maxCandidates <= 0 {
		maxCandidates = 5000
	}
	return &Repository{db: db, maxCandidates: maxCandidates}
}

// BulkUpsert opens its own transaction and delegates to BulkUpsertTx,
// matching the teacher's SaveBatch shape (tx opened inside the
// batch-scoped method) for callers that don't already hold a tx.
func (r *Repository) BulkUpsert(ctx context.Context, rows []domain.Business) (int, int, int, error) {
	var submitted, inserted, updated int
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		submitted, inserted, updated, err = r.BulkUpsertTx(ctx, tx, rows)
		return err
	})
	return submitted, inserted, updated, err
}

// BulkUpsertTx is the Batch Writer's entry point: it runs inside the
// caller's transaction so upsert + name replacement commit atomically.
func (r *Repository) BulkUpsertTx(ctx context.Context, tx *sql.Tx, rows []domain.Business) (int, int, int, error) {
	if len(rows) == 0 {
		return 0, 0, 0, nil
	}

	var totalInserted, totalUpdated int
	for start := 0; start < len(rows); start += maxUpsertBatchRows {
		end := min(start+maxUpsertBatchRows, len(rows))
		ins, upd, err := upsertChunk(ctx, tx, rows[start:end])
		if err != nil {
			return 0, 0, 0, err
		}
		totalInserted += ins
		totalUpdated += upd
	}
	return len(rows), totalInserted, totalUpdated, nil
}

func upsertChunk(ctx context.Context, q queryer, rows []domain.Business) (inserted int, updated int, err error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO businesses (")
	sb.WriteString(strings.Join(businessColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(businessColumns))
	for i, b := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		base := len(args)
		for j := range businessColumns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j+1)
		}
		sb.WriteString(")")
		args = append(args,
			b.ABN, b.ABNStatus, NullTime(b.ABNStatusFrom), b.EntityTypeCode, b.EntityTypeText,
			b.EntityName, NullString(b.GivenName), NullString(b.FamilyName), NullString(b.State), NullString(b.Postcode),
			NullString(b.GSTStatus), NullTime(b.GSTFromDate), NullString(b.ACN), NullTime(b.RecordLastUpdated),
		)
	}

	sb.WriteString(` ON CONFLICT (abn) DO UPDATE SET
		abn_status = EXCLUDED.abn_status,
		abn_status_from = EXCLUDED.abn_status_from,
		entity_type_code = EXCLUDED.entity_type_code,
		entity_type_text = EXCLUDED.entity_type_text,
		entity_name = EXCLUDED.entity_name,
		given_name = EXCLUDED.given_name,
		family_name = EXCLUDED.family_name,
		state = EXCLUDED.state,
		postcode = EXCLUDED.postcode,
		gst_status = EXCLUDED.gst_status,
		gst_from_date = EXCLUDED.gst_from_date,
		acn = EXCLUDED.acn,
		record_last_updated = EXCLUDED.record_last_updated
	RETURNING (xmax = 0) AS inserted`)

	rowsResult, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, 0, fmt.Errorf("postgres: upsert businesses: %w", err)
	}
	defer rowsResult.Close()

	for rowsResult.Next() {
		var wasInsert bool
		if err := rowsResult.Scan(&wasInsert); err != nil {
			return 0, 0, fmt.Errorf("postgres: scan upsert outcome: %w", err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, rowsResult.Err()
}

// BulkInsertNames is the standalone (non-transactional) entry point.
func (r *Repository) BulkInsertNames(ctx context.Context, names []domain.BusinessName) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return r.BulkInsertNamesTx(ctx, tx, names)
	})
}

// BulkInsertNamesTx appends business_names rows inside the caller's
// transaction, chunked to the parameter cap.
func (r *Repository) BulkInsertNamesTx(ctx context.Context, tx *sql.Tx, names []domain.BusinessName) error {
	if len(names) == 0 {
		return nil
	}

	for start := 0; start < len(names); start += maxNameBatchRows {
		end := min(start+maxNameBatchRows, len(names))
		if err := insertNamesChunk(ctx, tx, names[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertNamesChunk(ctx context.Context, q queryer, names []domain.BusinessName) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO business_names (business_id, name_type, name_text) VALUES ")

	args := make([]any, 0, len(names)*3)
	for i, n := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := len(args)
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", base+1, base+2, base+3)
		args = append(args, n.BusinessID, n.NameType, n.NameText)
	}

	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("postgres: insert business_names: %w", err)
	}
	return nil
}

// DeleteNamesByBusinessIDs is the standalone entry point.
func (r *Repository) DeleteNamesByBusinessIDs(ctx context.Context, businessIDs []int64) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return r.DeleteNamesByBusinessIDsTx(ctx, tx, businessIDs)
	})
}

// DeleteNamesByBusinessIDsTx removes names ahead of re-insertion,
// realizing the replace-on-re-ingest invariant inside the Batch
// Writer's transaction.
func (r *Repository) DeleteNamesByBusinessIDsTx(ctx context.Context, tx *sql.Tx, businessIDs []int64) error {
	if len(businessIDs) == 0 {
		return nil
	}
	ids := make([]any, len(businessIDs))
	for i, id := range businessIDs {
		ids[i] = id
	}
	query := fmt.Sprintf("DELETE FROM business_names WHERE business_id = ANY($1::bigint[])")
	if _, err := tx.ExecContext(ctx, query, pq.Array(businessIDs)); err != nil {
		return fmt.Errorf("postgres: delete business_names: %w", err)
	}
	return nil
}

// GetIDsByABNs is the standalone entry point for callers that don't
// hold a transaction; the Batch Writer uses GetIDsByABNsTx instead.
func (r *Repository) GetIDsByABNs(ctx context.Context, abns []string) (map[string]int64, error) {
	return getIDsByABNs(ctx, r.db.DB, abns)
}

// GetIDsByABNsTx is the Batch Writer's transactional entry point, used
// within the same transaction as the upsert that just produced them.
func (r *Repository) GetIDsByABNsTx(ctx context.Context, tx *sql.Tx, abns []string) (map[string]int64, error) {
	return getIDsByABNs(ctx, tx, abns)
}

func getIDsByABNs(ctx context.Context, q queryer, abns []string) (map[string]int64, error) {
	out := make(map[string]int64, len(abns))
	if len(abns) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx, "SELECT id, abn FROM businesses WHERE abn = ANY($1::varchar[])", pq.Array(abns))
	if err != nil {
		return nil, fmt.Errorf("postgres: get ids by abns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var abn string
		if err := rows.Scan(&id, &abn); err != nil {
			return nil, fmt.Errorf("postgres: scan id/abn: %w", err)
		}
		out[abn] = id
	}
	return out, rows.Err()
}

// FindByABN fetches a Business and its child names in two statements,
// per spec §4.2.3 ("no join"), and reports wall-clock query time.
func (r *Repository) FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error) {
	start := time.Now()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, abn, abn_status, abn_status_from, entity_type_code, entity_type_text,
		       entity_name, given_name, family_name, state, postcode,
		       gst_status, gst_from_date, acn, record_last_updated, created_at, updated_at
		FROM businesses WHERE abn = $1`, abn)

	b, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, 0, domain.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: find by abn: %w", err)
	}

	names, err := r.namesByBusinessID(ctx, b.ID)
	if err != nil {
		return nil, 0, err
	}
	b.BusinessNames = names

	return b, time.Since(start).Milliseconds(), nil
}

func (r *Repository) namesByBusinessID(ctx context.Context, businessID int64) ([]domain.BusinessName, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, business_id, name_type, name_text FROM business_names WHERE business_id = $1 ORDER BY id", businessID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find names: %w", err)
	}
	defer rows.Close()

	var names []domain.BusinessName
	for rows.Next() {
		var n domain.BusinessName
		if err := rows.Scan(&n.ID, &n.BusinessID, &n.NameType, &n.NameText); err != nil {
			return nil, fmt.Errorf("postgres: scan name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBusiness(row scannable) (*domain.Business, error) {
	var b domain.Business
	var abnStatusFrom, gstFromDate, recordLastUpdated sql.NullTime
	var entityTypeText, givenName, familyName, state, postcode, gstStatus, acn sql.NullString

	err := row.Scan(
		&b.ID, &b.ABN, &b.ABNStatus, &abnStatusFrom, &b.EntityTypeCode, &entityTypeText,
		&b.EntityName, &givenName, &familyName, &state, &postcode,
		&gstStatus, &gstFromDate, &acn, &recordLastUpdated, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ABNStatusFrom = TimePtr(abnStatusFrom)
	b.EntityTypeText = entityTypeText.String
	b.GivenName = StringPtr(givenName)
	b.FamilyName = StringPtr(familyName)
	b.State = StringPtr(state)
	b.Postcode = StringPtr(postcode)
	b.GSTStatus = StringPtr(gstStatus)
	b.GSTFromDate = TimePtr(gstFromDate)
	b.ACN = StringPtr(acn)
	b.RecordLastUpdated = TimePtr(recordLastUpdated)

	return &b, nil
}

// escapeILike escapes %, _ and \ so a raw search term is matched
// literally rather than as an ILIKE pattern, per spec §4.2.4.
func escapeILike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, "%", `\%`)
	term = strings.ReplaceAll(term, "_", `\_`)
	return term
}

// tsquery builds a conjunctive, prefix-matching tsquery string from a
// whitespace-split term: every token but the last is used verbatim,
// the last is suffixed with :* so partially typed words still match.
func tsquery(term string) string {
	tokens := strings.Fields(term)
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		sanitized := strings.Map(func(r rune) rune {
			if r == '&' || r == '|' || r == '!' || r == ':' || r == '(' || r == ')' {
				return -1
			}
			return r
		}, t)
		if i == len(tokens)-1 {
			sanitized += ":*"
		}
		tokens[i] = sanitized
	}
	return strings.Join(tokens, " & ")
}

// SearchNative is the unindexed ILIKE substring baseline.
func (r *Repository) SearchNative(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if blank(q.Term) {
		return r.FindWithFilters(ctx, q)
	}

	where, args := filterPredicates(q)
	where = append(where, fmt.Sprintf("entity_name ILIKE $%d", len(args)+1))
	args = append(args, "%"+escapeILike(q.Term)+"%")

	return r.paginate(ctx, where, args, q)
}

// SearchOptimized is the tsvector/GIN-backed path.
func (r *Repository) SearchOptimized(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if blank(q.Term) {
		return r.FindWithFilters(ctx, q)
	}

	tq := tsquery(q.Term)
	where, args := filterPredicates(q)
	where = append(where, fmt.Sprintf("search_tokens @@ to_tsquery('english', $%d)", len(args)+1))
	args = append(args, tq)

	return r.paginate(ctx, where, args, q)
}

// FindWithFilters serves both search paths when q.Term is blank, and
// is also the direct entry point for filter-only listings.
func (r *Repository) FindWithFilters(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	where, args := filterPredicates(q)
	return r.paginate(ctx, where, args, q)
}

func filterPredicates(q domain.SearchQuery) ([]string, []any) {
	var where []string
	var args []any

	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("state", q.State)
	add("postcode", q.Postcode)
	add("entity_type_code", q.EntityType)
	add("abn_status", q.ABNStatus)

	return where, args
}

// paginate implements the shared envelope of spec §4.2.6: a
// candidate set capped at maxCandidates, total/totalPages derived
// from that cap, and the requested page fetched in ascending
// entity_name order.
func (r *Repository) paginate(ctx context.Context, where []string, args []any, q domain.SearchQuery) (domain.SearchResult, error) {
	start := time.Now()

	page, limit := normalizePageLimit(q.Page, q.Limit)

	whereClause := "TRUE"
	if len(where) > 0 {
		whereClause = strings.Join(where, " AND ")
	}

	candidatesArg := len(args) + 1
	countQuery := fmt.Sprintf(`
		WITH candidates AS (
			SELECT 1 FROM businesses WHERE %s ORDER BY entity_name LIMIT $%d
		)
		SELECT count(*) FROM candidates`, whereClause, candidatesArg)

	var total int
	countArgs := append(append([]any{}, args...), r.maxCandidates)
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return domain.SearchResult{}, fmt.Errorf("postgres: count candidates: %w", err)
	}

	limitArg := len(args) + 1
	offsetArg := len(args) + 2
	pageQuery := fmt.Sprintf(`
		SELECT id, abn, abn_status, abn_status_from, entity_type_code, entity_type_text,
		       entity_name, given_name, family_name, state, postcode,
		       gst_status, gst_from_date, acn, record_last_updated, created_at, updated_at
		FROM businesses WHERE %s
		ORDER BY entity_name ASC
		LIMIT $%d OFFSET $%d`, whereClause, limitArg, offsetArg)

	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("postgres: fetch page: %w", err)
	}
	defer rows.Close()

	var data []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("postgres: scan search row: %w", err)
		}
		data = append(data, *b)
	}
	if err := rows.Err(); err != nil {
		return domain.SearchResult{}, err
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return domain.SearchResult{
		Data: data,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
		QueryTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func normalizePageLimit(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
