// Package store implements C10, the feedback store: the query log,
// candidate log, and label tables a search response is persisted into
// for later learning-to-rank work. It is grounded on the teacher's
// dialect-switching SQL store (ratelimit.SQLStore): one *sql.DB, a
// dialect tag, and placeholder strings chosen per dialect since
// database/sql does not abstract bind-parameter syntax.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
)

const (
	createQueryLogTableSQL = `
CREATE TABLE IF NOT EXISTS query_log (
    id %s,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    query_raw TEXT NOT NULL,
    query_mode TEXT NOT NULL,
    query_used TEXT NOT NULL,
    query_semantic TEXT NOT NULL,
    filters TEXT,
    ranker_version TEXT NOT NULL,
    retrieval_version TEXT NOT NULL,
    meta TEXT
);`

	createCandidateLogTableSQL = `
CREATE TABLE IF NOT EXISTS candidate_log (
    id %s,
    query_id BIGINT NOT NULL,
    rank INTEGER NOT NULL,
    article_id TEXT NOT NULL,
    url TEXT,
    title TEXT,
    published_date TEXT,
    summary TEXT,
    primary_category TEXT,
    categories TEXT NOT NULL,
    tags TEXT NOT NULL,
    location TEXT NOT NULL,
    partner_label TEXT,
    contributors TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    features TEXT NOT NULL,
    explanation TEXT,
    FOREIGN KEY (query_id) REFERENCES query_log(id) ON DELETE CASCADE
);`

	createCandidateLogQueryIDIndexSQL   = `CREATE INDEX IF NOT EXISTS idx_candidate_log_query_id ON candidate_log(query_id);`
	createCandidateLogArticleIDIndexSQL = `CREATE INDEX IF NOT EXISTS idx_candidate_log_article_id ON candidate_log(article_id);`

	createLabelsTableSQL = `
CREATE TABLE IF NOT EXISTS labels (
    id %s,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    query_id BIGINT NOT NULL,
    article_id TEXT,
    label INTEGER NOT NULL,
    note TEXT,
    FOREIGN KEY (query_id) REFERENCES query_log(id) ON DELETE CASCADE
);`

	createLabelsQueryIDIndexSQL = `CREATE INDEX IF NOT EXISTS idx_labels_query_id ON labels(query_id);`
)

// autoIncrementClause returns the dialect-specific primary-key column
// definition. candidate_log and labels declare a real
// `FOREIGN KEY (query_id) REFERENCES query_log(id) ON DELETE CASCADE`
// (spec §4.10) — postgres and mysql enforce it unconditionally; sqlite
// requires `PRAGMA foreign_keys=ON` per connection, which pkg/config's
// DBPool sets right after opening (see dbpool.go).
func autoIncrementClause(dialect string) string {
	switch dialect {
	case "postgres":
		return "BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// Store persists query_log, candidate_log, and labels rows (spec §4.10).
type Store struct {
	db      *sql.DB
	dialect string
}

// New wraps db, creating the three tables (and their indexes) if they
// do not already exist.
func New(db *sql.DB, dialect string) (*Store, error) {
	if db == nil {
		return nil, errs.NewStartupError("store", "database connection is required", nil)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, errs.NewStartupError("store", "failed to initialize schema", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pk := autoIncrementClause(s.dialect)
	statements := []string{
		fmt.Sprintf(createQueryLogTableSQL, pk),
		fmt.Sprintf(createCandidateLogTableSQL, pk),
		createCandidateLogQueryIDIndexSQL,
		createCandidateLogArticleIDIndexSQL,
		fmt.Sprintf(createLabelsTableSQL, pk),
		createLabelsQueryIDIndexSQL,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// placeholder returns the dialect's bind-parameter marker for position n
// (1-based), matching the teacher's per-dialect query construction.
func (s *Store) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QueryLogEntry is one row to insert into query_log (spec §4.10).
type QueryLogEntry struct {
	QueryRaw         string
	QueryMode        string
	QueryUsed        string
	QuerySemantic    string
	FilterByAuto     string
	RankerVersion    string
	RetrievalVersion string
	Meta             map[string]any
}

// InsertQueryLog inserts the query row and returns its generated id.
// Callers must insert this row, and only this row, before any
// candidate_log rows exist for the query (spec §4.9 step 4: "insert the
// query row first, get query_id, then insert candidates").
func (s *Store) InsertQueryLog(ctx context.Context, e QueryLogEntry) (int64, error) {
	var filters, meta any
	if e.FilterByAuto != "" {
		filters = jsonString(map[string]string{"filter_by_auto": e.FilterByAuto})
	}
	if len(e.Meta) > 0 {
		b, err := json.Marshal(e.Meta)
		if err != nil {
			return 0, errs.NewStorageError("insert_query_log", err)
		}
		meta = string(b)
	}

	query := fmt.Sprintf(
		`INSERT INTO query_log (query_raw, query_mode, query_used, query_semantic, filters, ranker_version, retrieval_version, meta)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
		s.placeholder(5), s.placeholder(6), s.placeholder(7), s.placeholder(8),
	)
	args := []any{e.QueryRaw, e.QueryMode, e.QueryUsed, e.QuerySemantic, filters, e.RankerVersion, e.RetrievalVersion, meta}

	return s.insertReturningID(ctx, query, args, "insert_query_log")
}

// CandidateLogEntry is one row to insert into candidate_log (spec §4.10).
type CandidateLogEntry struct {
	QueryID         int64
	Rank            int
	ArticleID       string
	URL             string
	Title           string
	PublishedDate   string
	Summary         string
	PrimaryCategory string
	Categories      []string
	Tags            []string
	Location        []string
	PartnerLabel    string
	Contributors    []string
	Score           float64
	Features        map[string]any
	Explanation     []map[string]any
}

// InsertCandidateLogs inserts all entries as a single transaction (spec
// §4.9 step 4: "candidate inserts are a single transaction that may
// batch"). All rows share the same query_id and get dense ranks 1..N by
// caller convention.
func (s *Store) InsertCandidateLogs(ctx context.Context, entries []CandidateLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.NewStorageError("insert_candidate_logs", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`INSERT INTO candidate_log (query_id, rank, article_id, url, title, published_date, summary, primary_category, categories, tags, location, partner_label, contributors, score, features, explanation)
		 VALUES (%s)`,
		placeholderList(s, 16),
	)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errs.NewStorageError("insert_candidate_logs", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var explanation any
		if len(e.Explanation) > 0 {
			b, err := json.Marshal(e.Explanation)
			if err != nil {
				return errs.NewStorageError("insert_candidate_logs", err)
			}
			explanation = string(b)
		}

		_, err := stmt.ExecContext(ctx,
			e.QueryID, e.Rank, e.ArticleID, nullableString(e.URL), nullableString(e.Title),
			nullableString(e.PublishedDate), nullableString(e.Summary), nullableString(e.PrimaryCategory),
			jsonString(e.Categories), jsonString(e.Tags), jsonString(e.Location), nullableString(e.PartnerLabel),
			jsonString(e.Contributors), e.Score, jsonString(e.Features), explanation,
		)
		if err != nil {
			return errs.NewStorageError("insert_candidate_logs", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.NewStorageError("insert_candidate_logs", err)
	}
	return nil
}

// LabelEntry is one row to insert into labels (spec §4.9, §4.10).
type LabelEntry struct {
	QueryID   int64
	ArticleID string // empty means NULL (label_query rows)
	Label     int
	Note      string
}

// InsertLabel inserts a single label row.
func (s *Store) InsertLabel(ctx context.Context, e LabelEntry) error {
	query := fmt.Sprintf(
		`INSERT INTO labels (query_id, article_id, label, note) VALUES (%s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
	)

	_, err := s.db.ExecContext(ctx, query, e.QueryID, nullableString(e.ArticleID), e.Label, nullableString(e.Note))
	if err != nil {
		return errs.NewStorageError("insert_label", err)
	}
	return nil
}

// insertReturningID inserts a row and returns its generated id, using
// Postgres's RETURNING clause where supported and LastInsertId
// elsewhere, mirroring the teacher's per-dialect split for statements
// that need the generated key back.
func (s *Store) insertReturningID(ctx context.Context, query string, args []any, op string) (int64, error) {
	if s.dialect == "postgres" {
		var id int64
		row := s.db.QueryRowContext(ctx, query+" RETURNING id", args...)
		if err := row.Scan(&id); err != nil {
			return 0, errs.NewStorageError(op, err)
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errs.NewStorageError(op, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errs.NewStorageError(op, err)
	}
	return id, nil
}

func placeholderList(s *Store, n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += s.placeholder(i)
	}
	return out
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// jsonString marshals v into its JSON text form for storage in a text
// column; kept generic enough to carry struct-free slices/maps without
// forcing callers to pre-serialize (spec §9: "keep structural fields as
// JSON for training-time flexibility").
func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
