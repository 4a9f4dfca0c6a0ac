package store

import (
	"context"
	"path/filepath"
	"testing"

	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewNilDB(t *testing.T) {
	_, err := New(nil, "sqlite")
	assert.Error(t, err)
}

func TestInsertQueryLogAssignsID(t *testing.T) {
	db := setupTestDB(t)
	s, err := New(db, "sqlite")
	require.NoError(t, err)

	id, err := s.InsertQueryLog(context.Background(), QueryLogEntry{
		QueryRaw:         "बिहार स्वास्थ्य",
		QueryMode:        "dev",
		QueryUsed:        "बिहार स्वास्थ्य",
		QuerySemantic:    "बिहार स्वास्थ्य",
		RankerVersion:    "v1",
		RetrievalVersion: "v1",
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
}

func TestInsertCandidateLogsProducesOneRowPerRankPerQuery(t *testing.T) {
	db := setupTestDB(t)
	s, err := New(db, "sqlite")
	require.NoError(t, err)

	queryID, err := s.InsertQueryLog(context.Background(), QueryLogEntry{
		QueryRaw: "bihar", QueryMode: "roman", QueryUsed: "bihar", QuerySemantic: "bihar",
		RankerVersion: "v1", RetrievalVersion: "v1",
	})
	require.NoError(t, err)

	err = s.InsertCandidateLogs(context.Background(), []CandidateLogEntry{
		{QueryID: queryID, Rank: 1, ArticleID: "a1", Score: 1.5, Categories: []string{}, Tags: []string{}, Location: []string{}, Contributors: []string{}, Features: map[string]any{"lex_n": 1.0}},
		{QueryID: queryID, Rank: 2, ArticleID: "a2", Score: 1.1, Categories: []string{}, Tags: []string{}, Location: []string{}, Contributors: []string{}, Features: map[string]any{"lex_n": 0.5}},
	})
	require.NoError(t, err)

	var count int
	var ranks []int
	rows, err := db.Query("SELECT rank FROM candidate_log WHERE query_id = ? ORDER BY rank", queryID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var r int
		require.NoError(t, rows.Scan(&r))
		ranks = append(ranks, r)
		count++
	}

	assert.Equal(t, 2, count)
	assert.Equal(t, []int{1, 2}, ranks)
}

func TestInsertCandidateLogsEmptyIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	s, err := New(db, "sqlite")
	require.NoError(t, err)

	err = s.InsertCandidateLogs(context.Background(), nil)
	assert.NoError(t, err)
}

func TestInsertLabelWithAndWithoutArticleID(t *testing.T) {
	db := setupTestDB(t)
	s, err := New(db, "sqlite")
	require.NoError(t, err)

	queryID, err := s.InsertQueryLog(context.Background(), QueryLogEntry{
		QueryRaw: "q", QueryMode: "roman", QueryUsed: "q", QuerySemantic: "q",
		RankerVersion: "v1", RetrievalVersion: "v1",
	})
	require.NoError(t, err)

	err = s.InsertLabel(context.Background(), LabelEntry{QueryID: queryID, ArticleID: "a42", Label: 1})
	require.NoError(t, err)

	err = s.InsertLabel(context.Background(), LabelEntry{QueryID: queryID, Label: 0, Note: "none of these"})
	require.NoError(t, err)

	var total int
	var nullArticleCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM labels WHERE query_id = ?", queryID).Scan(&total))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM labels WHERE query_id = ? AND article_id IS NULL", queryID).Scan(&nullArticleCount))

	assert.Equal(t, 2, total)
	assert.Equal(t, 1, nullArticleCount)
}
