// Package server implements C9: the search API. It orchestrates
// canonicalization, entity detection, the concurrent C5/C6 fan-out,
// merging, ranking, and feedback-store persistence behind a chi router,
// the way the teacher's pkg/a2a.Server wires a handful of REST-ish
// endpoints over a single mux.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
	"github.com/ashoka-samvaad/hindi-search/pkg/databases"
	"github.com/ashoka-samvaad/hindi-search/pkg/embedders"
	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
	"github.com/ashoka-samvaad/hindi-search/pkg/gazetteer"
	"github.com/ashoka-samvaad/hindi-search/pkg/lexical"
	"github.com/ashoka-samvaad/hindi-search/pkg/query"
	"github.com/ashoka-samvaad/hindi-search/pkg/rank"
	"github.com/ashoka-samvaad/hindi-search/pkg/retrieval"
	"github.com/ashoka-samvaad/hindi-search/pkg/store"
)

const maxSnippetChars = 420

// Config bundles the fixed, per-request-independent knobs the server
// needs from pkg/config.Config, kept separate so tests can build a
// Server without pulling in env parsing.
type Config struct {
	RankerVersion    string
	RetrievalVersion string

	LexicalTopK       int
	SemArticleTopK    int
	SemChunkTopK      int
	CandidateCap      int
	LogCandidatesTopN int
}

// LexicalSearcher is the subset of *lexical.Client the server needs,
// narrowed to an interface so handler tests can fake C5 without an HTTP
// collaborator.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, mode lexical.Mode, topK int, filterBy string) ([]lexical.Hit, error)
}

// SemanticSearcher is the subset of *databases.SemanticClient the server
// needs, narrowed to an interface so handler tests can fake C6 without a
// qdrant collaborator.
type SemanticSearcher interface {
	SearchArticles(ctx context.Context, queryVector []float32, topK int) ([]databases.ArticleHit, error)
	SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]databases.ChunkHit, error)
}

// Server wires the search pipeline's collaborators (C3-C8) plus the
// feedback store (C10) behind the HTTP surface (C9, spec §4.9).
type Server struct {
	Lexical    LexicalSearcher
	Semantic   SemanticSearcher
	Embedder   embedders.Provider
	Articles   *corpus.ArticleTable
	ChunkTexts *corpus.ChunkTextTable
	Gazetteer  corpus.Gazetteer
	Store      *store.Store
	Config     Config

	logger *slog.Logger
}

// New builds a Server. logger defaults to slog.Default() if nil.
func New(lex LexicalSearcher, sem SemanticSearcher, embedder embedders.Provider,
	articles *corpus.ArticleTable, chunkTexts *corpus.ChunkTextTable, gz corpus.Gazetteer,
	st *store.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Lexical: lex, Semantic: sem, Embedder: embedder,
		Articles: articles, ChunkTexts: chunkTexts, Gazetteer: gz,
		Store: st, Config: cfg, logger: logger,
	}
}

// Router builds the chi router mounting all endpoints (spec §4.9).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/search", s.handleSearch)
	r.Post("/label", s.handleLabel)
	r.Post("/label_query", s.handleLabelQuery)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	return r
}

// loggingMiddleware logs each request's method, route, status, and
// duration, tagging it with a correlation id so a request's lexical,
// semantic, and store calls can be traced through the logs together.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		r = r.WithContext(ctx)

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.logger.Info("http_request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// logError logs a request-scoped failure tagged with its correlation id,
// so a single request's embed/fanout/persist failure can be traced back
// through the logs even though the HTTP response only carries a generic
// message (spec §7: error details are logged, never serialized).
func (s *Server) logError(ctx context.Context, op string, err error) {
	s.logger.Error("search_pipeline_error", "request_id", requestID(ctx), "op", op, "err", err)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// searchRequest is the POST /search body (spec §4.9).
type searchRequest struct {
	Query    string `json:"query"`
	FilterBy string `json:"filter_by"`
	PerPage  int    `json:"per_page"`
	Explain  bool   `json:"explain"`
}

type searchHit struct {
	Rank            int                 `json:"rank"`
	ID              string              `json:"id"`
	Title           string              `json:"title,omitempty"`
	Date            string              `json:"date,omitempty"`
	Summary         string              `json:"summary,omitempty"`
	URL             string              `json:"url,omitempty"`
	PrimaryCategory string              `json:"primary_category,omitempty"`
	Categories      []string            `json:"categories"`
	Tags            []string            `json:"tags"`
	Location        []string            `json:"location"`
	PartnerLabel    string              `json:"partner_label,omitempty"`
	Contributors    []string            `json:"contributors"`
	Score           float64             `json:"score"`
	Snippet         *string             `json:"snippet,omitempty"`
	Features        *rank.Features      `json:"features,omitempty"`
	Explanation     []rank.Explanation  `json:"explanation,omitempty"`
}

type searchResponseMeta struct {
	FilterByResolved string `json:"filter_by_resolved"`
}

type searchResponse struct {
	QueryID       int64               `json:"query_id"`
	Mode          string              `json:"mode"`
	QueryUsed     string              `json:"query_used"`
	QuerySemantic string              `json:"query_semantic"`
	Results       []searchHit         `json:"results"`
	Meta          *searchResponseMeta `json:"meta,omitempty"`
}

// handleSearch implements POST /search end to end (spec §4.9 steps 1-6).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewBadRequest("search", "malformed request body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, errs.NewBadRequest("search", "query must not be empty"))
		return
	}
	if req.PerPage <= 0 {
		req.PerPage = 10
	}

	canonical := query.Canonicalize(req.Query)
	detection := gazetteer.Detect(canonical.Q, string(canonical.Mode), canonical.RomanNorm, s.Gazetteer)
	filterBy := gazetteer.MergeFilter(req.FilterBy, detection.FilterByAuto)

	ctx := r.Context()
	queryVector, err := s.Embedder.Embed(ctx, canonical.Raw)
	if err != nil {
		s.logError(ctx, "embed", err)
		writeError(w, errs.NewRetrievalError("embedder", "embed", canonical.Raw, err))
		return
	}

	result, err := retrieval.FanOut(ctx,
		func(ctx context.Context) ([]lexical.Hit, error) {
			return s.Lexical.Search(ctx, canonical.Q, lexical.Mode(canonical.Mode), s.Config.LexicalTopK, filterBy)
		},
		func(ctx context.Context) ([]databases.ArticleHit, error) {
			return s.Semantic.SearchArticles(ctx, queryVector, s.Config.SemArticleTopK)
		},
		func(ctx context.Context) ([]databases.ChunkHit, error) {
			return s.Semantic.SearchChunks(ctx, queryVector, s.Config.SemChunkTopK)
		},
	)
	if err != nil {
		s.logError(ctx, "fanout", err)
		writeError(w, errs.NewRetrievalError("fanout", "search", canonical.Raw, err))
		return
	}

	candidates := retrieval.Merge(result, s.Articles, s.Config.CandidateCap)
	ranked := rank.Rank(candidates, rank.Tokenize(canonical.Q), time.Now())

	queryID, err := s.persist(ctx, canonical, filterBy, ranked)
	if err != nil {
		s.logError(ctx, "persist", err)
		writeError(w, err)
		return
	}

	resp := searchResponse{
		QueryID:       queryID,
		Mode:          string(canonical.Mode),
		QueryUsed:     canonical.Q,
		QuerySemantic: canonical.Raw,
	}

	perPage := req.PerPage
	if perPage > len(ranked) {
		perPage = len(ranked)
	}
	for _, rk := range ranked[:perPage] {
		resp.Results = append(resp.Results, s.toSearchHit(rk, req.Explain))
	}
	if req.Explain {
		resp.Meta = &searchResponseMeta{FilterByResolved: filterBy}
	}

	writeJSON(w, http.StatusOK, resp)
}

// persist implements spec §4.9 step 4: insert the query row first, then
// the candidate rows in the same logical operation ("log-then-return").
// A StorageError here must suppress the response entirely, so the
// caller never returns results alongside a failed write.
func (s *Server) persist(ctx context.Context, canonical query.Canonical, filterBy string, ranked []*rank.Ranked) (int64, error) {
	queryID, err := s.Store.InsertQueryLog(ctx, store.QueryLogEntry{
		QueryRaw:         canonical.Raw,
		QueryMode:        string(canonical.Mode),
		QueryUsed:        canonical.Q,
		QuerySemantic:    canonical.Raw,
		FilterByAuto:     filterBy,
		RankerVersion:    s.Config.RankerVersion,
		RetrievalVersion: s.Config.RetrievalVersion,
	})
	if err != nil {
		return 0, errs.NewStorageError("insert_query_log", err)
	}

	topN := s.Config.LogCandidatesTopN
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	entries := make([]store.CandidateLogEntry, 0, topN)
	for _, rk := range ranked[:topN] {
		entries = append(entries, candidateLogEntry(queryID, rk))
	}
	if err := s.Store.InsertCandidateLogs(ctx, entries); err != nil {
		return 0, errs.NewStorageError("insert_candidate_log", err)
	}

	return queryID, nil
}

func candidateLogEntry(queryID int64, rk *rank.Ranked) store.CandidateLogEntry {
	e := store.CandidateLogEntry{
		QueryID:   queryID,
		Rank:      rk.Rank,
		ArticleID: rk.ArticleID,
		Score:     rk.Score,
		Features:  featuresMap(rk.Features),
	}
	for _, ex := range rk.Explanation {
		e.Explanation = append(e.Explanation, map[string]any{
			"component":    ex.Component,
			"contribution": ex.Contribution,
		})
	}

	a := rk.Article
	if a == nil {
		return e
	}
	e.URL = a.URL
	e.Title = a.TitleHi
	e.PublishedDate = a.PublishedDate
	e.Summary = a.SummaryHi
	e.PrimaryCategory = a.PrimaryCategory
	e.Categories = a.Categories
	e.Tags = a.Tags
	e.Location = a.Locations
	e.PartnerLabel = a.PartnerLabel
	e.Contributors = a.Contributors
	return e
}

func featuresMap(f rank.Features) map[string]any {
	return map[string]any{
		"lex_n":         f.LexNorm,
		"sem_article_n": f.SemArticleN,
		"sem_chunk_n":   f.SemChunkN,
		"tag_feat":      f.TagFeat,
		"cat_feat":      f.CatFeat,
		"loc_feat":      f.LocFeat,
		"contrib_feat":  f.ContribFeat,
		"recency":       f.Recency,
	}
}

func (s *Server) toSearchHit(rk *rank.Ranked, explain bool) searchHit {
	hit := searchHit{
		Rank:         rk.Rank,
		ID:           rk.ArticleID,
		Score:        rk.Score,
		Categories:   []string{},
		Tags:         []string{},
		Location:     []string{},
		Contributors: []string{},
	}

	a := rk.Article
	if a != nil {
		hit.Title = a.TitleHi
		hit.Date = a.PublishedDate
		hit.Summary = a.SummaryHi
		hit.URL = a.URL
		hit.PrimaryCategory = a.PrimaryCategory
		hit.PartnerLabel = a.PartnerLabel
		if a.Categories != nil {
			hit.Categories = a.Categories
		}
		if a.Tags != nil {
			hit.Tags = a.Tags
		}
		if a.Locations != nil {
			hit.Location = a.Locations
		}
		if a.Contributors != nil {
			hit.Contributors = a.Contributors
		}
	}

	if snippet := s.buildSnippet(rk.BestChunkID, a); snippet != "" {
		hit.Snippet = &snippet
	}

	if explain {
		features := rk.Features
		hit.Features = &features
		hit.Explanation = rk.Explanation
	}

	return hit
}

// buildSnippet implements spec §4.9 step 5 plus the summary_hi fallback
// (SPEC_FULL.md §D): prefer best_chunk_id's text, falling back to the
// article's summary when the chunk doesn't resolve (a stale chunk
// corpus relative to the vector index) rather than omitting it.
func (s *Server) buildSnippet(chunkID string, a *corpus.Article) string {
	var text string
	if chunkID != "" {
		if chunk, ok := s.ChunkTexts.Get(chunkID); ok {
			text = chunk.ChunkText
		}
	}
	if text == "" && a != nil {
		text = a.SummaryHi
	}
	if text == "" {
		return ""
	}
	return truncateSnippet(text)
}

func truncateSnippet(text string) string {
	flattened := strings.ReplaceAll(text, "\n", " ")
	collapsed := strings.Join(strings.Fields(flattened), " ")
	runes := []rune(collapsed)
	if len(runes) > maxSnippetChars {
		runes = runes[:maxSnippetChars]
	}
	return string(runes)
}

type labelRequest struct {
	QueryID   int64  `json:"query_id"`
	ArticleID string `json:"article_id"`
	Label     int    `json:"label"`
	Note      string `json:"note"`
}

// handleLabel implements POST /label (spec §4.9): article_id is required
// here, label must be 0 or 1.
func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	var req labelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewBadRequest("label", "malformed request body"))
		return
	}
	if req.ArticleID == "" {
		writeError(w, errs.NewBadRequest("label", "article_id is required"))
		return
	}
	if req.Label != 0 && req.Label != 1 {
		writeError(w, errs.NewBadRequest("label", "label must be 0 or 1"))
		return
	}

	if err := s.Store.InsertLabel(r.Context(), store.LabelEntry{
		QueryID: req.QueryID, ArticleID: req.ArticleID, Label: req.Label, Note: req.Note,
	}); err != nil {
		writeError(w, errs.NewStorageError("insert_label", err))
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type labelQueryRequest struct {
	QueryID int64  `json:"query_id"`
	Label   int    `json:"label"`
	Note    string `json:"note"`
}

// handleLabelQuery implements POST /label_query (spec §4.9): only
// label=0 ("nothing relevant") is accepted, article_id is always null.
func (s *Server) handleLabelQuery(w http.ResponseWriter, r *http.Request) {
	var req labelQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewBadRequest("label_query", "malformed request body"))
		return
	}
	if req.Label != 0 {
		writeError(w, errs.NewBadRequest("label_query", "label must be 0"))
		return
	}

	if err := s.Store.InsertLabel(r.Context(), store.LabelEntry{
		QueryID: req.QueryID, Label: req.Label, Note: req.Note,
	}); err != nil {
		writeError(w, errs.NewStorageError("insert_label", err))
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type okResponse struct {
	OK bool `json:"ok"`
}

type healthResponse struct {
	OK               bool   `json:"ok"`
	RankerVersion    string `json:"ranker_version"`
	RetrievalVersion string `json:"retrieval_version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:               true,
		RankerVersion:    s.Config.RankerVersion,
		RetrievalVersion: s.Config.RetrievalVersion,
	})
}

type statsResponse struct {
	Articles       int            `json:"articles"`
	Chunks         int            `json:"chunks"`
	GazetteerCount map[string]int `json:"gazetteer_fields"`
}

// handleStats implements the additive GET /stats endpoint (SPEC_FULL.md
// §D): in-memory corpus size, for operational visibility.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	fieldCounts := make(map[string]int, len(s.Gazetteer))
	for field, vocab := range s.Gazetteer {
		fieldCounts[field] = len(vocab.Values)
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Articles:       s.Articles.Len(),
		Chunks:         s.ChunkTexts.Len(),
		GazetteerCount: fieldCounts,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a domain error kind to its HTTP status (spec §7):
// BadRequest->400, RetrievalError->502, StorageError->500.
func writeError(w http.ResponseWriter, err error) {
	var badRequest *errs.BadRequest
	var retrievalErr *errs.RetrievalError
	var storageErr *errs.StorageError

	switch {
	case errors.As(err, &badRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: badRequest.Message})
	case errors.As(err, &retrievalErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "retrieval failed"})
	case errors.As(err, &storageErr):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "storage failed"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

type errorBody struct {
	Error string `json:"error"`
}
