// Command searchsvc runs the bilingual Hindi article search API: it
// loads the corpus artifacts produced offline by C11, wires the
// retrieval pipeline's collaborators (C3-C8), and serves C9 over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/config"
	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
	"github.com/ashoka-samvaad/hindi-search/pkg/databases"
	"github.com/ashoka-samvaad/hindi-search/pkg/embedders"
	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
	"github.com/ashoka-samvaad/hindi-search/pkg/lexical"
	"github.com/ashoka-samvaad/hindi-search/pkg/logger"
	"github.com/ashoka-samvaad/hindi-search/pkg/server"
	"github.com/ashoka-samvaad/hindi-search/pkg/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("searchsvc exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFiles(); err != nil {
		return err
	}

	logger.Init(slog.LevelInfo, os.Stderr, getLogFormat())
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	articles, err := loadArticleTable(cfg)
	if err != nil {
		return err
	}
	chunkTexts, err := loadChunkTextTable(cfg)
	if err != nil {
		return err
	}
	gazetteer, err := corpus.LoadGazetteer(cfg.GazetteerPath)
	if err != nil {
		return errs.NewStartupError("gazetteer", "failed to load gazetteer", err)
	}

	lexClient := lexical.New(lexical.Config{
		Host: cfg.TypesenseHost, Port: cfg.TypesensePort,
		Protocol: cfg.TypesenseProtocol, APIKey: cfg.TypesenseAPIKey,
		Collection: cfg.TypesenseCollection,
	})

	semClient, err := databases.NewSemanticClient(databases.SemanticClientConfig{
		Host: cfg.QdrantHost, Port: cfg.QdrantPort,
		ArticleCollection: cfg.QdrantCollectionArticle, ChunkCollection: cfg.QdrantCollectionChunk,
	})
	if err != nil {
		return errs.NewStartupError("semantic_client", "failed to connect to qdrant", err)
	}

	embedder := embedders.NewHTTPEmbedder(embedders.HTTPConfig{
		Endpoint: cfg.EmbedderEndpoint, APIKey: cfg.EmbedderAPIKey,
		Dimension: cfg.EmbedderDimension, E5QueryPrefix: cfg.EmbedderE5Prefix,
	})

	dbCfg, err := config.ParseDatabaseURL(cfg.DatabaseURL)
	if err != nil {
		return errs.NewStartupError("config", "invalid DATABASE_URL", err)
	}
	pool := config.NewDBPool()
	db, err := pool.Get(dbCfg)
	if err != nil {
		return errs.NewStartupError("store", "failed to connect to feedback database", err)
	}
	feedbackStore, err := store.New(db, dbCfg.Dialect())
	if err != nil {
		return err
	}

	srv := server.New(lexClient, semClient, embedder, articles, chunkTexts, gazetteer, feedbackStore,
		server.Config{
			RankerVersion:     cfg.RankerVersion,
			RetrievalVersion:  cfg.RetrievalVersion,
			LexicalTopK:       cfg.LexicalTopK,
			SemArticleTopK:    cfg.SemArticleTopK,
			SemChunkTopK:      cfg.SemChunkTopK,
			CandidateCap:      cfg.CandidateCap,
			LogCandidatesTopN: cfg.LogCandidatesTopN,
		}, log)

	httpServer := &http.Server{
		Addr:    cfg.APIHost + ":" + strconv.Itoa(cfg.APIPort),
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("searchsvc listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return pool.Close()
}

func loadArticleTable(cfg *config.Config) (*corpus.ArticleTable, error) {
	src := &corpus.CSVArticleSource{Path: cfg.ArticleTablePath}
	articles, err := src.LoadArticles()
	if err != nil {
		return nil, errs.NewStartupError("corpus", "failed to load article table", err)
	}
	return corpus.NewArticleTable(articles), nil
}

func loadChunkTextTable(cfg *config.Config) (*corpus.ChunkTextTable, error) {
	src := &corpus.CSVChunkSource{Path: cfg.ChunkTablePath}
	chunks, err := src.LoadChunks()
	if err != nil {
		return nil, errs.NewStartupError("corpus", "failed to load chunk table", err)
	}
	return corpus.NewChunkTextTable(chunks), nil
}

func getLogFormat() string {
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		return v
	}
	return "text"
}
