// Package retrieval implements C7: the candidate merger, plus the
// concurrent C5∥C6 fan-out orchestration that feeds it (spec §5). The
// teacher's generic ParallelSearch[T,R] (goroutines + sync.WaitGroup +
// panic recovery) fanned out over an arbitrary slice of named targets;
// here the fan-out is always exactly three fixed calls — lexical,
// article-vector, chunk-vector — so it is expressed directly with
// golang.org/x/sync/errgroup, which gives the same cancel-on-first-error
// join with less bookkeeping for a fixed arity.
package retrieval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ashoka-samvaad/hindi-search/pkg/databases"
	"github.com/ashoka-samvaad/hindi-search/pkg/lexical"
)

// LexicalSearchFunc issues the lexical query (C5).
type LexicalSearchFunc func(ctx context.Context) ([]lexical.Hit, error)

// ArticleVectorSearchFunc issues the article-vector query (C6, article leg).
type ArticleVectorSearchFunc func(ctx context.Context) ([]databases.ArticleHit, error)

// ChunkVectorSearchFunc issues the chunk-vector query (C6, chunk leg).
type ChunkVectorSearchFunc func(ctx context.Context) ([]databases.ChunkHit, error)

// FanOutResult holds the joined results of the three concurrent calls.
type FanOutResult struct {
	LexicalHits []lexical.Hit
	ArticleHits []databases.ArticleHit
	ChunkHits   []databases.ChunkHit
}

// FanOut runs the lexical and two semantic searches concurrently and
// joins them. If any call fails, the group's context is canceled and the
// first error is returned; per spec §4.9 step 2, the caller must then
// return 5xx and write no query row.
func FanOut(ctx context.Context, lex LexicalSearchFunc, semArticle ArticleVectorSearchFunc, semChunk ChunkVectorSearchFunc) (FanOutResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	var result FanOutResult

	g.Go(func() error {
		hits, err := lex(gctx)
		if err != nil {
			return err
		}
		result.LexicalHits = hits
		return nil
	})

	g.Go(func() error {
		hits, err := semArticle(gctx)
		if err != nil {
			return err
		}
		result.ArticleHits = hits
		return nil
	})

	g.Go(func() error {
		hits, err := semChunk(gctx)
		if err != nil {
			return err
		}
		result.ChunkHits = hits
		return nil
	})

	if err := g.Wait(); err != nil {
		return FanOutResult{}, err
	}
	return result, nil
}
