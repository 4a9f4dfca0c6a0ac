package retrieval

import (
	"sort"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
)

// Candidate is one article-granularity candidate after the merge (spec
// §4.7), carrying the max-aggregated raw signal per source plus an
// article metadata snapshot for downstream ranking/logging.
type Candidate struct {
	ArticleID string
	Article   *corpus.Article

	LexicalScore float64
	SemArticle   float32
	SemChunk     float32
	BestChunkID  string

	SrcLexical    bool
	SrcSemArticle bool
	SrcSemChunk   bool
}

// rawSum is the pre-sort key used to cap candidates before ranking (spec
// §4.7: "Pre-sort by lexical + sem_chunk + sem_article (raw)").
func (c *Candidate) rawSum() float64 {
	return c.LexicalScore + float64(c.SemChunk) + float64(c.SemArticle)
}

// Merge unions the three fan-out result sets keyed by article_id,
// max-aggregating each signal, then caps the result at candidateCap
// ordered by the raw signal sum (spec §4.7).
func Merge(result FanOutResult, articles *corpus.ArticleTable, candidateCap int) []*Candidate {
	byArticle := make(map[string]*Candidate)

	get := func(id string) *Candidate {
		c, ok := byArticle[id]
		if !ok {
			c = &Candidate{ArticleID: id}
			if a, found := articles.Get(id); found {
				c.Article = a
			}
			byArticle[id] = c
		}
		return c
	}

	for _, h := range result.LexicalHits {
		c := get(h.ArticleID)
		c.SrcLexical = true
		if h.LexicalScore > c.LexicalScore {
			c.LexicalScore = h.LexicalScore
		}
	}

	for _, h := range result.ArticleHits {
		c := get(h.ArticleID)
		c.SrcSemArticle = true
		if h.Score > c.SemArticle {
			c.SemArticle = h.Score
		}
	}

	for _, h := range result.ChunkHits {
		c := get(h.ArticleID)
		c.SrcSemChunk = true
		if h.Score > c.SemChunk {
			c.SemChunk = h.Score
			c.BestChunkID = h.ChunkID
		}
	}

	// Map iteration order is randomized per process run, so candidates
	// must enter the stable sort in a fixed order or tied rawSum()
	// candidates would rank differently across runs (spec §8: "Ranker is
	// deterministic given fixed inputs"). Sorting by ArticleID first
	// gives SliceStable a deterministic starting order to preserve.
	ids := make([]string, 0, len(byArticle))
	for id := range byArticle {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidates := make([]*Candidate, 0, len(ids))
	for _, id := range ids {
		candidates = append(candidates, byArticle[id])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rawSum() > candidates[j].rawSum()
	})

	if len(candidates) > candidateCap {
		candidates = candidates[:candidateCap]
	}
	return candidates
}
