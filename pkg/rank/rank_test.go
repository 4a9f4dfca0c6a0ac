package rank

import (
	"testing"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
	"github.com/ashoka-samvaad/hindi-search/pkg/retrieval"
)

func TestRankDevanagariRecencyBoosted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	recent := now.Add(-30 * 24 * time.Hour).Unix()
	old := now.Add(-1200 * 24 * time.Hour).Unix()

	candidates := []*retrieval.Candidate{
		{ArticleID: "a", LexicalScore: 3.0, SemChunk: 0.7, Article: &corpus.Article{ID: "a", PublishedTS: recent}},
		{ArticleID: "b", LexicalScore: 3.0, SemChunk: 0.7, Article: &corpus.Article{ID: "b", PublishedTS: old}},
	}

	ranked := Rank(candidates, nil, now)
	byID := map[string]*Ranked{}
	for _, r := range ranked {
		byID[r.ArticleID] = r
	}

	if byID["a"].Rank != 1 || byID["b"].Rank != 2 {
		t.Fatalf("expected a ranked above b, got a=%d b=%d", byID["a"].Rank, byID["b"].Rank)
	}
	if byID["b"].Features.Recency != 0 {
		t.Errorf("expected b's recency to be 0 at age 1200d, got %v", byID["b"].Features.Recency)
	}
	if byID["a"].Features.Recency <= 0 {
		t.Errorf("expected a's recency > 0 at age 30d, got %v", byID["a"].Features.Recency)
	}
}

func TestRankSemanticOnlySinglePointNormalizesToZero(t *testing.T) {
	candidates := []*retrieval.Candidate{
		{ArticleID: "a42", SemChunk: 0.83, BestChunkID: "c17", Article: &corpus.Article{ID: "a42"}},
	}

	ranked := Rank(candidates, nil, time.Unix(1_700_000_000, 0))
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked hit, got %d", len(ranked))
	}
	r := ranked[0]
	if r.Rank != 1 {
		t.Errorf("expected rank 1, got %d", r.Rank)
	}
	if r.Features.LexNorm != 0 || r.Features.SemChunkN != 0 || r.Features.SemArticleN != 0 {
		t.Errorf("expected single-point min-max to normalize to 0, got %+v", r.Features)
	}
}

func TestRankScoreWithinBounds(t *testing.T) {
	candidates := []*retrieval.Candidate{
		{ArticleID: "a", LexicalScore: 10, SemChunk: 1, SemArticle: 1,
			Article: &corpus.Article{
				ID: "a", PublishedTS: time.Now().Unix(),
				TagsNorm: []string{"health"}, CategoriesNorm: []string{"health"},
				LocationsNorm: []string{"bihar"}, ContributorsNorm: []string{"jane doe"},
			}},
		{ArticleID: "b", LexicalScore: 0, SemChunk: 0, SemArticle: 0, Article: &corpus.Article{ID: "b"}},
	}

	ranked := Rank(candidates, []string{"health", "bihar", "jane", "doe"}, time.Now())
	for _, r := range ranked {
		if r.Score < 0 || r.Score > 2.09+1e-9 {
			t.Errorf("score %v out of bounds for %s", r.Score, r.ArticleID)
		}
	}
	if ranked[0].ArticleID != "a" {
		t.Errorf("expected a to outrank b, got order %+v", ranked)
	}
}

func TestRankExplanationTopFour(t *testing.T) {
	candidates := []*retrieval.Candidate{
		{ArticleID: "a", LexicalScore: 10, SemChunk: 1, SemArticle: 1,
			Article: &corpus.Article{
				ID: "a", PublishedTS: time.Now().Unix(),
				TagsNorm: []string{"health"}, CategoriesNorm: []string{"health"},
				LocationsNorm: []string{"bihar"}, ContributorsNorm: []string{"jane doe"},
			}},
	}

	ranked := Rank(candidates, []string{"health", "bihar", "jane", "doe"}, time.Now())
	if len(ranked[0].Explanation) != 4 {
		t.Fatalf("expected top-4 explanation, got %d entries", len(ranked[0].Explanation))
	}
	for i := 1; i < len(ranked[0].Explanation); i++ {
		if ranked[0].Explanation[i].Contribution > ranked[0].Explanation[i-1].Contribution {
			t.Errorf("explanation not sorted descending: %+v", ranked[0].Explanation)
		}
	}
}

func TestRankDenseRanksAndStableTieBreak(t *testing.T) {
	candidates := []*retrieval.Candidate{
		{ArticleID: "first", Article: &corpus.Article{ID: "first"}},
		{ArticleID: "second", Article: &corpus.Article{ID: "second"}},
		{ArticleID: "third", Article: &corpus.Article{ID: "third"}},
	}

	ranked := Rank(candidates, nil, time.Unix(1_700_000_000, 0))
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Fatalf("expected dense rank %d at position %d, got %d", i+1, i, r.Rank)
		}
	}
	if ranked[0].ArticleID != "first" || ranked[1].ArticleID != "second" || ranked[2].ArticleID != "third" {
		t.Errorf("expected input order preserved on full tie, got %+v", ranked)
	}
}

func TestTokenizeLowercasesAndFiltersShortTokens(t *testing.T) {
	tokens := Tokenize("Bihar a ASHA-workers")
	want := []string{"bihar", "asha", "workers"}
	if len(tokens) != len(want) {
		t.Fatalf("Tokenize(...) = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}
