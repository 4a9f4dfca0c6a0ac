// Package rank implements C8, the hand-weighted ranker v1: per-signal
// min-max normalization, metadata-overlap and recency features, a fixed
// linear weight sum, a top-4 explanation trace, and a stable dense-ranked
// sort. There is no learned component; a future ranker generation would
// live alongside this one, distinguished by ranker_version in the query
// log (spec §4.8, §7 non-goals: "learned ranking").
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
	"github.com/ashoka-samvaad/hindi-search/pkg/retrieval"
)

// Weights are the fixed linear-fusion coefficients (spec §4.8). Their
// sum, 2.09, is the theoretical score ceiling.
type Weights struct {
	Lexical      float64
	SemChunk     float64
	SemArticle   float64
	Tag          float64
	Category     float64
	Location     float64
	Contributor  float64
	Recency      float64
}

// DefaultWeights is ranker v1's fixed weight vector.
var DefaultWeights = Weights{
	Lexical:     1.00,
	SemChunk:    0.40,
	SemArticle:  0.18,
	Tag:         0.12,
	Category:    0.10,
	Location:    0.15,
	Contributor: 0.06,
	Recency:     0.08,
}

const recencyHorizonDays = 1095 // ~3 years

// Explanation is one (component, contribution) pair in a hit's top-4 trace.
type Explanation struct {
	Component    string  `json:"component"`
	Contribution float64 `json:"contribution"`
}

// Features is the full per-candidate feature vector, logged alongside
// the explanation trace for future learning-to-rank work.
type Features struct {
	LexNorm      float64 `json:"lex_n"`
	SemArticleN  float64 `json:"sa_n"`
	SemChunkN    float64 `json:"sc_n"`
	TagFeat      float64 `json:"tag_feat"`
	CatFeat      float64 `json:"cat_feat"`
	LocFeat      float64 `json:"loc_feat"`
	ContribFeat  float64 `json:"contrib_feat"`
	Recency      float64 `json:"recency"`
}

// Ranked wraps a merged candidate with its ranker v1 output.
type Ranked struct {
	*retrieval.Candidate
	Rank        int
	Score       float64
	Features    Features
	Explanation []Explanation
}

// Rank normalizes signals across candidates, scores each with the fixed
// weight vector, and returns them sorted descending by score with a
// dense 1-based rank. queryTokens are the tokens extracted from the
// canonicalized query (spec §4.8 step 2); now is the reference instant
// recency is computed against.
func Rank(candidates []*retrieval.Candidate, queryTokens []string, now time.Time) []*Ranked {
	return RankWithWeights(candidates, queryTokens, now, DefaultWeights)
}

// RankWithWeights is Rank with an explicit weight vector, split out so
// future ranker generations can reuse the normalization and feature
// machinery with a different weight set under a different version tag.
func RankWithWeights(candidates []*retrieval.Candidate, queryTokens []string, now time.Time, w Weights) []*Ranked {
	lexMin, lexMax := minMax(candidates, func(c *retrieval.Candidate) float64 { return c.LexicalScore })
	saMin, saMax := minMax(candidates, func(c *retrieval.Candidate) float64 { return float64(c.SemArticle) })
	scMin, scMax := minMax(candidates, func(c *retrieval.Candidate) float64 { return float64(c.SemChunk) })

	nowUnix := now.Unix()

	ranked := make([]*Ranked, 0, len(candidates))
	for _, c := range candidates {
		features := Features{
			LexNorm:     normalize(c.LexicalScore, lexMin, lexMax),
			SemArticleN: normalize(float64(c.SemArticle), saMin, saMax),
			SemChunkN:   normalize(float64(c.SemChunk), scMin, scMax),
			Recency:     recency(c.Article, nowUnix),
		}
		features.TagFeat, features.CatFeat, features.LocFeat, features.ContribFeat = overlapFeatures(c.Article, queryTokens)

		score := features.LexNorm*w.Lexical +
			features.SemChunkN*w.SemChunk +
			features.SemArticleN*w.SemArticle +
			features.TagFeat*w.Tag +
			features.CatFeat*w.Category +
			features.LocFeat*w.Location +
			features.ContribFeat*w.Contributor +
			features.Recency*w.Recency

		ranked = append(ranked, &Ranked{
			Candidate:   c,
			Score:       score,
			Features:    features,
			Explanation: explain(features, w),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i, r := range ranked {
		r.Rank = i + 1
	}
	return ranked
}

// minMax returns the min and max of f across candidates. An empty slice
// yields (0, 0), which normalize treats as a zero-width range.
func minMax(candidates []*retrieval.Candidate, f func(*retrieval.Candidate) float64) (float64, float64) {
	if len(candidates) == 0 {
		return 0, 0
	}
	min, max := f(candidates[0]), f(candidates[0])
	for _, c := range candidates[1:] {
		v := f(c)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// normalize min-max scales v into [0,1]. A near-zero-width range (all
// candidates tied, including the single-candidate case) normalizes to 0
// rather than dividing by ~0 (spec §4.8 step 1).
func normalize(v, min, max float64) float64 {
	if max-min < 1e-9 {
		return 0
	}
	return (v - min) / (max - min)
}

// recency returns 1 - age_days/1095, floored at 0, or 0 when the
// article has no known publish time (spec §4.8 step 3).
func recency(a *corpus.Article, nowUnix int64) float64 {
	if a == nil || a.PublishedTS <= 0 {
		return 0
	}
	ageDays := float64(nowUnix-a.PublishedTS) / 86400
	if ageDays < 0 {
		ageDays = 0
	}
	rec := 1 - ageDays/recencyHorizonDays
	if rec < 0 {
		return 0
	}
	return rec
}

// overlapFeatures computes the saturated tag/category/location/contributor
// overlap features between queryTokens and an article's *_norm fields
// (spec §4.8 step 2).
func overlapFeatures(a *corpus.Article, queryTokens []string) (tag, cat, loc, contrib float64) {
	if a == nil {
		return 0, 0, 0, 0
	}
	query := toSet(queryTokens)
	tag = saturate(overlapCount(query, a.TagsNorm), 2)
	cat = saturate(overlapCount(query, a.CategoriesNorm), 2)
	loc = saturate(overlapCount(query, a.LocationsNorm), 1)
	contrib = saturate(overlapCount(query, a.ContributorsNorm), 1)
	return tag, cat, loc, contrib
}

func saturate(count, divisor int) float64 {
	v := float64(count) / float64(divisor)
	if v > 1 {
		return 1
	}
	return v
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// overlapCount counts how many of an article's norm-field values
// intersect the query token set, tokenizing each value the same way the
// query was tokenized.
func overlapCount(querySet map[string]bool, values []string) int {
	count := 0
	for _, v := range values {
		for _, t := range Tokenize(v) {
			if querySet[t] {
				count++
				break
			}
		}
	}
	return count
}

// explain picks the top-4 (component, contribution) pairs by
// contribution value (spec §4.8 step 5).
func explain(f Features, w Weights) []Explanation {
	all := []Explanation{
		{"lexical", f.LexNorm * w.Lexical},
		{"sem_chunk", f.SemChunkN * w.SemChunk},
		{"sem_article", f.SemArticleN * w.SemArticle},
		{"tag", f.TagFeat * w.Tag},
		{"category", f.CatFeat * w.Category},
		{"location", f.LocFeat * w.Location},
		{"contributor", f.ContribFeat * w.Contributor},
		{"recency", f.Recency * w.Recency},
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Contribution > all[j].Contribution
	})
	if len(all) > 4 {
		all = all[:4]
	}
	return all
}

// Tokenize splits s on any rune that is neither ASCII word-ish nor
// Devanagari, lowercases, and keeps tokens of length >= 2 (spec §4.8
// step 2's query-token rule, shared with the entity detector's).
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		isWord := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (r >= 0x0900 && r <= 0x097F)
		return !isWord
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
