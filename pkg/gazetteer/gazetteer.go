// Package gazetteer implements C4: the entity detector. It lifts
// locations/contributors/categories/tags out of a canonicalized query
// into a structured filter, using longest-first phrase and token
// matching against the corpus.Gazetteer vocabulary.
package gazetteer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
)

const maxMatchesPerField = 3

// tokenMatchFields are the fields for which token (not just phrase)
// intersection contributes to confidence (spec §4.4: "contributors are
// phrase-only").
var tokenMatchFields = map[string]bool{
	"locations_norm":  true,
	"categories_norm": true,
	"tags_norm":       true,
}

// fieldOrder fixes iteration order so filter_by_auto is deterministic.
var fieldOrder = []string{"locations_norm", "categories_norm", "tags_norm", "contributors_norm"}

// Result is the entity detector's output (spec §4.4).
type Result struct {
	Matches      map[string][]string
	Confidence   map[string]int
	FilterByAuto string // empty if no field met its emission threshold
}

// Detect scans queryUsed (and, in roman mode, romanNorm) against gz and
// returns the matched entities and the auto-filter string.
func Detect(queryUsed string, mode string, romanNorm string, gz corpus.Gazetteer) Result {
	matches := make(map[string][]string)
	confidence := make(map[string]int)

	queryLower := strings.ToLower(queryUsed)
	queryTokens := tokenize(queryLower)

	for field, vocab := range gz {
		values := vocab.Values
		romanValues := vocab.ValuesRomanNorm

		var fieldMatches []string
		fieldConfidence := 0

		for i, value := range values {
			valueLower := strings.ToLower(value)

			phraseHit := strings.Contains(queryLower, valueLower)
			if !phraseHit && mode == "roman" && i < len(romanValues) {
				phraseHit = romanValues[i] != "" && strings.Contains(romanNorm, romanValues[i])
			}

			tokenHit := false
			if tokenMatchFields[field] {
				tokenHit = tokensIntersect(queryTokens, tokenize(valueLower))
			}

			if !phraseHit && !tokenHit {
				continue
			}

			if phraseHit {
				fieldConfidence += 2
			} else {
				fieldConfidence += 1
			}

			if len(fieldMatches) < maxMatchesPerField {
				fieldMatches = append(fieldMatches, value)
			}
		}

		if len(fieldMatches) > 0 {
			matches[field] = fieldMatches
			confidence[field] = fieldConfidence
		}
	}

	return Result{
		Matches:      matches,
		Confidence:   confidence,
		FilterByAuto: buildFilterByAuto(matches, confidence),
	}
}

// tokenize splits on whitespace and non-word characters, keeping tokens
// of length >= 2 (the same threshold the spec uses for query tokens).
func tokenize(s string) []string {
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

func tokensIntersect(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if set[t] {
			return true
		}
	}
	return false
}

// emissionThreshold returns the minimum confidence required to emit a
// filter clause for field (spec §4.4's filter emission policy).
func emissionThreshold(field string) int {
	switch field {
	case "locations_norm":
		return 1 // emit whenever any match exists
	case "contributors_norm":
		return 2 // only on a phrase hit
	case "categories_norm", "tags_norm":
		return 4 // only on multiple phrase hits
	default:
		return 1
	}
}

func buildFilterByAuto(matches map[string][]string, confidence map[string]int) string {
	var clauses []string

	for _, field := range fieldOrder {
		values, ok := matches[field]
		if !ok {
			continue
		}
		if confidence[field] < emissionThreshold(field) {
			continue
		}

		sorted := append([]string(nil), values...)
		sort.Strings(sorted)

		quoted := make([]string, len(sorted))
		for i, v := range sorted {
			quoted[i] = fmt.Sprintf("`%s`", strings.ReplaceAll(v, "`", "\\`"))
		}
		clauses = append(clauses, fmt.Sprintf("%s:=[%s]", field, strings.Join(quoted, ",")))
	}

	return strings.Join(clauses, " && ")
}

// MergeFilter conjoins a client-provided filter_by with the auto filter,
// per spec §4.4: "(client) && (auto)".
func MergeFilter(clientFilter, autoFilter string) string {
	switch {
	case clientFilter == "" && autoFilter == "":
		return ""
	case clientFilter == "":
		return autoFilter
	case autoFilter == "":
		return clientFilter
	default:
		return fmt.Sprintf("(%s) && (%s)", clientFilter, autoFilter)
	}
}
