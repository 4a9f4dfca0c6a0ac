package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// GazetteerField is one closed-world vocabulary: locations, categories,
// tags, or contributors (spec §3).
type GazetteerField struct {
	Values          []string `json:"values" yaml:"values"`
	ValuesRomanNorm []string `json:"values_roman_norm" yaml:"values_roman_norm"`
}

// Gazetteer is the on-disk artifact consumed at startup (spec §6).
// Keys are the normalized field names: locations_norm, categories_norm,
// tags_norm, contributors_norm.
type Gazetteer map[string]GazetteerField

// LoadGazetteer reads and validates the gazetteer file, then sorts each
// field's values longest-first so the entity detector's greedy scan
// (spec §4.4) always prefers the longer phrase match. Both the JSON
// shape (spec §6) and a YAML sibling are accepted, chosen by file
// extension — editors maintain the vocabulary by hand and YAML's
// comments/multiline strings are friendlier for that than JSON's, while
// the deployed artifact stays the JSON spec names.
func LoadGazetteer(path string) (Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gazetteer file %s: %w", path, err)
	}

	var g Gazetteer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parsing gazetteer file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parsing gazetteer file %s: %w", path, err)
		}
	}

	for field, vocab := range g {
		sortLongestFirst(vocab.Values)
		sortLongestFirst(vocab.ValuesRomanNorm)
		g[field] = vocab
	}

	return g, nil
}

func sortLongestFirst(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		return len(values[i]) > len(values[j])
	})
}
