// Package query implements C3: the query canonicalizer. It classifies a
// raw query as Devanagari or romanized and produces the lexical query
// string appropriate to that mode.
package query

import (
	"github.com/ashoka-samvaad/hindi-search/pkg/normalize"
	"github.com/ashoka-samvaad/hindi-search/pkg/romanize"
)

// Mode is the script classification of a query.
type Mode string

const (
	ModeDev   Mode = "dev"
	ModeRoman Mode = "roman"
)

// devanagariThreshold is the minimum fraction of Devanagari code points
// required to classify a query as ModeDev (spec §4.3).
const devanagariThreshold = 0.02

// Canonical is the result of canonicalizing a raw query.
type Canonical struct {
	Raw       string
	Mode      Mode
	Q         string // the lexical query string for this mode
	RomanNorm string // always computed; used by the roman branch of the gazetteer
}

// Canonicalize classifies raw and produces its canonical lexical form.
// The semantic branch of retrieval embeds Raw unchanged; only Q feeds
// the lexical client and the entity detector.
func Canonicalize(raw string) Canonical {
	mode := classify(raw)
	romanNorm := romanize.RomanNormalize(raw)

	var q string
	switch mode {
	case ModeDev:
		q = normalize.Text(raw)
	case ModeRoman:
		q = romanNorm
	}

	return Canonical{Raw: raw, Mode: mode, Q: q, RomanNorm: romanNorm}
}

func classify(s string) Mode {
	if s == "" {
		return ModeRoman
	}

	total := 0
	devanagari := 0
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		total++
		if r >= 0x0900 && r <= 0x097F {
			devanagari++
		}
	}

	if total == 0 {
		return ModeRoman
	}
	if float64(devanagari)/float64(total) > devanagariThreshold {
		return ModeDev
	}
	return ModeRoman
}
