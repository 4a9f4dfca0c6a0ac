// Package normalize implements C1: the text normalizer. It is an
// idempotent string→string transform applied to every raw query and to
// article text before indexing.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// zeroWidth lists the zero-width code points stripped by Text (spec §4.1).
var zeroWidth = []rune{'​', '‌', '‍', '﻿'}

// devanagariPunct is the punctuation after which exactly one space is
// enforced, and before which whitespace is removed.
var devanagariPunct = map[rune]bool{
	'।': true, ',': true, ';': true, ':': true, '!': true, '?': true,
}

// Text runs the full normalization pipeline over s: encoding repair, NFKC,
// zero-width stripping, newline/whitespace canonicalization, and
// Devanagari punctuation spacing. Empty input returns empty output; the
// transform never alters content beyond normalization (no transliteration).
func Text(s string) string {
	if s == "" {
		return s
	}

	s = repairMojibake(s)
	s = norm.NFKC.String(s)
	s = stripZeroWidth(s)
	s = normalizeNewlines(s)
	s = collapseSpacesAndTabs(s)
	s = collapseBlankLines(s)
	s = spaceDevanagariPunctuation(s)
	s = strings.TrimSpace(s)

	return s
}

func stripZeroWidth(s string) string {
	return strings.Map(func(r rune) rune {
		for _, z := range zeroWidth {
			if r == z {
				return -1
			}
		}
		return r
	}, s)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// collapseSpacesAndTabs collapses runs of spaces/tabs (not newlines) to a
// single space, line by line.
func collapseSpacesAndTabs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t'
		}), " ")
	}
	return strings.Join(lines, "\n")
}

// collapseBlankLines collapses runs of 3+ newlines to exactly two.
func collapseBlankLines(s string) string {
	var b strings.Builder
	newlineRun := 0
	for _, r := range s {
		if r == '\n' {
			newlineRun++
			if newlineRun <= 2 {
				b.WriteRune(r)
			}
			continue
		}
		newlineRun = 0
		b.WriteRune(r)
	}
	return b.String()
}

func spaceDevanagariPunctuation(s string) string {
	runes := []rune(s)
	var out []rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if devanagariPunct[r] {
			// Remove any trailing whitespace already written before this mark.
			for len(out) > 0 && unicode.IsSpace(out[len(out)-1]) {
				out = out[:len(out)-1]
			}
			out = append(out, r)

			// Ensure exactly one space after, unless followed by
			// whitespace/newline or end of string.
			if i+1 < len(runes) {
				next := runes[i+1]
				if !unicode.IsSpace(next) {
					out = append(out, ' ')
				}
			}
			continue
		}

		out = append(out, r)
	}

	return string(out)
}

// repairMojibake fixes UTF-8 Devanagari text that was mis-decoded as
// Windows-1252 and re-encoded to UTF-8 — the one corruption pattern
// actually seen in scraped Hindi text (the source ETL's ftfy-equivalent
// step, spec §4.1). No ftfy-equivalent Go library exists in the
// reference pack, so this is a narrow stdlib-only fallback: every rune
// must be in the Latin-1 range, and re-interpreting the raw bytes as
// UTF-8 must yield valid text containing Devanagari; anything else is
// left untouched rather than guessed at.
func repairMojibake(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		buf = append(buf, byte(r))
	}

	if !utf8.Valid(buf) {
		return s
	}
	repaired := string(buf)
	if !hasDevanagari(repaired) {
		return s
	}
	return repaired
}

func hasDevanagari(s string) bool {
	for _, r := range s {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}
