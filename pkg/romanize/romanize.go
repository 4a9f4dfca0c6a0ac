// Package romanize implements C2: deterministic Devanagari→Harvard-Kyoto
// transliteration and roman-form normalization. Both functions are pure
// and never fail — an untranslatable code point passes through unchanged.
package romanize

import (
	"regexp"
	"strings"
)

// independentVowels maps Devanagari independent vowel letters to their
// Harvard-Kyoto equivalents.
var independentVowels = map[rune]string{
	'अ': "a", 'आ': "A", 'इ': "i", 'ई': "I", 'उ': "u", 'ऊ': "U",
	'ऋ': "R", 'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au",
}

// matras maps dependent vowel signs to their Harvard-Kyoto equivalents.
// The implicit "a" of a bare consonant is handled separately.
var matras = map[rune]string{
	'ा': "A", 'ि': "i", 'ी': "I", 'ु': "u", 'ू': "U",
	'ृ': "R", 'े': "e", 'ै': "ai", 'ो': "o", 'ौ': "au",
}

// consonants maps Devanagari consonants to their Harvard-Kyoto consonant
// stem (without the implicit "a").
var consonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "G",
	'च': "c", 'छ': "ch", 'ज': "j", 'झ': "jh", 'ञ': "J",
	'ट': "T", 'ठ': "Th", 'ड': "D", 'ढ': "Dh", 'ण': "N",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'व': "v",
	'श': "z", 'ष': "S", 'स': "s", 'ह': "h",
	'ळ': "L",
	// Nukta forms (loanword sounds), as precomposed code points
	// U+0958..U+095E (क़ ख़ ग़ ज़ ड़ ढ़ फ़).
	'क़': "q", 'ख़': "x", 'ग़': "G", 'ज़': "z", 'ड़': "r", 'ढ़': "rh", 'फ़': "f",
}

var (
	virama    = '्'
	anusvara  = 'ं'
	chandra   = 'ँ'
	visarga   = 'ः'
	danda     = '।'
	doubleDanda = '॥'
)

var digits = map[rune]rune{
	'०': '0', '१': '1', '२': '2', '३': '3', '४': '4',
	'५': '5', '६': '6', '७': '7', '८': '8', '९': '9',
}

// DevanagariToRoman deterministically transliterates Devanagari to
// Harvard-Kyoto. Code points it doesn't recognize pass through unchanged
// (spec §4.2: "never fail").
func DevanagariToRoman(s string) string {
	runes := []rune(s)
	var b strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if d, ok := digits[r]; ok {
			b.WriteRune(d)
			continue
		}

		if v, ok := independentVowels[r]; ok {
			b.WriteString(v)
			continue
		}

		if stem, ok := consonants[r]; ok {
			b.WriteString(stem)

			// Look ahead for a matra, virama, or bare consonant (implicit "a").
			if i+1 < len(runes) {
				next := runes[i+1]
				if m, ok := matras[next]; ok {
					b.WriteString(m)
					i++
					continue
				}
				if next == virama {
					i++ // suppress the implicit "a"; no vowel written
					continue
				}
			}
			b.WriteString("a")
			continue
		}

		switch r {
		case anusvara:
			b.WriteString("M")
		case chandra:
			b.WriteString("~")
		case visarga:
			b.WriteString("H")
		case danda:
			b.WriteString(".")
		case doubleDanda:
			b.WriteString("..")
		case virama:
			// Stray virama with no preceding consonant: drop silently.
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

var (
	nonRomanChar = regexp.MustCompile(`[^a-z0-9\s]`)
	vowelRuns    = regexp.MustCompile(`a+|e+|i+|o+|u+`)
	whitespace   = regexp.MustCompile(`\s+`)

	yojnaVariants = regexp.MustCompile(`\b(yojna|yojana|yojnaa)\b`)
)

// RomanNormalize collapses romanization spelling variance into one
// canonical form, used identically at index time and query time (spec
// §4.2). The v→w collapse is unconditional per the spec's resolved open
// question (it affects English loanwords like "video" too; kept as
// specified since it matches index-time behavior).
func RomanNormalize(s string) string {
	s = strings.ToLower(s)
	s = nonRomanChar.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = vowelRuns.ReplaceAllStringFunc(s, func(run string) string { return run[:1] })
	s = strings.ReplaceAll(s, "v", "w")
	s = yojnaVariants.ReplaceAllString(s, "yojana")
	return s
}
