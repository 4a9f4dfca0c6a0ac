package rag

import (
	"fmt"
	"strings"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
)

// ChunkerConfig parameterizes the chunking algorithm (spec §4.11).
type ChunkerConfig struct {
	// MaxTokens is the soft per-chunk budget the greedy packer fills up to.
	MaxTokens int
	// OverlapTokens is the window-fallback slide overlap.
	OverlapTokens int
	// HardMaxTokens is the absolute ceiling; no emitted chunk may exceed it.
	HardMaxTokens int
	// Encoding names the tiktoken encoding used to count and window tokens.
	Encoding string
}

// DefaultChunkerConfig matches the spec's defaults: max_tokens=240,
// overlap_tokens=40, hard_max_tokens=480.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     240,
		OverlapTokens: 40,
		HardMaxTokens: 480,
		Encoding:      "cl100k_base",
	}
}

// sentenceSplitters are the Devanagari/Latin punctuation marks the
// paragraph-overflow fallback splits on, keeping the mark attached to
// the preceding sentence (spec §4.11 step 2).
var sentenceSplitters = []rune{'।', '?', '!', '\n', ';', ':'}

// Chunker implements C11 over one article's concatenated text fields.
type Chunker struct {
	config  ChunkerConfig
	counter *TokenCounter
}

// NewChunker builds a Chunker from cfg, failing fast if hard_max_tokens
// exceeds the embedder's maximum sequence length (spec §4.11: "must be
// <= 512").
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if cfg.HardMaxTokens > 512 {
		return nil, errs.NewStartupError("chunker", "hard_max_tokens must not exceed 512", nil)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "cl100k_base"
	}
	counter, err := NewTokenCounter(cfg.Encoding)
	if err != nil {
		return nil, errs.NewStartupError("chunker", "failed to initialize token counter", err)
	}
	return &Chunker{config: cfg, counter: counter}, nil
}

// Chunk splits one article's title/summary/content into Chunks, in
// order, each respecting hard_max_tokens (spec §4.11).
func (c *Chunker) Chunk(article *corpus.Article) ([]*corpus.Chunk, error) {
	text := strings.Join(nonEmpty(article.TitleHi, article.SummaryHi, article.ContentHi), "\n\n")
	paragraphs := splitParagraphs(text)

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		pieces = append(pieces, current.String())
		current.Reset()
		currentTokens = 0
	}

	for _, p := range paragraphs {
		pTokens := c.counter.Count(p)

		if pTokens > c.config.MaxTokens {
			flush()
			for _, part := range c.splitOverflowParagraph(p) {
				pieces = append(pieces, part)
			}
			continue
		}

		if currentTokens > 0 && currentTokens+pTokens > c.config.MaxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
		currentTokens += pTokens
	}
	flush()

	var final []string
	for _, piece := range pieces {
		final = append(final, c.enforceHardCap(piece)...)
	}

	chunks := make([]*corpus.Chunk, 0, len(final))
	for i, text := range final {
		tokens := c.counter.Count(text)
		if tokens > c.config.HardMaxTokens {
			return nil, errs.NewBudgetViolation(article.ID, tokens, c.config.HardMaxTokens)
		}
		chunks = append(chunks, &corpus.Chunk{
			ChunkID:       chunkID(article.ID, i),
			ArticleID:     article.ID,
			ChunkIndex:    i,
			ChunkText:     text,
			ChunkTokens:   tokens,
			URL:           article.URL,
			TitleHi:       article.TitleHi,
			PublishedDate: article.PublishedDate,
			PublishedTS:   article.PublishedTS,
		})
	}
	return chunks, nil
}

// splitOverflowParagraph handles a paragraph whose token count exceeds
// max_tokens: sentence-ish split first, then token-window fallback for
// any part still over budget (spec §4.11 step 2).
func (c *Chunker) splitOverflowParagraph(p string) []string {
	sentences := splitSentences(p)

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		pieces = append(pieces, current.String())
		current.Reset()
		currentTokens = 0
	}

	for _, s := range sentences {
		sTokens := c.counter.Count(s)

		if sTokens > c.config.MaxTokens {
			flush()
			pieces = append(pieces, c.tokenWindows(s)...)
			continue
		}

		if currentTokens > 0 && currentTokens+sTokens > c.config.MaxTokens {
			flush()
		}
		current.WriteString(s)
		currentTokens += sTokens
	}
	flush()
	return pieces
}

// enforceHardCap is the post-pass: any surviving piece over
// hard_max_tokens is re-split by token-window (spec §4.11 step 4).
func (c *Chunker) enforceHardCap(piece string) []string {
	if c.counter.Count(piece) <= c.config.HardMaxTokens {
		return []string{piece}
	}
	return c.tokenWindows(piece)
}

// tokenWindows encodes text and slides fixed-size windows of
// hard_max_tokens with step hard_max_tokens-overlap_tokens, decoding
// each window back to text (spec §4.11 step 3).
func (c *Chunker) tokenWindows(text string) []string {
	ids := c.counter.Encode(text)
	if len(ids) == 0 {
		return nil
	}

	step := c.config.HardMaxTokens - c.config.OverlapTokens
	if step <= 0 {
		step = c.config.HardMaxTokens
	}

	var windows []string
	for start := 0; start < len(ids); start += step {
		end := start + c.config.HardMaxTokens
		if end > len(ids) {
			end = len(ids)
		}
		windows = append(windows, c.counter.Decode(ids[start:end]))
		if end == len(ids) {
			break
		}
	}
	return windows
}

func chunkID(articleID string, index int) string {
	return fmt.Sprintf("%s::c%04d", articleID, index)
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits on Devanagari danda and standard end-of-sentence
// punctuation, keeping the punctuation attached to the preceding part.
func splitSentences(p string) []string {
	var out []string
	var current strings.Builder

	for _, r := range p {
		current.WriteRune(r)
		if isSentenceSplitter(r) {
			out = append(out, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func isSentenceSplitter(r rune) bool {
	for _, s := range sentenceSplitters {
		if r == s {
			return true
		}
	}
	return false
}
