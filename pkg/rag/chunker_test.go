package rag

import (
	"strings"
	"testing"

	"github.com/ashoka-samvaad/hindi-search/pkg/corpus"
)

func TestChunkSmallArticleSingleChunk(t *testing.T) {
	c, err := NewChunker(DefaultChunkerConfig())
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	article := &corpus.Article{
		ID:        "a1",
		TitleHi:   "बिहार में स्वास्थ्य योजना",
		SummaryHi: "एक संक्षिप्त सारांश।",
		ContentHi: "यह एक छोटा लेख है।",
	}

	chunks, err := c.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for a small article, got %d", len(chunks))
	}
	if chunks[0].ChunkID != "a1::c0000" {
		t.Errorf("ChunkID = %q, want a1::c0000", chunks[0].ChunkID)
	}
}

func TestChunkNeverExceedsHardMax(t *testing.T) {
	cfg := DefaultChunkerConfig()
	c, err := NewChunker(cfg)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	word := "स्वास्थ्य "
	paragraph := strings.Repeat(word, 5000)

	article := &corpus.Article{ID: "a2", ContentHi: paragraph}

	chunks, err := c.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, ch := range chunks {
		if ch.ChunkTokens > cfg.HardMaxTokens {
			t.Errorf("chunk %s has %d tokens, exceeds hard max %d", ch.ChunkID, ch.ChunkTokens, cfg.HardMaxTokens)
		}
	}
}

func TestChunkHardCapRoughChunkCount(t *testing.T) {
	cfg := ChunkerConfig{MaxTokens: 240, OverlapTokens: 40, HardMaxTokens: 480, Encoding: "cl100k_base"}
	c, err := NewChunker(cfg)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	// A repeated Devanagari word costs several tokens per repetition, so
	// cut the text down to its first 5000 tokens.
	ids := c.counter.Encode(strings.Repeat("शब्द ", 5000))
	paragraph := c.counter.Decode(ids[:5000])
	article := &corpus.Article{ID: "a3", ContentHi: paragraph}

	chunks, err := c.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	// Rough expectation per spec scenario 6: ceil((5000-40)/(480-40)) + 1 ~= 12.
	if len(chunks) < 8 || len(chunks) > 20 {
		t.Errorf("expected roughly a dozen chunks for a 5000-token paragraph, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].ChunkIndex != chunks[i-1].ChunkIndex+1 {
			t.Errorf("chunk indices not contiguous: %d then %d", chunks[i-1].ChunkIndex, chunks[i].ChunkIndex)
		}
	}
}

func TestChunkParagraphsPackedGreedily(t *testing.T) {
	c, err := NewChunker(DefaultChunkerConfig())
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	p1 := "पहला पैराग्राफ।"
	p2 := "दूसरा पैराग्राफ।"
	article := &corpus.Article{ID: "a4", ContentHi: p1 + "\n\n" + p2}

	chunks, err := c.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected small paragraphs packed into 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].ChunkText, p1) || !strings.Contains(chunks[0].ChunkText, p2) {
		t.Errorf("expected chunk text to contain both paragraphs, got %q", chunks[0].ChunkText)
	}
}

func TestNewChunkerRejectsOversizedHardMax(t *testing.T) {
	cfg := DefaultChunkerConfig()
	cfg.HardMaxTokens = 600

	_, err := NewChunker(cfg)
	if err == nil {
		t.Fatal("expected error for hard_max_tokens > 512")
	}
}

func TestSplitSentencesKeepsDandaAttached(t *testing.T) {
	parts := splitSentences("पहला वाक्य। दूसरा वाक्य।")
	if len(parts) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(parts), parts)
	}
	if !strings.HasSuffix(parts[0], "।") {
		t.Errorf("expected danda attached to first sentence, got %q", parts[0])
	}
}
