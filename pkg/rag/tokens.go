// Package rag implements C11, the offline chunker that slices an
// article's Hindi text into retrieval-sized windows before indexing.
package rag

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts and round-trips tokens for one tiktoken encoding,
// adapted from the teacher's utils.TokenCounter down to the
// count/encode/decode surface the chunker needs; the per-model message
// overhead accounting isn't relevant here since there's no chat prompt.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter returns a counter backed by encodingName (e.g.
// "cl100k_base"), falling back to cl100k_base if the name is unknown.
func NewTokenCounter(encodingName string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, ok := encodingCache[encodingName]
	cacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached}, nil
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[encodingName] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding}, nil
}

// Count returns the token count of text.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

// Encode returns text's token ids.
func (tc *TokenCounter) Encode(text string) []int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.encoding.Encode(text, nil, nil)
}

// Decode turns token ids back into text.
func (tc *TokenCounter) Decode(ids []int) string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.encoding.Decode(ids)
}
