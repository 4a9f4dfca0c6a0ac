// Package embedders provides the embedding-function contract C6 encodes
// the query through, adapted from the teacher's EmbedderProvider
// interface and HTTP embedder implementation down to one generalized
// HTTP endpoint.
package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/httpclient"
)

// Provider encodes text into a fixed-dimension vector. The embedding
// model is an external collaborator (spec §1); this is the interface
// the core consumes, not an implementation of the model itself.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// HTTPConfig configures the HTTP embedding endpoint.
type HTTPConfig struct {
	Endpoint string
	APIKey   string

	// Dimension is the fixed vector dimension both collections share
	// (768 for mpnet, 1024 for e5-large; spec §3).
	Dimension int

	// E5QueryPrefix, when true, prepends "query: " to every input, the
	// convention e5-family models require to distinguish query-side
	// from passage-side encoding (spec §4.6).
	E5QueryPrefix bool

	Timeout time.Duration
}

// HTTPEmbedder calls a single HTTP endpoint that embeds one text per
// request and returns its vector, L2-normalizing the result before
// returning it (spec §3: "Vector: L2-normalized float32").
type HTTPEmbedder struct {
	http      *httpclient.Client
	endpoint  string
	apiKey    string
	dimension int
	e5Prefix  bool
}

func NewHTTPEmbedder(cfg HTTPConfig) *HTTPEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPEmbedder{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		dimension: cfg.Dimension,
		e5Prefix:  cfg.E5QueryPrefix,
	}
}

func (e *HTTPEmbedder) Dimension() int { return e.dimension }

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed encodes text and L2-normalizes the resulting vector. For
// e5-family models the raw query is prefixed with "query: " before
// encoding, per the convention those models require (spec §4.6); the
// prefix is never applied to the text used elsewhere (lexical indexing,
// display) — only to what's handed to the encoder.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input := text
	if e.e5Prefix {
		input = "query: " + text
	}

	body, err := json.Marshal(embedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing embed response: %w", err)
	}

	return l2Normalize(parsed.Embedding), nil
}

func l2Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
