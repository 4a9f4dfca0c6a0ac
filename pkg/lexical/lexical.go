// Package lexical implements C5: the lexical client. It issues one
// bounded query against the Typesense-shaped lexical index contract
// (spec §6) and returns per-article text-match scores.
//
// No Typesense Go client exists anywhere in the reference pack this
// module was grounded on, so this talks to the documented HTTP contract
// directly, reusing pkg/httpclient's shared Client the way the teacher
// uses it for other REST collaborators. No retries: spec §7 surfaces
// lexical failures as RetrievalError rather than retrying them.
package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ashoka-samvaad/hindi-search/pkg/errs"
	"github.com/ashoka-samvaad/hindi-search/pkg/httpclient"
)

// requestTimeout matches the spec's default lexical-call timeout (§5).
const requestTimeout = 10 * time.Second

// Mode mirrors query.Mode without importing pkg/query, keeping this
// package's dependency surface to just the HTTP contract it implements.
type Mode string

const (
	ModeDev   Mode = "dev"
	ModeRoman Mode = "roman"
)

var queryByFields = map[Mode]string{
	ModeDev:   "title_hi,summary_hi,content_hi",
	ModeRoman: "title_roman_norm,summary_roman_norm,content_roman_norm",
}

const queryByWeights = "6,3,1"

// Hit is one lexical result: an article id and its text-match score
// (spec §4.5).
type Hit struct {
	ArticleID     string
	LexicalScore  float64
}

// Client issues search requests against the lexical index.
type Client struct {
	http       *httpclient.Client
	baseURL    string
	apiKey     string
	collection string
}

// Config configures the lexical client's connection (spec §6:
// TYPESENSE_HOST/PORT/PROTOCOL/API_KEY/COLLECTION).
type Config struct {
	Host       string
	Port       int
	Protocol   string
	APIKey     string
	Collection string
}

func New(cfg Config) *Client {
	return &Client{
		http:       httpclient.New(httpclient.WithHTTPClient(&http.Client{Timeout: requestTimeout})),
		baseURL:    fmt.Sprintf("%s://%s:%d", cfg.Protocol, cfg.Host, cfg.Port),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// Search issues the bounded query (spec §4.5): num_typos=1, per_page=topK,
// page=1, query_by/weights determined by mode, and an optional filter_by.
func (c *Client) Search(ctx context.Context, queryText string, mode Mode, topK int, filterBy string) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	fields, ok := queryByFields[mode]
	if !ok {
		fields = queryByFields[ModeDev]
	}

	params := url.Values{}
	params.Set("q", queryText)
	params.Set("query_by", fields)
	params.Set("query_by_weights", queryByWeights)
	params.Set("num_typos", "1")
	params.Set("per_page", strconv.Itoa(topK))
	params.Set("page", "1")
	if filterBy != "" {
		params.Set("filter_by", filterBy)
	}

	reqURL := fmt.Sprintf("%s/collections/%s/documents/search?%s",
		c.baseURL, url.PathEscape(c.collection), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errs.NewRetrievalError("lexical", "search", queryText, err)
	}
	req.Header.Set("X-TYPESENSE-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.NewRetrievalError("lexical", "search", queryText, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewRetrievalError("lexical", "search", queryText, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewRetrievalError("lexical", "search", queryText,
			fmt.Errorf("lexical index returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	return parseSearchResponse(body, queryText)
}

type searchResponse struct {
	Hits []struct {
		Document map[string]interface{} `json:"document"`
		TextMatch float64               `json:"text_match"`
	} `json:"hits"`
}

func parseSearchResponse(body []byte, queryText string) ([]Hit, error) {
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errs.NewRetrievalError("lexical", "search", queryText, err)
	}

	hits := make([]Hit, 0, len(parsed.Hits))
	for _, h := range parsed.Hits {
		id, _ := h.Document["id"].(string)
		if id == "" {
			continue
		}
		hits = append(hits, Hit{ArticleID: id, LexicalScore: h.TextMatch})
	}
	return hits, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
