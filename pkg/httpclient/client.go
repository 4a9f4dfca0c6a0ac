// Package httpclient gives the lexical index client and the embedding
// client (C5, C6) one shared HTTP collaborator: a configurable
// *http.Client with an optional custom TLS transport.
//
// Spec §5/§7 are explicit that the core performs no retries of its own
// ("no retries are performed by the core; failures surface") — a failed
// lexical or embedding call becomes a RetrievalError immediately rather
// than being retried with backoff. That rules out the teacher's
// exponential-backoff/rate-limit-header machinery entirely: there is no
// Anthropic- or OpenAI-shaped rate limit header anywhere in this
// service's external interfaces (spec §6), so this package carries none
// of that parsing. What's left is the part of the teacher's client that
// this domain actually needs: a shared timeout and an optional TLS
// transport for internal deployments that run Typesense or the
// embedding endpoint behind a custom CA.
package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Client wraps http.Client with a uniform timeout and optional TLS
// transport.
type Client struct {
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client, e.g. to override the
// default timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithTLSConfig applies a custom TLS transport to the client, for
// internal deployments of the lexical index or embedding endpoint that
// sit behind a corporate CA.
func WithTLSConfig(cfg *TLSConfig) Option {
	return func(cl *Client) {
		transport, err := ConfigureTLS(cfg)
		if err != nil {
			return
		}
		cl.client.Transport = transport
	}
}

// New creates a Client with the given options. The default timeout is
// 30s, matching the longest of this service's external-call timeouts
// (spec §5: 10s lexical, 10s vector, 30s DB); callers needing a
// different timeout pass WithHTTPClient.
func New(opts ...Option) *Client {
	c := &Client{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes req once, with no retry. Non-2xx responses are not an
// error here: lexical.Client and embedders.HTTPEmbedder each inspect
// resp.StatusCode against their own contract. Do only wraps
// transport-level failures (DNS, connection refused, timeout).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}
