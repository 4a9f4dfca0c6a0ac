package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewDefaultTimeout(t *testing.T) {
	c := New()
	if c.client.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", c.client.Timeout)
	}
}

func TestWithHTTPClientOverridesTimeout(t *testing.T) {
	c := New(WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	if c.client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.client.Timeout)
	}
}

func TestDoReturnsResponseForAnyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503 (Do must not retry or swallow non-2xx)", resp.StatusCode)
	}
}

func TestDoWrapsTransportError(t *testing.T) {
	c := New(WithHTTPClient(&http.Client{Timeout: time.Millisecond}))
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	if _, err := c.Do(req); err == nil {
		t.Error("expected a transport error for an unreachable host")
	}
}

func TestWithTLSConfigAppliesCustomTransport(t *testing.T) {
	c := New(WithTLSConfig(&TLSConfig{InsecureSkipVerify: true}))
	transport, ok := c.client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.client.Transport)
	}
	if !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be carried into the transport")
	}
}
