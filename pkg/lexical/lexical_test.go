package lexical

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

func TestClientSearchParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-TYPESENSE-API-KEY"); got != "secret" {
			t.Errorf("api key header = %q, want secret", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":[{"document":{"id":"a1"},"text_match":12.5},{"document":{"id":"a2"},"text_match":7.0}]}`))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())

	c := New(Config{Host: u.Hostname(), Port: port, Protocol: "http", APIKey: "secret", Collection: "articles"})

	hits, err := c.Search(context.Background(), "बिहार", ModeDev, 80, "")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 2 || hits[0].ArticleID != "a1" || hits[0].LexicalScore != 12.5 {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestClientSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	c := New(Config{Host: u.Hostname(), Port: port, Protocol: "http", APIKey: "secret", Collection: "articles"})

	if _, err := c.Search(context.Background(), "q", ModeRoman, 10, ""); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
