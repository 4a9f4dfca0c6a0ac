package embedders

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPEmbedderL2Normalizes(t *testing.T) {
	var gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input string `json:"input"`
		}
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotInput = body.Input
		w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(HTTPConfig{Endpoint: srv.URL, Dimension: 2, E5QueryPrefix: true})
	vec, err := e.Embed(context.Background(), "बिहार स्वास्थ्य")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}

	if gotInput != "query: बिहार स्वास्थ्य" {
		t.Errorf("input sent = %q, want e5 query prefix applied", gotInput)
	}

	magnitude := math.Sqrt(float64(vec[0]*vec[0] + vec[1]*vec[1]))
	if math.Abs(magnitude-1.0) > 1e-6 {
		t.Errorf("expected unit vector, got magnitude %f", magnitude)
	}
}
