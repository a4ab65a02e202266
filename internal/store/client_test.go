package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/us/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "coverscout/1.0" {
			t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		if term := r.URL.Query().Get("term"); term != "Hound Dog Elvis Presley" {
			t.Errorf("unexpected term: %q", term)
		}
		w.Write([]byte(searchPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, 0, 0, 0)
	candidates, err := c.Search(context.Background(), Query{Track: "Hound Dog", Artist: "Elvis Presley"}, "us")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(candidates))
	}
}

func TestClientSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, 0, 0)
	if _, err := c.Search(context.Background(), Query{Track: "Hound Dog"}, "us"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestClientSearchEmptyQuery(t *testing.T) {
	c := NewClient("http://unused.invalid", 0, 0, 0)
	if _, err := c.Search(context.Background(), Query{}, "us"); err == nil {
		t.Fatal("expected validation error for empty query")
	}
}

func TestQueryRaw(t *testing.T) {
	q := Query{Track: "Hound Dog", Artist: "Elvis Presley"}
	if got := q.Raw(); got != "Hound Dog Elvis Presley" {
		t.Errorf("Raw() = %q", got)
	}
	if got := (Query{Album: "Thriller"}).Raw(); got != "Thriller" {
		t.Errorf("Raw() = %q", got)
	}
}
