package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"coverscout/internal/store"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0644)
}

func writeFileWith(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func testQuery() store.Query {
	return store.Query{Track: "Hound Dog", Artist: "Elvis Presley"}
}

func testCandidates() []store.Candidate {
	return []store.Candidate{
		{Index: 0, Title: "Hound Dog", Artist: "Elvis Presley", ImageURL: "https://img.example.com/1.jpg"},
	}
}

func TestPutGet(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "cache.json"), time.Hour)

	if _, ok := c.Get(testQuery(), "us"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(testQuery(), "us", testCandidates())
	got, ok := c.Get(testQuery(), "us")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 1 || got[0].Title != "Hound Dog" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "cache.json"), 60*time.Minute)

	t0 := time.Now()
	c.now = func() time.Time { return t0 }
	c.Put(testQuery(), "us", testCandidates())

	c.now = func() time.Time { return t0.Add(59 * time.Minute) }
	if _, ok := c.Get(testQuery(), "us"); !ok {
		t.Error("expected hit at T0+59m with 60m TTL")
	}

	c.now = func() time.Time { return t0.Add(61 * time.Minute) }
	if _, ok := c.Get(testQuery(), "us"); ok {
		t.Error("expected miss at T0+61m with 60m TTL")
	}
}

func TestEmptyListsNotCached(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "cache.json"), time.Hour)
	c.Put(testQuery(), "us", nil)
	c.Put(testQuery(), "us", []store.Candidate{})

	if c.Len() != 0 {
		t.Errorf("empty lists must not be cached, got %d entries", c.Len())
	}
	if _, ok := c.Get(testQuery(), "us"); ok {
		t.Error("expected miss after empty put")
	}
}

func TestKeyUsesRawQueryAndLocale(t *testing.T) {
	q := testQuery()
	upper := store.Query{Track: "HOUND DOG", Artist: "Elvis Presley"}

	if Key(q, "us") == Key(upper, "us") {
		t.Error("raw-query hashing: differently-cased queries must produce distinct keys")
	}
	if Key(q, "us") == Key(q, "de") {
		t.Error("locale must be part of the key")
	}
	if Key(q, "us") != Key(q, "us") {
		t.Error("key must be stable")
	}
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	first := Open(path, time.Hour)
	first.Put(testQuery(), "us", testCandidates())

	second := Open(path, time.Hour)
	got, ok := second.Get(testQuery(), "us")
	if !ok {
		t.Fatal("expected hit from reloaded cache file")
	}
	if got[0].ImageURL != "https://img.example.com/1.jpg" {
		t.Errorf("candidate did not round-trip: %+v", got[0])
	}
}

func TestUnwritablePathDegrades(t *testing.T) {
	// Persisting into a path whose parent is a file must not panic or error
	// out of Put; the cache simply stays in-memory.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := writeFile(blocker); err != nil {
		t.Fatal(err)
	}

	c := Open(filepath.Join(blocker, "cache.json"), time.Hour)
	c.Put(testQuery(), "us", testCandidates())
	if _, ok := c.Get(testQuery(), "us"); !ok {
		t.Error("in-memory entry should survive persist failure")
	}
}

func TestCorruptFileDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := writeFileWith(path, "{not json"); err != nil {
		t.Fatal(err)
	}

	c := Open(path, time.Hour)
	if c.Len() != 0 {
		t.Errorf("corrupt cache file should load as empty, got %d entries", c.Len())
	}
}
