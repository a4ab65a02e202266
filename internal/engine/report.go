package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Action records what the engine did about a candidate match.
type Action string

const (
	AutoApplied Action = "auto-applied"
	Suggested   Action = "suggested"
	Skipped     Action = "skipped"
	Aborted     Action = "aborted"
	Failed      Action = "failed"
)

// Field names the tag a decision applies to.
type Field string

const (
	FieldArtist      Field = "artist"
	FieldAlbumArtist Field = "album-artist"
	FieldGenre       Field = "genre"
	FieldCover       Field = "cover"
)

// Record is one append-only decision entry. Records are never mutated after
// creation; operators consume the report for audit.
type Record struct {
	File       string    `json:"file"`
	Field      Field     `json:"field"`
	Old        string    `json:"old,omitempty"`
	New        string    `json:"new,omitempty"`
	Confidence float64   `json:"confidence"`
	Action     Action    `json:"action"`
	Time       time.Time `json:"time"`
}

// Report emits decision records as JSON lines. All methods are best-effort:
// a broken sink must never abort the batch.
type Report struct {
	enc    *json.Encoder
	closer io.Closer
}

// NewReport writes records to w.
func NewReport(w io.Writer) *Report {
	if w == nil {
		return &Report{}
	}
	return &Report{enc: json.NewEncoder(w)}
}

// OpenReport appends records to the file at path. An empty path yields a
// no-op report.
func OpenReport(path string) (*Report, error) {
	if path == "" {
		return &Report{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	return &Report{enc: json.NewEncoder(f), closer: f}, nil
}

// Log emits one record. Timestamps default to now. Errors are swallowed.
func (r *Report) Log(rec Record) {
	if r == nil || r.enc == nil {
		return
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	_ = r.enc.Encode(rec)
}

// Close closes the underlying file when the report owns one.
func (r *Report) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
