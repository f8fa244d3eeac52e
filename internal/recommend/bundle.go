package recommend

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eva-finance/internal/models"
)

// MaxExcerpts and MaxExcerptChars bound what a bundle may carry.
const (
	MaxExcerpts     = 15
	MaxExcerptChars = 400
)

// Excerpt is one sanitized evidence item inside a bundle.
type Excerpt struct {
	RawPostID  uint64    `json:"raw_post_id"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
	Text       string    `json:"text"`
	Intent     string    `json:"intent"`
	Sentiment  string    `json:"sentiment"`
}

// EvidenceBundle is the append-only, content-addressed artifact backing a
// recommendation: the event anchor, the chosen confidence snapshot, and up
// to MaxExcerpts sanitized excerpts.
type EvidenceBundle struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`

	Anchor struct {
		SignalEventID uint64    `json:"signal_event_id"`
		EventKind     string    `json:"event_kind"`
		EventTime     time.Time `json:"event_time"`
	} `json:"anchor"`

	Entity struct {
		Brand string `json:"brand"`
		Tag   string `json:"tag"`
	} `json:"entity"`

	Snapshot *models.ConfidenceScore `json:"snapshot"`

	Evidence []Excerpt `json:"evidence"`
}

// BuildBundle assembles an EvidenceBundle from the triggering event, the
// best confidence snapshot available, and a slice of already-sanitized
// excerpts (selection and sanitization happen in builder.go; this
// function only shapes and serializes).
func BuildBundle(event models.SignalEvent, snapshot *models.ConfidenceScore, excerpts []Excerpt) EvidenceBundle {
	if len(excerpts) > MaxExcerpts {
		excerpts = excerpts[:MaxExcerpts]
	}
	b := EvidenceBundle{
		SchemaVersion: "eva-finance-bundle-v1",
		GeneratedAt:   time.Now(),
		Snapshot:      snapshot,
		Evidence:      excerpts,
	}
	b.Anchor.SignalEventID = event.ID
	b.Anchor.EventKind = string(event.Kind)
	b.Anchor.EventTime = event.CreatedAt
	b.Entity.Brand = event.Brand
	b.Entity.Tag = event.Tag
	return b
}

// WriteBundle content-addresses the bundle by the SHA-256 of its
// canonical JSON encoding, gzip-compresses it, and writes it once under
// dir/<sha256>.json.gz. Bundles are never rewritten in place: if the
// target path already exists, WriteBundle assumes it was written by a
// prior, byte-identical attempt (the name IS the hash) and returns
// without touching the file.
func WriteBundle(dir string, bundle EvidenceBundle) (path, sha256hex string, err error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", "", fmt.Errorf("recommend: marshal bundle: %w", err)
	}

	sum := sha256.Sum256(raw)
	sha256hex = hex.EncodeToString(sum[:])

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("recommend: mkdir bundle dir: %w", err)
	}
	path = filepath.Join(dir, sha256hex+".json.gz")

	if _, statErr := os.Stat(path); statErr == nil {
		return path, sha256hex, nil
	}

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(raw); err != nil {
		return "", "", fmt.Errorf("recommend: gzip bundle: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("recommend: close gzip writer: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, gz.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("recommend: write bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", "", fmt.Errorf("recommend: finalize bundle: %w", err)
	}

	return path, sha256hex, nil
}

// ReadBundle reads back a bundle written by WriteBundle and validates its
// SHA-256 against the filename.
func ReadBundle(path string) (EvidenceBundle, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return EvidenceBundle{}, err
	}
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return EvidenceBundle{}, fmt.Errorf("recommend: open gzip bundle: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return EvidenceBundle{}, fmt.Errorf("recommend: decompress bundle: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	wantHex := hex.EncodeToString(sum[:])
	gotHex := filepath.Base(path)
	gotHex = gotHex[:len(gotHex)-len(".json.gz")]
	if wantHex != gotHex {
		return EvidenceBundle{}, fmt.Errorf("recommend: bundle %s failed SHA-256 validation", path)
	}

	var bundle EvidenceBundle
	if err := json.Unmarshal(buf.Bytes(), &bundle); err != nil {
		return EvidenceBundle{}, fmt.Errorf("recommend: unmarshal bundle: %w", err)
	}
	return bundle, nil
}
