package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"eva-finance/internal/models"
)

// RenderMarkdown renders the fixed-template markdown draft keyed to the
// snapshot and bundle. The template has no conditionals worth reaching for
// text/template over, so it is assembled with a plain string builder.
func RenderMarkdown(event models.SignalEvent, snapshot *models.ConfidenceScore, bundlePath, bundleSHA256 string, excerpts []Excerpt) string {
	confidence := "UNKNOWN"
	band := "UNKNOWN"
	if snapshot != nil {
		confidence = fmt.Sprintf("%.3f", snapshot.FinalConfidence)
		band = string(snapshot.Band)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "schema: eva-finance-recommendation\n")
	fmt.Fprintf(&b, "schema_version: v1\n")
	fmt.Fprintf(&b, "generated_at: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "anchor:\n")
	fmt.Fprintf(&b, "  signal_event_id: %d\n", event.ID)
	fmt.Fprintf(&b, "  event_kind: %q\n", event.Kind)
	fmt.Fprintf(&b, "  event_day: %q\n\n", event.Day.Format("2006-01-02"))
	fmt.Fprintf(&b, "entity:\n")
	fmt.Fprintf(&b, "  brand: %q\n", event.Brand)
	fmt.Fprintf(&b, "  tag: %q\n\n", event.Tag)
	fmt.Fprintf(&b, "evidence:\n")
	fmt.Fprintf(&b, "  bundle_path: %q\n", bundlePath)
	fmt.Fprintf(&b, "  bundle_sha256: %q\n", bundleSHA256)
	fmt.Fprintf(&b, "  max_excerpts: %d\n", MaxExcerpts)
	fmt.Fprintf(&b, "  max_chars_each: %d\n", MaxExcerptChars)
	fmt.Fprintf(&b, "  sanitize_usernames: true\n")
	fmt.Fprintf(&b, "  sanitize_urls: true\n")
	fmt.Fprintf(&b, "---\n\n")

	fmt.Fprintf(&b, "# EVA-Finance Recommendation\n\n")
	fmt.Fprintf(&b, "## 1. Executive Assessment\n\n")
	fmt.Fprintf(&b, "**Confidence:** %s\n", confidence)
	fmt.Fprintf(&b, "**Band:** %s\n\n", band)
	fmt.Fprintf(&b, "EVA detected a threshold crossing for **%s** on the **%s** behavior tag. ", event.Brand, event.Tag)
	fmt.Fprintf(&b, "This is a pattern snapshot, not investment advice.\n\n")

	fmt.Fprintf(&b, "## 2. Why This Brand (human review)\n\n[Write thesis here.]\n\n")
	fmt.Fprintf(&b, "## 3. Why Now\n\nSee the five-factor breakdown in the evidence bundle.\n\n")

	fmt.Fprintf(&b, "## 4. Evidence Excerpts (sanitized)\n\n")
	if len(excerpts) == 0 {
		fmt.Fprintf(&b, "_(no evidence excerpts selected)_\n\n")
	}
	for _, e := range excerpts {
		fmt.Fprintf(&b, "- `%s | %s`\n", e.Source, e.OccurredAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "  > %s\n", e.Text)
		fmt.Fprintf(&b, "  *Intent:* %s | *Sentiment:* %s\n\n", e.Intent, e.Sentiment)
	}

	fmt.Fprintf(&b, "## 5. Risks & Disconfirming Signals (human review)\n\n- [Add risks here.]\n\n")
	fmt.Fprintf(&b, "## 6. Post-Recommendation Tracking\n\n")
	fmt.Fprintf(&b, "Review windows: 30 / 90 / 180 days. Outcome classification: pending.\n")

	return b.String()
}

// SHA256Hex is the content hash of the markdown body, stored on the
// RecommendationDraft row so operators can verify it wasn't tampered with
// between registration and approval.
func SHA256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
