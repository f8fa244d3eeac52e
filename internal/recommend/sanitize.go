// Package recommend builds the evidence bundle and markdown draft for each
// RECOMMENDATION_ELIGIBLE event, and registers a RecommendationDraft row.
package recommend

import "regexp"

var (
	urlPattern  = regexp.MustCompile(`https?://\S+`)
	userPattern = regexp.MustCompile(`\bu/[A-Za-z0-9_-]+\b`)
	runsPattern = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips usernames and URLs from text so it is safe to surface
// in a human-readable excerpt. It never touches the canonical RawPost
// text — only what gets copied into an evidence bundle or markdown draft.
func Sanitize(text string) string {
	t := urlPattern.ReplaceAllString(text, "[link removed]")
	t = userPattern.ReplaceAllString(t, "u/[user]")
	t = runsPattern.ReplaceAllString(t, "\n\n")
	return trimSpace(t)
}

// Clip truncates s to at most n runes worth of display length, appending
// an ellipsis when it does.
func Clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
