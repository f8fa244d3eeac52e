package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsURLsAndUsernames(t *testing.T) {
	in := "check out https://example.com/thread and ping u/some_user about it"
	out := Sanitize(in)
	assert.NotContains(t, out, "https://")
	assert.Contains(t, out, "[link removed]")
	assert.Contains(t, out, "u/[user]")
	assert.NotContains(t, out, "u/some_user")
}

func TestSanitize_CollapsesExcessiveNewlines(t *testing.T) {
	in := "first line\n\n\n\n\nsecond line"
	out := Sanitize(in)
	assert.False(t, strings.Contains(out, "\n\n\n"))
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
}

func TestSanitize_TrimsSurroundingWhitespace(t *testing.T) {
	out := Sanitize("  \n hello world \n  ")
	assert.Equal(t, "hello world", out)
}

func TestClip_LeavesShortStringUntouched(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 400))
}

func TestClip_TruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("a", 500)
	clipped := Clip(long, 400)
	runes := []rune(clipped)
	assert.Equal(t, 400, len(runes))
	assert.True(t, strings.HasSuffix(clipped, "…"))
}
