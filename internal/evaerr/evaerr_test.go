package evaerr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_MatchesDirectAndWrapped(t *testing.T) {
	base := New("extract.model", TransientExternal, errors.New("timeout"))
	assert.True(t, IsKind(base, TransientExternal))
	assert.False(t, IsKind(base, PermanentExternal))

	wrapped := fmt.Errorf("cycle failed: %w", base)
	assert.True(t, IsKind(wrapped, TransientExternal))
}

func TestIsKind_PlainErrorIsNoKind(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), TransientExternal))
	assert.False(t, IsKind(nil, TransientExternal))
}

func TestError_MessageCarriesStageAndKind(t *testing.T) {
	err := New("notify.claim", StoreTransient, errors.New("deadlock"))
	assert.Contains(t, err.Error(), "notify.claim")
	assert.Contains(t, err.Error(), "store_transient")
	assert.Contains(t, err.Error(), "deadlock")
}

func TestWithRetryHint(t *testing.T) {
	err := New("validate", TransientExternal, errors.New("429")).WithRetryHint(5 * time.Second)
	assert.Equal(t, 5*time.Second, err.RetryHint)
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := New("stage", PermanentExternal, inner)
	assert.ErrorIs(t, err, inner)
}
