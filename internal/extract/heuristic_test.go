package extract

import (
	"testing"

	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_NikeHokaSwitch(t *testing.T) {
	h := NewHeuristic()
	result, err := h.Extract("Switched from Nike to Hoka — way more comfortable for running.")
	require.NoError(t, err)

	assert.True(t, result.Brands.Contains("Nike"))
	assert.True(t, result.Brands.Contains("Hoka"))
	assert.True(t, result.Tags.Contains("brand-switch"))
	assert.True(t, result.Tags.Contains("comfort"))
	assert.True(t, result.Tags.Contains("running"))
	assert.Equal(t, models.IntentOwn, result.Intent)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)
	assert.Equal(t, models.ProcessorHeuristicV1, result.ProcessorVersion)
}

func TestHeuristic_PurchaseVerbDominatesToBuy(t *testing.T) {
	h := NewHeuristic()
	result, err := h.Extract("Just bought Hoka instead of my old Nike pair.")
	require.NoError(t, err)

	assert.Equal(t, models.IntentBuy, result.Intent)
	assert.True(t, result.Tags.Contains("brand-switch"))
}

func TestHeuristic_NoMatchesIsTotalNotError(t *testing.T) {
	h := NewHeuristic()
	result, err := h.Extract("the weather today is mild")
	require.NoError(t, err)
	assert.Empty(t, result.Brands)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	assert.Equal(t, models.IntentNone, result.Intent)
}

func TestHeuristic_ComplaintIntent(t *testing.T) {
	h := NewHeuristic()
	result, err := h.Extract("Really disappointed with my Yeti cooler, asking for a refund.")
	require.NoError(t, err)
	assert.Equal(t, models.IntentComplaint, result.Intent)
	// Two distinct negative cues push the polarity count past the
	// strong-sentiment threshold.
	assert.Equal(t, models.SentimentStrongNegative, result.Sentiment)
}

func TestHeuristic_SingleBrandDoesNotForceSwitch(t *testing.T) {
	h := NewHeuristic()
	result, err := h.Extract("I love my Nike shoes, so comfortable for running.")
	require.NoError(t, err)
	assert.False(t, result.Tags.Contains("brand-switch"))
}
