package scoring

import (
	"testing"

	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccelerationScore_Bounds(t *testing.T) {
	assert.Equal(t, 0.20, accelerationScore(-5))
	assert.Equal(t, 0.20, accelerationScore(0))
	assert.Equal(t, 0.95, accelerationScore(2.0))
	assert.Equal(t, 0.95, accelerationScore(100))
	assert.InDelta(t, 0.575, accelerationScore(1.0), 0.001)
}

func TestIntentScore_TwoSegmentCurve(t *testing.T) {
	assert.Equal(t, 0.20, intentScore(0))
	assert.InDelta(t, 0.425, intentScore(0.10), 0.001)
	assert.InDelta(t, 0.65, intentScore(0.20), 0.001)
	assert.InDelta(t, 0.80, intentScore(0.35), 0.001)
	assert.Equal(t, 0.95, intentScore(0.50))
	assert.Equal(t, 0.95, intentScore(1.0))
}

func TestSpreadScore_TakesMaxOfSourceAndPlatform(t *testing.T) {
	assert.Equal(t, 0.0, spreadScore(1, 1))
	assert.InDelta(t, 1.0/3, spreadScore(2, 1), 0.001)
	assert.InDelta(t, 2.0/3, spreadScore(1, 3), 0.001)
	assert.Equal(t, 1.0, spreadScore(4, 4))
	assert.Equal(t, 1.0, spreadScore(10, 1))
}

func TestBaselineScore_Bounds(t *testing.T) {
	assert.Equal(t, 0.20, baselineScore(0))
	assert.Equal(t, 0.20, baselineScore(1))
	assert.Equal(t, 0.95, baselineScore(20))
	assert.Equal(t, 0.95, baselineScore(100))
}

func TestSuppressionScore_IsOneMinusMemeRisk(t *testing.T) {
	assert.Equal(t, 1.0, suppressionScore(0))
	assert.Equal(t, 0.5, suppressionScore(0.5))
	assert.Equal(t, 0.0, suppressionScore(1))
	assert.Equal(t, 0.0, suppressionScore(1.5))
}

func TestFinal_WeightedSumClamped(t *testing.T) {
	f := FactorScores{Acceleration: 1, Intent: 1, Spread: 1, Baseline: 1, Suppression: 1}
	w := Weights{Acceleration: 0.2, Intent: 0.3, Spread: 0.2, Baseline: 0.15, Suppression: 0.15}
	assert.InDelta(t, 1.0, Final(f, w), 0.0001)

	f2 := FactorScores{}
	assert.Equal(t, 0.0, Final(f2, w))
}

func TestGateCheck_StrictLessThan(t *testing.T) {
	g := Gates{Intent: 0.50, Suppression: 0.40, Spread: 0.25}

	assert.Equal(t, models.GateFailedNone, GateCheck(FactorScores{Intent: 0.50, Suppression: 0.40, Spread: 0.25}, g))
	assert.Equal(t, models.GateFailedIntent, GateCheck(FactorScores{Intent: 0.49, Suppression: 0.90, Spread: 0.90}, g))
	assert.Equal(t, models.GateFailedSuppression, GateCheck(FactorScores{Intent: 0.90, Suppression: 0.39, Spread: 0.90}, g))
	assert.Equal(t, models.GateFailedSpread, GateCheck(FactorScores{Intent: 0.90, Suppression: 0.90, Spread: 0.24}, g))
}

func TestClassify_PromotionIsInclusive(t *testing.T) {
	b := Bands{High: 0.60, Watchlist: 0.50}

	assert.Equal(t, models.BandHigh, Classify(0.60, b))
	assert.Equal(t, models.BandHigh, Classify(0.99, b))
	assert.Equal(t, models.BandWatchlist, Classify(0.50, b))
	assert.Equal(t, models.BandWatchlist, Classify(0.59, b))
	assert.Equal(t, models.BandSuppressed, Classify(0.49, b))
}

func TestIsWatchlistWarming(t *testing.T) {
	warming, reason := IsWatchlistWarming(models.BandWatchlist, FactorScores{Spread: 0.65})
	assert.True(t, warming)
	assert.Equal(t, "spread", reason)

	// A 2-point share-of-voice gain saturates acceleration past the warm
	// threshold on its own.
	warming, reason = IsWatchlistWarming(models.BandSuppressed, FactorScores{Acceleration: accelerationScore(2.0)})
	assert.True(t, warming)
	assert.Equal(t, "acceleration", reason)

	warming, reason = IsWatchlistWarming(models.BandWatchlist, FactorScores{Intent: 0.45})
	assert.True(t, warming)
	assert.Equal(t, "intent", reason)

	warming, _ = IsWatchlistWarming(models.BandHigh, FactorScores{Spread: 0.99, Acceleration: 0.99, Intent: 0.99})
	assert.False(t, warming)

	warming, _ = IsWatchlistWarming(models.BandSuppressed, FactorScores{Spread: 0.1, Acceleration: 0.1, Intent: 0.1})
	assert.False(t, warming)
}
