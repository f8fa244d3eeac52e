// Package scoring implements the confidence scoring engine: five weighted
// factor scores, configurable hard gates, band classification, and the
// optional external-search validator adjustment. The acceleration and
// baseline factors are piecewise-linear mappings; each one is monotonic in
// its input and bounded to [0,1].
package scoring

import (
	"time"

	"eva-finance/internal/aggregate"
	"eva-finance/internal/models"

	"gorm.io/gorm"
)

// Weights are the five factor weights. They must sum to 1.0; config.Load
// validates this before a Weights value is ever built.
type Weights struct {
	Intent       float64
	Acceleration float64
	Spread       float64
	Baseline     float64
	Suppression  float64
}

// Gates are the hard per-factor minimums. A candidate failing any one of
// these is forced SUPPRESSED with final = 0.
type Gates struct {
	Intent      float64
	Suppression float64
	Spread      float64
}

// Bands are the two promotion thresholds for band classification.
type Bands struct {
	High      float64
	Watchlist float64
}

// FactorScores is the five-factor breakdown persisted on ConfidenceScore.
type FactorScores struct {
	Acceleration float64
	Intent       float64
	Spread       float64
	Baseline     float64
	Suppression  float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lerp maps x linearly from [xLow, xHigh] onto [yLow, yHigh], clamping at
// the ends. Every piecewise-linear factor below is built from this.
func lerp(x, xLow, xHigh, yLow, yHigh float64) float64 {
	if x <= xLow {
		return yLow
	}
	if x >= xHigh {
		return yHigh
	}
	return yLow + (x-xLow)/(xHigh-xLow)*(yHigh-yLow)
}

// accelerationScore maps the candidate's day-over-day share-of-voice delta
// (percentage points, see aggregate.Candidate.DeltaPct) onto [0,1]. A flat
// or shrinking share scores 0.20; a gain of 2 points or more saturates at
// 0.95 — most daily moves are fractions of a point, so the curve is steep
// by design.
func accelerationScore(deltaPct float64) float64 {
	return clamp01(lerp(deltaPct, 0, 2.0, 0.20, 0.95))
}

// intentScore maps the action-intent rate (buy/own/recommendation share of
// messages) onto [0,1] in two segments: a steep climb from 0.20 to 0.65
// over the first fifth of the rate, then a gentler rise that saturates at
// 0.95 once half the messages carry action intent.
func intentScore(actionIntentRate float64) float64 {
	if actionIntentRate <= 0.20 {
		return clamp01(lerp(actionIntentRate, 0, 0.20, 0.20, 0.65))
	}
	return clamp01(lerp(actionIntentRate, 0.20, 0.50, 0.65, 0.95))
}

// spreadScore is the max of the source-count and platform-count breadth
// ratios, each saturating at 4 distinct sources/platforms.
func spreadScore(sourceCount, platformCount int) float64 {
	bySource := float64(sourceCount-1) / 3.0
	byPlatform := float64(platformCount-1) / 3.0
	s := bySource
	if byPlatform > s {
		s = byPlatform
	}
	return clamp01(s)
}

// baselineScore maps the recent average daily message count for a
// (brand, tag) pair onto [0,1]: one message a day or fewer scores 0.20,
// twenty or more saturates at 0.95.
func baselineScore(avgMessageCount float64) float64 {
	if avgMessageCount <= 1 {
		return 0.20
	}
	return clamp01(lerp(avgMessageCount, 0, 20, 0.20, 0.95))
}

// suppressionScore is 1 - meme_risk.
func suppressionScore(memeRisk float64) float64 {
	return clamp01(1 - memeRisk)
}

// Compute derives the five factor scores for a candidate, using n days of
// history for the baseline factor's rolling average.
func Compute(db *gorm.DB, c aggregate.Candidate, day time.Time, baselineLookbackDays int) (FactorScores, error) {
	avg, err := recentAverageCount(db, c.Brand, c.Tag, day, baselineLookbackDays)
	if err != nil {
		return FactorScores{}, err
	}

	return FactorScores{
		Acceleration: accelerationScore(c.DeltaPct),
		Intent:       intentScore(c.ActionIntentRate),
		Spread:       spreadScore(c.SourceCount, c.PlatformCount),
		Baseline:     baselineScore(avg),
		Suppression:  suppressionScore(c.MemeRisk),
	}, nil
}

// recentAverageCount averages message counts for (brand, tag) over the
// last n days including today, used as the baseline factor's stability
// input. Computed from the projection rather than a stored rolling series,
// so a score row stays recomputable from ProcessedPost history alone.
func recentAverageCount(db *gorm.DB, brand, tag string, day time.Time, n int) (float64, error) {
	total := 0
	seen := 0
	for i := 0; i < n; i++ {
		d := day.AddDate(0, 0, -i)
		rows, err := aggregate.DailyBrandTagSummary(db, d)
		if err != nil {
			return 0, err
		}
		for _, r := range rows {
			if r.Brand == brand && r.Tag == tag {
				total += r.MessageCount
				seen++
			}
		}
	}
	if seen == 0 {
		return 0, nil
	}
	return float64(total) / float64(n), nil
}

// Final combines the five factors into a clamped weighted score.
func Final(f FactorScores, w Weights) float64 {
	sum := w.Acceleration*f.Acceleration +
		w.Intent*f.Intent +
		w.Spread*f.Spread +
		w.Baseline*f.Baseline +
		w.Suppression*f.Suppression
	return clamp01(sum)
}

// GateCheck applies the hard gates. The comparison is strictly "<", never
// "<=": a factor exactly equal to its gate passes.
func GateCheck(f FactorScores, g Gates) models.GateFailedReason {
	switch {
	case f.Intent < g.Intent:
		return models.GateFailedIntent
	case f.Suppression < g.Suppression:
		return models.GateFailedSuppression
	case f.Spread < g.Spread:
		return models.GateFailedSpread
	default:
		return models.GateFailedNone
	}
}

// Classify assigns a band from a gated final score. Promotion is ">=", so
// a final score exactly equal to a threshold promotes.
func Classify(final float64, b Bands) models.Band {
	switch {
	case final >= b.High:
		return models.BandHigh
	case final >= b.Watchlist:
		return models.BandWatchlist
	default:
		return models.BandSuppressed
	}
}

// IsWatchlistWarming reports whether a single factor is already strong
// enough to flag a candidate as warming up even though its band has not
// been promoted. Additive to the band-transition WATCHLIST_WARM rule,
// never a replacement for it.
func IsWatchlistWarming(band models.Band, f FactorScores) (bool, string) {
	if band == models.BandHigh {
		return false, ""
	}
	switch {
	case f.Spread >= 0.60:
		return true, "spread"
	case f.Acceleration >= 0.85:
		return true, "acceleration"
	case f.Intent >= 0.45:
		return true, "intent"
	default:
		return false, ""
	}
}
