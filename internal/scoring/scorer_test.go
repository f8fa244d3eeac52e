package scoring

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"eva-finance/internal/database"
	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func defaultScorerConfig() Config {
	return Config{
		Weights: Weights{Intent: 0.30, Acceleration: 0.20, Spread: 0.20, Baseline: 0.15, Suppression: 0.15},
		Gates:   Gates{Intent: 0.50, Suppression: 0.40, Spread: 0.25},
		Bands:   Bands{High: 0.60, Watchlist: 0.50},

		BaselineLookbackDays: 14,
		MinValidationConf:    0.60,
	}
}

func seedPost(t *testing.T, db *gorm.DB, source, platformID string, at time.Time, brands, tags []string, intent models.Intent, sentiment models.Sentiment) {
	t.Helper()
	raw := models.RawPost{
		Source:     source,
		PlatformID: platformID,
		OccurredAt: at,
		Text:       "seeded",
		Processed:  true,
	}
	require.NoError(t, db.Create(&raw).Error)
	processed := models.ProcessedPost{
		RawID:            raw.ID,
		Brands:           models.StringSet(brands),
		Tags:             models.StringSet(tags),
		Sentiment:        sentiment,
		Intent:           intent,
		ProcessorVersion: models.ProcessorHeuristicV1,
	}
	require.NoError(t, db.Create(&processed).Error)
}

func TestRunOnce_BroadActionSignalGoesHighAndEmits(t *testing.T) {
	db := testDB(t)
	day := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	at := day.Add(10 * time.Hour)

	// Five own-intent brand-switch posts spread across three communities.
	for i := 0; i < 5; i++ {
		source := fmt.Sprintf("community-%d", i%3)
		seedPost(t, db, source, fmt.Sprintf("p%d", i), at,
			[]string{"Hoka"}, []string{"brand-switch"}, models.IntentOwn, models.SentimentPositive)
	}

	scorer := NewScorer(db, defaultScorerConfig(), nil)
	result, err := scorer.RunOnce(day)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.High)

	var score models.ConfidenceScore
	require.NoError(t, db.Where("brand = ? AND tag = ?", "Hoka", "brand-switch").First(&score).Error)
	assert.Equal(t, models.BandHigh, score.Band)
	assert.Equal(t, models.GateFailedNone, score.GateFailedReason)
	assert.InDelta(t, 2.0/3, score.SpreadScore, 0.01)
	assert.InDelta(t, 0.95, score.IntentScore, 0.01)
	assert.GreaterOrEqual(t, score.FinalConfidence, 0.60)

	var event models.SignalEvent
	require.NoError(t, db.Where("kind = ?", models.EventRecommendationEligible).First(&event).Error)
	assert.Equal(t, "Hoka", event.Brand)
	assert.Equal(t, "brand-switch", event.Tag)
}

func TestRunOnce_AllEvaluativeSingleCommunityIsGatedOut(t *testing.T) {
	db := testDB(t)
	day := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	at := day.Add(10 * time.Hour)

	// Ten evaluative posts from one community, no action verbs at all.
	// Yesterday looked the same, so share of voice is flat and the
	// acceleration factor stays at its floor.
	for i := 0; i < 10; i++ {
		seedPost(t, db, "community-0", fmt.Sprintf("e%d", i), at,
			[]string{"Acme"}, []string{"value"}, models.IntentNone, models.SentimentPositive)
		seedPost(t, db, "community-0", fmt.Sprintf("y%d", i), at.AddDate(0, 0, -1),
			[]string{"Acme"}, []string{"value"}, models.IntentNone, models.SentimentPositive)
	}

	scorer := NewScorer(db, defaultScorerConfig(), nil)
	result, err := scorer.RunOnce(day)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Suppressed)

	var score models.ConfidenceScore
	require.NoError(t, db.Where("brand = ? AND tag = ?", "Acme", "value").First(&score).Error)
	assert.Equal(t, models.BandSuppressed, score.Band)
	assert.Equal(t, models.GateFailedIntent, score.GateFailedReason)
	assert.Zero(t, score.FinalConfidence)

	var count int64
	require.NoError(t, db.Model(&models.SignalEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunOnce_IsIdempotentPerDay(t *testing.T) {
	db := testDB(t)
	day := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	at := day.Add(10 * time.Hour)

	for i := 0; i < 5; i++ {
		seedPost(t, db, fmt.Sprintf("community-%d", i%3), fmt.Sprintf("p%d", i), at,
			[]string{"Hoka"}, []string{"brand-switch"}, models.IntentOwn, models.SentimentPositive)
	}

	scorer := NewScorer(db, defaultScorerConfig(), nil)
	first, err := scorer.RunOnce(day)
	require.NoError(t, err)
	require.Positive(t, first.EventsEmitted)

	second, err := scorer.RunOnce(day)
	require.NoError(t, err)
	assert.Zero(t, second.EventsEmitted)

	var scoreCount, eventCount int64
	require.NoError(t, db.Model(&models.ConfidenceScore{}).Count(&scoreCount).Error)
	require.NoError(t, db.Model(&models.SignalEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), scoreCount)
	assert.Equal(t, int64(1), eventCount)
}

func TestRunOnce_PendingValidatorNeverTouchesFinalOrBand(t *testing.T) {
	db := testDB(t)
	day := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	at := day.Add(10 * time.Hour)

	for i := 0; i < 5; i++ {
		seedPost(t, db, fmt.Sprintf("community-%d", i%3), fmt.Sprintf("p%d", i), at,
			[]string{"Hoka"}, []string{"brand-switch"}, models.IntentOwn, models.SentimentPositive)
	}

	// A provider that always answers with an empty series: the validator
	// treats that as pending, never as a boost or penalty.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"points":[]}`)
	}))
	defer srv.Close()
	validator := NewValidator(srv.URL, "key", true, time.Hour)

	withValidator := NewScorer(db, defaultScorerConfig(), validator)
	_, err := withValidator.RunOnce(day)
	require.NoError(t, err)

	var score models.ConfidenceScore
	require.NoError(t, db.Where("brand = ?", "Hoka").First(&score).Error)
	assert.Equal(t, models.BandHigh, score.Band)
	assert.Equal(t, string(models.ValidationPending), score.Details["validator_status"])
	assert.Equal(t, true, score.Details["validator_consulted"])

	// The same inputs scored without a validator land on the same final.
	bare := testDB(t)
	for i := 0; i < 5; i++ {
		seedPost(t, bare, fmt.Sprintf("community-%d", i%3), fmt.Sprintf("p%d", i), at,
			[]string{"Hoka"}, []string{"brand-switch"}, models.IntentOwn, models.SentimentPositive)
	}
	noValidator := NewScorer(bare, defaultScorerConfig(), nil)
	_, err = noValidator.RunOnce(day)
	require.NoError(t, err)

	var bareScore models.ConfidenceScore
	require.NoError(t, bare.Where("brand = ?", "Hoka").First(&bareScore).Error)
	assert.Equal(t, bareScore.FinalConfidence, score.FinalConfidence)
	assert.Equal(t, bareScore.Band, score.Band)
}

func TestRunOnce_CompletedValidatorAppliesBoost(t *testing.T) {
	db := testDB(t)
	day := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	at := day.Add(10 * time.Hour)

	for i := 0; i < 5; i++ {
		seedPost(t, db, fmt.Sprintf("community-%d", i%3), fmt.Sprintf("p%d", i), at,
			[]string{"Hoka"}, []string{"brand-switch"}, models.IntentOwn, models.SentimentPositive)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"points":[`)
		for i := 0; i < 90; i++ {
			v := 0.40
			if i >= 60 {
				v = 0.60
			}
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"date":"2026-05-01","interest":%f}`, v)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer srv.Close()
	validator := NewValidator(srv.URL, "key", true, time.Hour)

	scorer := NewScorer(db, defaultScorerConfig(), validator)
	_, err := scorer.RunOnce(day)
	require.NoError(t, err)

	var score models.ConfidenceScore
	require.NoError(t, db.Where("brand = ?", "Hoka").First(&score).Error)
	assert.Equal(t, string(models.ValidationCompleted), score.Details["validator_status"])
	boost, ok := score.Details["validator_boost"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 0.15*0.60, boost, 0.0001)
	assert.Equal(t, models.BandHigh, score.Band)
}
