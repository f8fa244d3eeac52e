// Package aggregate computes the read-only daily projections from
// ProcessedPost history and drives the trigger emitter.
//
// Brands and tags are stored as JSON-encoded sets (models.StringSet)
// rather than normalized join tables, so the brand and tag cross product
// the projection needs is computed in Go rather than in dialect-specific
// SQL. This is the one place the repo reaches for application code over a
// SQL view.
package aggregate

import (
	"time"

	"eva-finance/internal/models"

	"gorm.io/gorm"
)

// DailyBrandTag is one row of the daily brand+tag summary projection.
type DailyBrandTag struct {
	Day              time.Time
	Brand            string
	Tag              string
	MessageCount     int
	SourceCount      int
	PlatformCount    int
	ActionIntentRate float64
	EvalIntentRate   float64
}

type joined struct {
	models.ProcessedPost
	Source     string
	OccurredAt time.Time
}

// isActionIntent reports whether an intent counts toward the action-intent
// rate used by the intent factor.
func isActionIntent(intent models.Intent) bool {
	return intent == models.IntentBuy || intent == models.IntentOwn || intent == models.IntentRecommendation
}

// isEvaluative reports whether a post is evaluative language with no
// action attached — the meme-risk input for the suppression factor.
func isEvaluative(p models.ProcessedPost) bool {
	if isActionIntent(p.Intent) {
		return false
	}
	return p.Sentiment == models.SentimentPositive || p.Sentiment == models.SentimentNegative ||
		p.Sentiment == models.SentimentStrongPositive || p.Sentiment == models.SentimentStrongNegative
}

// DailyBrandTagSummary computes the (day, brand, tag) summary rows for a
// single UTC day from ProcessedPost history.
func DailyBrandTagSummary(db *gorm.DB, day time.Time) ([]DailyBrandTag, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	var rows []joined
	err := db.Table("processed_posts").
		Select("processed_posts.*, raw_posts.source AS source, raw_posts.occurred_at AS occurred_at").
		Joins("JOIN raw_posts ON raw_posts.id = processed_posts.raw_id").
		Where("raw_posts.occurred_at >= ? AND raw_posts.occurred_at < ?", start, end).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type key struct{ brand, tag string }
	type acc struct {
		count      int
		sources    map[string]bool
		platforms  map[string]bool
		actionHits int
		evalHits   int
	}
	buckets := map[key]*acc{}

	for _, r := range rows {
		for _, brand := range r.Brands {
			for _, tag := range r.Tags {
				k := key{brand, tag}
				b, ok := buckets[k]
				if !ok {
					b = &acc{sources: map[string]bool{}, platforms: map[string]bool{}}
					buckets[k] = b
				}
				b.count++
				b.sources[r.Source] = true
				b.platforms[r.Source] = true // platform == source until a second platform ships
				if isActionIntent(r.Intent) {
					b.actionHits++
				}
				if isEvaluative(r.ProcessedPost) {
					b.evalHits++
				}
			}
		}
	}

	out := make([]DailyBrandTag, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, DailyBrandTag{
			Day:              start,
			Brand:            k.brand,
			Tag:              k.tag,
			MessageCount:     b.count,
			SourceCount:      len(b.sources),
			PlatformCount:    len(b.platforms),
			ActionIntentRate: rate(b.actionHits, b.count),
			EvalIntentRate:   rate(b.evalHits, b.count),
		})
	}
	return out, nil
}

func rate(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
