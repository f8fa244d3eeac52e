package recommend

import (
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"eva-finance/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Builder produces the evidence bundle + markdown draft for each
// RECOMMENDATION_ELIGIBLE event and registers a RecommendationDraft row.
type Builder struct {
	db      *gorm.DB
	dataDir string
}

func NewBuilder(db *gorm.DB, dataDir string) *Builder {
	return &Builder{db: db, dataDir: dataDir}
}

// BuildForEvent is idempotent: on a RecommendationDraft already registered
// for event.ID, it is a no-op (conflict-do-nothing on the unique
// SignalEventID index).
func (b *Builder) BuildForEvent(event models.SignalEvent) (*models.RecommendationDraft, error) {
	var existing models.RecommendationDraft
	err := b.db.Where("signal_event_id = ?", event.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	snapshot, err := b.bestSnapshot(event)
	if err != nil {
		return nil, err
	}

	excerpts, err := b.collectExcerpts(event, MaxExcerpts)
	if err != nil {
		return nil, err
	}

	bundle := BuildBundle(event, snapshot, excerpts)
	bundlePath, bundleSHA, err := WriteBundle(filepath.Join(b.dataDir, "bundles"), bundle)
	if err != nil {
		return nil, err
	}

	markdown := RenderMarkdown(event, snapshot, bundlePath, bundleSHA, excerpts)
	markdownSHA := SHA256Hex(markdown)
	markdownPath, err := writeMarkdown(filepath.Join(b.dataDir, "drafts"), markdownSHA, markdown)
	if err != nil {
		return nil, err
	}

	draft := models.RecommendationDraft{
		SignalEventID:  event.ID,
		Brand:          event.Brand,
		Tag:            event.Tag,
		EventTime:      event.CreatedAt,
		Band:           models.Band(eventBand(event)),
		BundlePath:     bundlePath,
		BundleSHA256:   bundleSHA,
		MarkdownPath:   markdownPath,
		MarkdownSHA256: markdownSHA,
		Approved:       false,
		Attempts:       0,
	}
	if snapshot != nil {
		draft.FinalConfidence = snapshot.FinalConfidence
	}

	res := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signal_event_id"}},
		DoNothing: true,
	}).Create(&draft)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to another builder run; fetch what landed.
		if err := b.db.Where("signal_event_id = ?", event.ID).First(&draft).Error; err != nil {
			return nil, err
		}
	} else {
		log.Printf("[RECOMMEND] registered draft for event=%d brand=%q tag=%q", event.ID, event.Brand, event.Tag)
	}
	return &draft, nil
}

func eventBand(event models.SignalEvent) string {
	if band, ok := event.Payload["band"].(string); ok {
		return band
	}
	return string(models.BandHigh)
}

// bestSnapshot picks the confidence snapshot within ±2 days of the event,
// preferring (in order): an exact tag match, then the closest snapshot
// at-or-before the event day, then the closest snapshot in absolute time.
func (b *Builder) bestSnapshot(event models.SignalEvent) (*models.ConfidenceScore, error) {
	var candidates []models.ConfidenceScore
	err := b.db.Where("brand = ? AND day BETWEEN ? AND ?",
		event.Brand, event.Day.AddDate(0, 0, -2), event.Day.AddDate(0, 0, 2)).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var exactTag, atOrBefore, closest *models.ConfidenceScore
	bestAbsDelta := math.MaxFloat64

	for i := range candidates {
		c := &candidates[i]
		delta := c.Day.Sub(event.Day).Hours()
		absDelta := math.Abs(delta)

		if c.Tag == event.Tag && (exactTag == nil || absDelta < math.Abs(exactTag.Day.Sub(event.Day).Hours())) {
			exactTag = c
		}
		if delta <= 0 && (atOrBefore == nil || delta > atOrBefore.Day.Sub(event.Day).Hours()) {
			atOrBefore = c
		}
		if absDelta < bestAbsDelta {
			bestAbsDelta = absDelta
			closest = c
		}
	}

	switch {
	case exactTag != nil:
		return exactTag, nil
	case atOrBefore != nil:
		return atOrBefore, nil
	default:
		return closest, nil
	}
}

// collectExcerpts gathers up to limit sanitized evidence excerpts for the
// event's (brand, tag), drawn from ProcessedPost history joined back to
// the RawPost text, clipped to MaxExcerptChars and stripped of usernames
// and URLs.
func (b *Builder) collectExcerpts(event models.SignalEvent, limit int) ([]Excerpt, error) {
	type row struct {
		RawID      uint64
		Source     string
		OccurredAt time.Time
		Text       string
		Intent     string
		Sentiment  string
		Brands     models.StringSet `gorm:"type:text"`
		Tags       models.StringSet `gorm:"type:text"`
	}

	var rows []row
	err := b.db.Table("processed_posts").
		Select("processed_posts.raw_id, processed_posts.intent, processed_posts.sentiment, processed_posts.brands, processed_posts.tags, raw_posts.source, raw_posts.text, raw_posts.occurred_at").
		Joins("JOIN raw_posts ON raw_posts.id = processed_posts.raw_id").
		Where("raw_posts.occurred_at >= ? AND raw_posts.occurred_at < ?", event.Day.AddDate(0, 0, -1), event.Day.AddDate(0, 0, 1)).
		Order("raw_posts.occurred_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	excerpts := make([]Excerpt, 0, limit)
	for _, r := range rows {
		if len(excerpts) >= limit {
			break
		}
		if !r.Brands.Contains(event.Brand) || !r.Tags.Contains(event.Tag) {
			continue
		}
		excerpts = append(excerpts, Excerpt{
			RawPostID:  r.RawID,
			Source:     r.Source,
			OccurredAt: r.OccurredAt,
			Text:       Clip(Sanitize(r.Text), MaxExcerptChars),
			Intent:     r.Intent,
			Sentiment:  r.Sentiment,
		})
	}
	return excerpts, nil
}

func writeMarkdown(dir, sha256hex, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sha256hex+".md")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}
