package aggregate

import (
	"time"

	"gorm.io/gorm"
)

// Candidate is one row of the candidate-signal projection: the daily
// brand+tag summary plus yesterday's delta and a meme-risk heuristic,
// ready for the confidence scorer.
type Candidate struct {
	DailyBrandTag
	DeltaPct float64 // share-of-voice change vs yesterday, in percentage points
	MemeRisk float64 // rises when eval rate is high but action rate is low
}

// CandidateSignals computes candidates for a day by combining today's and
// yesterday's DailyBrandTagSummary.
func CandidateSignals(db *gorm.DB, day time.Time) ([]Candidate, error) {
	today, err := DailyBrandTagSummary(db, day)
	if err != nil {
		return nil, err
	}
	yesterday, err := DailyBrandTagSummary(db, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	yesterdayShare := shareOfVoice(yesterday)
	todayShare := shareOfVoice(today)

	out := make([]Candidate, 0, len(today))
	for _, row := range today {
		key := row.Brand + "\x00" + row.Tag
		delta := todayShare[key] - yesterdayShare[key]
		out = append(out, Candidate{
			DailyBrandTag: row,
			DeltaPct:      delta * 100,
			MemeRisk:      memeRisk(row.EvalIntentRate, row.ActionIntentRate),
		})
	}
	return out, nil
}

// shareOfVoice computes, per (brand, tag), that row's message count as a
// fraction of the tag's total message count that day — the input to the
// day-over-day delta used by the acceleration factor and by the trigger
// emitter's BRAND_DIVERGENCE rule.
func shareOfVoice(rows []DailyBrandTag) map[string]float64 {
	tagTotals := map[string]int{}
	for _, r := range rows {
		tagTotals[r.Tag] += r.MessageCount
	}
	out := map[string]float64{}
	for _, r := range rows {
		total := tagTotals[r.Tag]
		if total == 0 {
			continue
		}
		out[r.Brand+"\x00"+r.Tag] = float64(r.MessageCount) / float64(total)
	}
	return out
}

// memeRisk rises when evaluative language dominates but action language
// is scarce: high talk, low commitment.
func memeRisk(evalRate, actionRate float64) float64 {
	risk := evalRate - actionRate
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}
	return risk
}
