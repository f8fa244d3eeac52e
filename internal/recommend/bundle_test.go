package recommend

import (
	"testing"
	"time"

	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBundle_CapsExcerptsAtMax(t *testing.T) {
	event := models.SignalEvent{ID: 1, Kind: models.EventRecommendationEligible, Brand: "Hoka", Tag: "running"}
	excerpts := make([]Excerpt, MaxExcerpts+5)
	bundle := BuildBundle(event, nil, excerpts)
	assert.Len(t, bundle.Evidence, MaxExcerpts)
	assert.Equal(t, "Hoka", bundle.Entity.Brand)
	assert.Equal(t, uint64(1), bundle.Anchor.SignalEventID)
}

func TestWriteBundleThenReadBundle_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	event := models.SignalEvent{ID: 7, Kind: models.EventRecommendationEligible, Brand: "Yeti", Tag: "complaint", CreatedAt: time.Now()}
	snapshot := &models.ConfidenceScore{Brand: "Yeti", Tag: "complaint", FinalConfidence: 0.72, Band: models.BandHigh}
	excerpts := []Excerpt{{RawPostID: 1, Source: "reddit", Text: "sanitized text"}}

	bundle := BuildBundle(event, snapshot, excerpts)
	path, sha, err := WriteBundle(dir, bundle)
	require.NoError(t, err)
	require.NotEmpty(t, sha)

	readBack, err := ReadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, bundle.Anchor.SignalEventID, readBack.Anchor.SignalEventID)
	assert.Equal(t, bundle.Entity.Brand, readBack.Entity.Brand)
	assert.Len(t, readBack.Evidence, 1)
	assert.Equal(t, "sanitized text", readBack.Evidence[0].Text)
}

func TestWriteBundle_SecondWriteIsNoop(t *testing.T) {
	dir := t.TempDir()
	event := models.SignalEvent{ID: 9, Kind: models.EventRecommendationEligible, Brand: "Nike", Tag: "brand-switch"}
	bundle := BuildBundle(event, nil, nil)

	path1, sha1, err := WriteBundle(dir, bundle)
	require.NoError(t, err)
	// Same bundle value written a second time must hash to the same path
	// and be a no-op, not a re-serialize-and-compare.
	path2, sha2, err := WriteBundle(dir, bundle)
	require.NoError(t, err)

	assert.Equal(t, path1, path2)
	assert.Equal(t, sha1, sha2)
}
