package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemeRisk_HighEvalLowActionRises(t *testing.T) {
	assert.Equal(t, 0.9, memeRisk(0.9, 0.0))
	assert.Equal(t, 0.0, memeRisk(0.2, 0.8))
	assert.Equal(t, 0.0, memeRisk(0.5, 0.5))
}

func TestMemeRisk_Clamped(t *testing.T) {
	assert.Equal(t, 1.0, memeRisk(2.0, 0.0))
	assert.Equal(t, 0.0, memeRisk(0.0, 1.0))
}

func TestShareOfVoice_PerTagFractions(t *testing.T) {
	rows := []DailyBrandTag{
		{Brand: "Hoka", Tag: "running", MessageCount: 6},
		{Brand: "Nike", Tag: "running", MessageCount: 4},
		{Brand: "Yeti", Tag: "durability", MessageCount: 3},
	}
	shares := shareOfVoice(rows)

	assert.InDelta(t, 0.6, shares["Hoka\x00running"], 0.0001)
	assert.InDelta(t, 0.4, shares["Nike\x00running"], 0.0001)
	assert.InDelta(t, 1.0, shares["Yeti\x00durability"], 0.0001)
}

func TestIsActionIntent(t *testing.T) {
	assert.True(t, isActionIntent("buy"))
	assert.True(t, isActionIntent("own"))
	assert.True(t, isActionIntent("recommendation"))
	assert.False(t, isActionIntent("complaint"))
	assert.False(t, isActionIntent("none"))
}
