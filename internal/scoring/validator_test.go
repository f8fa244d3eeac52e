package scoring

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interestServer serves a 90-point series whose last 30 days sit at
// last30 and whose prior 60 days sit at prior60.
func interestServer(t *testing.T, hits *int32, last30, prior60 float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		fmt.Fprint(w, `{"points":[`)
		for i := 0; i < 90; i++ {
			v := prior60
			if i >= 60 {
				v = last30
			}
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"date":"2026-05-%02d","interest":%f}`, i%28+1, v)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func TestValidate_RisingTrendCompletesWithBoost(t *testing.T) {
	var hits int32
	srv := interestServer(t, &hits, 0.60, 0.40)
	defer srv.Close()

	v := NewValidator(srv.URL, "key", true, time.Hour)
	result := v.Validate("Hoka")

	require.Equal(t, models.ValidationCompleted, result.Status)
	assert.Equal(t, models.TrendRising, result.TrendDirection)
	assert.True(t, result.ValidatesSignal)
	assert.InDelta(t, 0.15*0.60, result.ConfidenceBoost, 0.0001)
}

func TestValidate_CachesPerBrandCaseInsensitively(t *testing.T) {
	var hits int32
	srv := interestServer(t, &hits, 0.60, 0.40)
	defer srv.Close()

	v := NewValidator(srv.URL, "key", true, time.Hour)
	v.Validate("Hoka")
	v.Validate("hoka")
	v.Validate("HOKA ")

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestValidate_MalformedResponseIsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"points":[]}`)
	}))
	defer srv.Close()

	v := NewValidator(srv.URL, "key", true, time.Hour)
	result := v.Validate("Nike")

	assert.Equal(t, models.ValidationPending, result.Status)
	assert.Zero(t, result.ConfidenceBoost)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestClassifyDirection_Thresholds(t *testing.T) {
	mk := func(last30, prior60 float64) interestSeries {
		var s interestSeries
		for i := 0; i < 90; i++ {
			v := prior60
			if i >= 60 {
				v = last30
			}
			s.Points = append(s.Points, struct {
				Date     string  `json:"date"`
				Interest float64 `json:"interest"`
			}{Date: "2026-05-01", Interest: v})
		}
		return s
	}

	_, dir := classifyDirection(mk(0.60, 0.50))
	assert.Equal(t, models.TrendRising, dir)

	_, dir = classifyDirection(mk(0.40, 0.50))
	assert.Equal(t, models.TrendFalling, dir)

	_, dir = classifyDirection(mk(0.52, 0.50))
	assert.Equal(t, models.TrendStable, dir)

	_, dir = classifyDirection(mk(0.50, 0))
	assert.Equal(t, models.TrendUnknown, dir)
}

func TestValidatesSignal_Rules(t *testing.T) {
	assert.True(t, validatesSignal(models.TrendRising, 0.30))
	assert.False(t, validatesSignal(models.TrendRising, 0.29))
	assert.True(t, validatesSignal(models.TrendStable, 0.50))
	assert.False(t, validatesSignal(models.TrendStable, 0.49))
	assert.False(t, validatesSignal(models.TrendFalling, 0.99))
	assert.False(t, validatesSignal(models.TrendUnknown, 0.99))
}

func TestConfidenceBoost_AlwaysClamped(t *testing.T) {
	assert.InDelta(t, 0.15, confidenceBoost(models.TrendRising, true, 1.0), 0.0001)
	assert.InDelta(t, 0.075, confidenceBoost(models.TrendRising, true, 0.5), 0.0001)
	assert.InDelta(t, 0.05, confidenceBoost(models.TrendStable, true, 0.9), 0.0001)
	assert.InDelta(t, -0.075, confidenceBoost(models.TrendFalling, false, 0.9), 0.0001)
	assert.Zero(t, confidenceBoost(models.TrendRising, false, 0.2))
	assert.Zero(t, confidenceBoost(models.TrendUnknown, false, 0.2))
}

func TestNewValidator_EmptyBaseURLIsDisabled(t *testing.T) {
	v := NewValidator("", "key", true, time.Hour)
	assert.False(t, v.Enabled())
}
