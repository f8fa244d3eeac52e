package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"eva-finance/internal/evaerr"
	"eva-finance/internal/models"

	"github.com/go-resty/resty/v2"
)

// Validator is the external-search cross-validation hook. It owns its own
// rate-limit state: a per-brand TTL cache and a global inter-request
// minimum delay, with backoff handled by resty's retry machinery.
type Validator struct {
	client      *resty.Client
	enabled     bool
	cacheTTL    time.Duration
	minDelay    time.Duration
	mu          sync.Mutex
	cache       map[string]cacheEntry
	lastRequest time.Time
}

type cacheEntry struct {
	result   models.TrendsValidation
	cachedAt time.Time
}

// interestSeries is the wire shape returned by the search-interest
// provider for the last 90 days.
type interestSeries struct {
	Points []struct {
		Date     string  `json:"date"`
		Interest float64 `json:"interest"`
	} `json:"points"`
}

// NewValidator builds a client for the configured search-interest
// provider. baseURL == "" leaves the validator disabled; callers must
// still check Enabled() before calling Validate.
func NewValidator(baseURL, apiKey string, enabled bool, cacheTTL time.Duration) *Validator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-EVA-Client", "eva-finance-validator/1").
		SetHeader("Authorization", "Bearer "+apiKey).
		// Exponential backoff starting at 5s, doubling to a 120s cap, up
		// to 3 retries.
		SetRetryCount(3).
		SetRetryWaitTime(5 * time.Second).
		SetRetryMaxWaitTime(120 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	// The retry hook drops any keep-alive connection so the next attempt
	// opens a fresh one rather than reusing a possibly-throttled socket.
	client.AddRetryHook(func(r *resty.Response, err error) {
		client.GetClient().CloseIdleConnections()
	})

	return &Validator{
		client:   client,
		enabled:  enabled && baseURL != "",
		cacheTTL: cacheTTL,
		minDelay: 1500 * time.Millisecond,
		cache:    make(map[string]cacheEntry),
	}
}

// Enabled reports whether TRENDS_ENABLED and the provider base URL are
// both set.
func (v *Validator) Enabled() bool { return v.enabled }

// Validate returns a TrendsValidation for brand, using the per-brand 24h
// cache when fresh. On exhausted retries it returns Status = pending
// (neutral) rather than an error; the scorer must treat that as "no data".
func (v *Validator) Validate(brand string) models.TrendsValidation {
	key := models.NormalizeBrand(brand)

	v.mu.Lock()
	if entry, ok := v.cache[key]; ok && time.Since(entry.cachedAt) < v.cacheTTL {
		v.mu.Unlock()
		return entry.result
	}
	v.mu.Unlock()

	v.paceRequest()

	result, err := v.fetchAndScore(brand)
	if err != nil {
		result = models.TrendsValidation{
			Brand:        brand,
			CheckedAt:    now(),
			Status:       models.ValidationPending,
			ErrorMessage: err.Error(),
		}
	}

	v.mu.Lock()
	v.cache[key] = cacheEntry{result: result, cachedAt: time.Now()}
	v.mu.Unlock()

	return result
}

// paceRequest blocks until at least minDelay has elapsed since the last
// validator HTTP call, enforcing the global inter-request minimum delay
// across every caller of this Validator.
func (v *Validator) paceRequest() {
	v.mu.Lock()
	wait := v.minDelay - time.Since(v.lastRequest)
	v.lastRequest = time.Now()
	v.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

func (v *Validator) fetchAndScore(brand string) (models.TrendsValidation, error) {
	resp, err := v.client.R().
		SetQueryParam("brand", brand).
		SetQueryParam("days", "90").
		Get("/v1/interest")
	if err != nil {
		return models.TrendsValidation{}, evaerr.New("validate", evaerr.TransientExternal, err)
	}
	if resp.IsError() {
		return models.TrendsValidation{}, evaerr.New("validate", evaerr.TransientExternal, fmt.Errorf("status %d", resp.StatusCode()))
	}

	var series interestSeries
	if err := json.Unmarshal(resp.Body(), &series); err != nil || len(series.Points) == 0 {
		return models.TrendsValidation{}, evaerr.New("validate", evaerr.PermanentExternal, fmt.Errorf("malformed interest series"))
	}

	interest, direction := classifyDirection(series)
	validates := validatesSignal(direction, interest)
	boost := confidenceBoost(direction, validates, interest)

	return models.TrendsValidation{
		Brand:           brand,
		CheckedAt:       now(),
		SearchInterest:  interest,
		TrendDirection:  direction,
		ValidatesSignal: validates,
		ConfidenceBoost: boost,
		Status:          models.ValidationCompleted,
	}, nil
}

// classifyDirection compares the last-30-day mean against the prior-60-day
// mean of the 90-day interest series, normalized to [0,1] and classified
// rising/falling/stable at the ±20% thresholds.
func classifyDirection(series interestSeries) (interest float64, direction models.TrendDirection) {
	n := len(series.Points)
	last30 := series.Points[max(0, n-30):]
	prior60 := series.Points[max(0, n-90):max(0, n-30)]

	last30Mean := meanInterest(last30)
	prior60Mean := meanInterest(prior60)

	interest = clamp01(last30Mean)

	if prior60Mean == 0 {
		return interest, models.TrendUnknown
	}
	change := (last30Mean - prior60Mean) / prior60Mean
	// The thresholds are inclusive; the small tolerance keeps a change of
	// exactly ±20% from landing a rounding error short of the boundary.
	const tolerance = 1e-9
	switch {
	case change >= 0.20-tolerance:
		return interest, models.TrendRising
	case change <= -0.20+tolerance:
		return interest, models.TrendFalling
	default:
		return interest, models.TrendStable
	}
}

func meanInterest(points []struct {
	Date     string  `json:"date"`
	Interest float64 `json:"interest"`
}) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Interest
	}
	return sum / float64(len(points))
}

// validatesSignal: a rising trend validates at interest >= 0.30, a stable
// trend only at >= 0.50; falling and unknown never validate.
func validatesSignal(direction models.TrendDirection, interest float64) bool {
	switch direction {
	case models.TrendRising:
		return interest >= 0.30
	case models.TrendStable:
		return interest >= 0.50
	default:
		return false
	}
}

// confidenceBoost maps direction and verdict to an adjustment, always
// clamped to [-0.10, +0.15].
func confidenceBoost(direction models.TrendDirection, validates bool, interest float64) float64 {
	var boost float64
	switch {
	case direction == models.TrendRising && validates:
		boost = 0.15 * interest
	case direction == models.TrendStable && validates:
		boost = 0.05
	case direction == models.TrendFalling:
		boost = -0.075
	default:
		boost = 0
	}
	return math.Max(-0.10, math.Min(0.15, boost))
}

// now is the single indirection point for "current time" in this package,
// kept as a var so tests can freeze it.
var now = time.Now
