// Package config loads the EVA-Finance process configuration from the
// environment. It is read once at process start into an immutable value;
// nothing in the rest of the codebase calls os.Getenv directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the validated configuration surface. Every field maps to
// exactly one environment variable.
type Config struct {
	// Store
	DatabaseURL     string
	DatabaseDialect string // "mysql" or "sqlite", mysql in production

	// Scoring gates and bands
	GateIntent      float64
	GateSuppression float64
	GateSpread      float64
	BandHigh        float64
	BandWatchlist   float64

	// Factor weights; sum to 1.0, validated at load.
	WeightIntent       float64
	WeightAcceleration float64
	WeightSpread       float64
	WeightBaseline     float64
	WeightSuppression  float64

	// External-search validator
	TrendsEnabled       bool
	TrendsBaseURL       string
	TrendsAPIKey        string
	TrendsCacheHours    int
	TrendsMinConfidence float64

	// LLM primary extraction path
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	// Push gateway
	PushGatewayURL      string
	PushGatewayAPIKey   string
	NotifierTimeout     time.Duration
	NotifierMaxAttempts int
	NotifierBatchSize   int

	// Ticker lookup
	TickerLookupBaseURL string
	TickerLookupAPIKey  string

	// Market price provider
	MarketPriceBaseURL string
	MarketPriceAPIKey  string

	// Ingestion conductor
	IngestFeedBaseURL   string
	IngestFeeds         []string
	IngestPostLimit     int
	IngestPaceDelay     time.Duration
	IngestCycleInterval time.Duration
	AdmissionURL        string

	// Extractor
	ExtractBatchSize int
	ExtractIdleSleep time.Duration

	// Scoring history window and artifact storage
	BaselineLookbackDays int
	DataDir              string

	// HTTP server
	Port        string
	Environment string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid float for %s: %w", key, err)
	}
	return v, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw == "true" || raw == "1"
}

func getDurationSeconds(key string, fallbackSeconds int) (time.Duration, error) {
	v, err := getInt(key, fallbackSeconds)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}

// Load reads and validates configuration from the environment. It never
// falls back to a hardcoded credential: missing secrets are left empty and
// surfaced by the component that needs them (a disabled LLM/validator
// degrades to its fallback path, it does not crash at boot).
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseDialect: getEnv("DATABASE_DIALECT", "mysql"),

		LLMProvider: getEnv("LLM_PROVIDER", ""),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),

		PushGatewayURL:    getEnv("PUSH_GATEWAY_URL", ""),
		PushGatewayAPIKey: getEnv("PUSH_GATEWAY_API_KEY", ""),

		TickerLookupBaseURL: getEnv("TICKER_LOOKUP_BASE_URL", ""),
		TickerLookupAPIKey:  getEnv("TICKER_LOOKUP_API_KEY", ""),

		MarketPriceBaseURL: getEnv("MARKET_PRICE_BASE_URL", ""),
		MarketPriceAPIKey:  getEnv("MARKET_PRICE_API_KEY", ""),

		AdmissionURL:      getEnv("EVA_ADMISSION_URL", "http://localhost:8080/intake/message"),
		IngestFeedBaseURL: getEnv("INGEST_FEED_BASE_URL", "http://localhost:8081"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	var err error
	if cfg.GateIntent, err = getFloat("EVA_GATE_INTENT", 0.50); err != nil {
		return nil, err
	}
	if cfg.GateSuppression, err = getFloat("EVA_GATE_SUPPRESSION", 0.40); err != nil {
		return nil, err
	}
	if cfg.GateSpread, err = getFloat("EVA_GATE_SPREAD", 0.25); err != nil {
		return nil, err
	}
	if cfg.BandHigh, err = getFloat("EVA_BAND_HIGH", 0.60); err != nil {
		return nil, err
	}
	if cfg.BandWatchlist, err = getFloat("EVA_BAND_WATCHLIST", 0.50); err != nil {
		return nil, err
	}

	if cfg.WeightIntent, err = getFloat("EVA_WEIGHT_INTENT", 0.30); err != nil {
		return nil, err
	}
	if cfg.WeightAcceleration, err = getFloat("EVA_WEIGHT_ACCELERATION", 0.20); err != nil {
		return nil, err
	}
	if cfg.WeightSpread, err = getFloat("EVA_WEIGHT_SPREAD", 0.20); err != nil {
		return nil, err
	}
	if cfg.WeightBaseline, err = getFloat("EVA_WEIGHT_BASELINE", 0.15); err != nil {
		return nil, err
	}
	if cfg.WeightSuppression, err = getFloat("EVA_WEIGHT_SUPPRESSION", 0.15); err != nil {
		return nil, err
	}

	sum := cfg.WeightIntent + cfg.WeightAcceleration + cfg.WeightSpread + cfg.WeightBaseline + cfg.WeightSuppression
	if sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("config: scoring weights must sum to 1.0, got %.4f", sum)
	}

	cfg.TrendsEnabled = getBool("TRENDS_ENABLED", true)
	cfg.TrendsBaseURL = getEnv("TRENDS_BASE_URL", "")
	cfg.TrendsAPIKey = getEnv("TRENDS_API_KEY", "")
	if cfg.TrendsCacheHours, err = getInt("TRENDS_CACHE_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.TrendsMinConfidence, err = getFloat("TRENDS_MIN_CONFIDENCE", 0.60); err != nil {
		return nil, err
	}

	if cfg.LLMTimeout, err = getDurationSeconds("LLM_TIMEOUT_SECONDS", 20); err != nil {
		return nil, err
	}
	if cfg.NotifierTimeout, err = getDurationSeconds("NOTIFIER_TIMEOUT_SECONDS", 10); err != nil {
		return nil, err
	}
	if cfg.NotifierMaxAttempts, err = getInt("NOTIFIER_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.NotifierBatchSize, err = getInt("NOTIFIER_BATCH_SIZE", 10); err != nil {
		return nil, err
	}

	if cfg.IngestPostLimit, err = getInt("INGEST_POST_LIMIT", 25); err != nil {
		return nil, err
	}
	if cfg.IngestPaceDelay, err = getDurationSeconds("INGEST_PACE_DELAY_SECONDS", 2); err != nil {
		return nil, err
	}
	if cfg.IngestCycleInterval, err = getDurationSeconds("INGEST_CYCLE_INTERVAL_SECONDS", 900); err != nil {
		return nil, err
	}
	cfg.IngestFeeds = splitCSV(getEnv("INGEST_FEEDS", "BuyItForLife,Frugal,running"))

	if cfg.ExtractBatchSize, err = getInt("EXTRACT_BATCH_SIZE", 20); err != nil {
		return nil, err
	}
	if cfg.ExtractIdleSleep, err = getDurationSeconds("EXTRACT_IDLE_SLEEP_SECONDS", 10); err != nil {
		return nil, err
	}

	if cfg.BaselineLookbackDays, err = getInt("EVA_BASELINE_LOOKBACK_DAYS", 14); err != nil {
		return nil, err
	}
	cfg.DataDir = getEnv("EVA_DATA_DIR", "data")

	if cfg.DatabaseDialect != "mysql" && cfg.DatabaseDialect != "sqlite" {
		return nil, fmt.Errorf("config: unsupported DATABASE_DIALECT %q", cfg.DatabaseDialect)
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			item := trim(s[start:i])
			if item != "" {
				out = append(out, item)
			}
			start = i + 1
		}
	}
	return out
}

func trim(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}
