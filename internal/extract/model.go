package extract

import (
	"encoding/json"
	"fmt"
	"time"

	"eva-finance/internal/evaerr"
	"eva-finance/internal/models"

	"github.com/go-resty/resty/v2"
)

// ModelExtractor is the primary, model-backed extraction path. It sends
// the post body to a configured LLM provider with a structured schema
// request and parses the response into a Result.
type ModelExtractor struct {
	client   *resty.Client
	provider string
	model    string
	enabled  bool
}

// schemaResponse is the structured JSON shape requested from the provider.
// A non-empty response with at least one parseable field counts as success.
type schemaResponse struct {
	Brands    []string `json:"brands"`
	Tags      []string `json:"tags"`
	Sentiment string   `json:"sentiment"`
	Intent    string   `json:"intent"`
	Tickers   []string `json:"tickers"`
}

// NewModelExtractor builds a client for the configured LLM provider.
// An empty provider, base URL or API key disables the primary path
// entirely; Extract then returns a PermanentExternal error.
func NewModelExtractor(baseURL, apiKey, provider, model string, timeout time.Duration) *ModelExtractor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")

	return &ModelExtractor{
		client:   client,
		provider: provider,
		model:    model,
		enabled:  provider != "" && baseURL != "" && apiKey != "",
	}
}

// ModelVersion reports the processor_version string for this provider's
// configured model, e.g. "llm-openai-gpt-4o-mini-v1".
func (m *ModelExtractor) ModelVersion() models.ProcessorVersion {
	return models.ProcessorVersion(fmt.Sprintf("%s%s-%s-v1", models.ProcessorLLMPrefix, m.provider, m.model))
}

func (m *ModelExtractor) Extract(text string) (Result, error) {
	if !m.enabled {
		return Result{}, evaerr.New("extract.model", evaerr.PermanentExternal, fmt.Errorf("model provider disabled"))
	}

	resp, err := m.client.R().
		SetBody(map[string]interface{}{
			"model": m.model,
			"input": text,
			"response_schema": map[string]interface{}{
				"brands":    "array of brand names mentioned",
				"tags":      "array of behavior tags",
				"sentiment": "one of strong_positive|positive|neutral|negative|strong_negative",
				"intent":    "one of buy|own|recommendation|complaint|none",
				"tickers":   "array of stock tickers mentioned, if any",
			},
		}).
		Post("/v1/extract")
	if err != nil {
		return Result{}, evaerr.New("extract.model", evaerr.TransientExternal, err).WithRetryHint(2 * time.Second)
	}
	if resp.IsError() {
		if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
			return Result{}, evaerr.New("extract.model", evaerr.TransientExternal, fmt.Errorf("status %d", resp.StatusCode()))
		}
		return Result{}, evaerr.New("extract.model", evaerr.PermanentExternal, fmt.Errorf("status %d", resp.StatusCode()))
	}

	var parsed schemaResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return Result{}, evaerr.New("extract.model", evaerr.TransientExternal, fmt.Errorf("malformed response: %w", err))
	}

	if !hasAtLeastOneField(parsed) {
		return Result{}, evaerr.New("extract.model", evaerr.TransientExternal, fmt.Errorf("empty extraction response"))
	}

	return Result{
		Brands:           models.StringSet(parsed.Brands),
		Tags:             models.StringSet(parsed.Tags),
		Sentiment:        closeSentiment(parsed.Sentiment),
		Intent:           closeIntent(parsed.Intent),
		Tickers:          models.StringSet(parsed.Tickers),
		ProcessorVersion: m.ModelVersion(),
	}, nil
}

func hasAtLeastOneField(r schemaResponse) bool {
	return len(r.Brands) > 0 || len(r.Tags) > 0 || r.Sentiment != "" || r.Intent != "" || len(r.Tickers) > 0
}

// closeSentiment maps an arbitrary provider string onto the closed enum,
// defaulting to neutral rather than propagating an open value.
func closeSentiment(s string) models.Sentiment {
	switch models.Sentiment(s) {
	case models.SentimentStrongPositive, models.SentimentPositive, models.SentimentNeutral,
		models.SentimentNegative, models.SentimentStrongNegative:
		return models.Sentiment(s)
	default:
		return models.SentimentNeutral
	}
}

func closeIntent(s string) models.Intent {
	switch models.Intent(s) {
	case models.IntentBuy, models.IntentOwn, models.IntentRecommendation, models.IntentComplaint, models.IntentNone:
		return models.Intent(s)
	default:
		return models.IntentNone
	}
}
