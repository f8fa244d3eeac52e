package models

import "time"

// Sentiment is a closed enum, never an open string.
type Sentiment string

const (
	SentimentStrongPositive Sentiment = "strong_positive"
	SentimentPositive       Sentiment = "positive"
	SentimentNeutral        Sentiment = "neutral"
	SentimentNegative       Sentiment = "negative"
	SentimentStrongNegative Sentiment = "strong_negative"
)

// Intent is a closed enum, never an open string.
type Intent string

const (
	IntentBuy            Intent = "buy"
	IntentOwn            Intent = "own"
	IntentRecommendation Intent = "recommendation"
	IntentComplaint      Intent = "complaint"
	IntentNone           Intent = "none"
)

// ProcessorVersion distinguishes the extraction path that produced a
// ProcessedPost. Additional providers attach a new version string here,
// never a new field.
type ProcessorVersion string

const (
	ProcessorHeuristicV1 ProcessorVersion = "heuristic-v1"
	// ProcessorLLMPrefix is the prefix used for model-backed versions, e.g.
	// "llm-openai-gpt-4o-mini-v1". See extract.ModelVersion.
	ProcessorLLMPrefix = "llm-"
)

// ProcessedPost is the derived structured view of one RawPost. At most one
// row exists per RawID.
type ProcessedPost struct {
	ID               uint64           `json:"id" gorm:"primaryKey"`
	RawID            uint64           `json:"raw_id" gorm:"not null;uniqueIndex:idx_processed_post_raw_id"`
	Brands           StringSet        `json:"brands" gorm:"type:text"`
	Tags             StringSet        `json:"tags" gorm:"type:text"`
	Sentiment        Sentiment        `json:"sentiment" gorm:"size:32;not null"`
	Intent           Intent           `json:"intent" gorm:"size:32;not null"`
	Tickers          StringSet        `json:"tickers,omitempty" gorm:"type:text"`
	ProcessorVersion ProcessorVersion `json:"processor_version" gorm:"size:64;not null;index"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (ProcessedPost) TableName() string { return "processed_posts" }
