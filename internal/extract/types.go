// Package extract converts RawPost text into a structured Result via a
// model-backed primary path with a deterministic heuristic fallback. The
// fallback is pure and total: it always returns a result, never an error,
// so the pipeline never blocks on a raw post.
package extract

import "eva-finance/internal/models"

// Result is the fixed, closed-enum shape every extraction path returns.
// Runtime-flexible schemas are deliberately not modeled here — additional
// providers attach to ProcessorVersion, not to this struct.
type Result struct {
	Brands           models.StringSet
	Tags             models.StringSet
	Sentiment        models.Sentiment
	Intent           models.Intent
	Tickers          models.StringSet
	ProcessorVersion models.ProcessorVersion
}

// Extractor is the single capability every extraction path provides. The
// model-backed and heuristic implementations both satisfy it; Pipeline
// composes them with the fallback strategy.
type Extractor interface {
	Extract(text string) (Result, error)
}
