package extract

import (
	"strings"

	"eva-finance/internal/models"
)

// Heuristic is the deterministic fallback extractor. It is pure and total:
// for any input text it returns a Result and a nil error, even when every
// optional field ends up empty. This is what keeps the extractor's
// contract ("extraction MUST NOT fail") true in the absence of a working
// model provider.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Extract(text string) (Result, error) {
	lower := strings.ToLower(text)

	brands := detectBrands(lower)
	tags := detectTags(lower)
	sentiment := detectSentiment(lower)
	intent := detectIntent(lower, tags)

	// Multi-brand comparative enforcement: two or more distinct brands
	// plus a switch/comparative cue forces the brand-switch tag and an
	// own/buy intent, overriding whatever the lexicon pass above landed on.
	if len(brands) >= 2 && hasComparativeCue(lower) {
		if !tags.Contains("brand-switch") {
			tags = append(tags, "brand-switch")
		}
		if containsAny(lower, purchaseVerbs) {
			intent = models.IntentBuy
		} else {
			intent = models.IntentOwn
		}
	}

	return Result{
		Brands:           brands,
		Tags:             tags,
		Sentiment:        sentiment,
		Intent:           intent,
		Tickers:          nil,
		ProcessorVersion: models.ProcessorHeuristicV1,
	}, nil
}

func hasComparativeCue(lower string) bool {
	return containsAny(lower, tagLexicon["brand-switch"])
}

func detectBrands(lower string) models.StringSet {
	var found models.StringSet
	seen := map[string]bool{}
	for _, b := range knownBrands {
		if strings.Contains(lower, b) {
			canon := canonicalBrand(b)
			if !seen[canon] {
				seen[canon] = true
				found = append(found, canon)
			}
		}
	}
	return found
}

// canonicalBrand title-cases the lowercase vocabulary entry for display.
// A handful of brands have a conventional capitalization that simple
// title-casing gets wrong, so those are special-cased.
func canonicalBrand(lower string) string {
	switch lower {
	case "hoka":
		return "Hoka"
	case "nike":
		return "Nike"
	case "new balance":
		return "New Balance"
	case "on running":
		return "On Running"
	case "levi's", "levis":
		return "Levi's"
	case "kitchenaid":
		return "KitchenAid"
	case "north face":
		return "The North Face"
	default:
		return strings.Title(lower)
	}
}

func detectTags(lower string) models.StringSet {
	var found models.StringSet
	for tag, phrases := range tagLexicon {
		if containsAny(lower, phrases) {
			found = append(found, tag)
		}
	}
	return found
}

func detectSentiment(lower string) models.Sentiment {
	pos := countAny(lower, positiveWords)
	neg := countAny(lower, negativeWords)
	strong := containsAny(lower, strongIntensifiers)

	switch {
	case pos == 0 && neg == 0:
		return models.SentimentNeutral
	case pos > neg:
		if strong || pos >= 2 {
			return models.SentimentStrongPositive
		}
		return models.SentimentPositive
	case neg > pos:
		if strong || neg >= 2 {
			return models.SentimentStrongNegative
		}
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func detectIntent(lower string, tags models.StringSet) models.Intent {
	switch {
	case containsAny(lower, purchaseVerbs):
		return models.IntentBuy
	case containsAny(lower, recommendationCues):
		return models.IntentRecommendation
	case containsAny(lower, complaintCues):
		return models.IntentComplaint
	case containsAny(lower, ownershipVerbs):
		return models.IntentOwn
	default:
		return models.IntentNone
	}
}
