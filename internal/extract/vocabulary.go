package extract

import "strings"

// knownBrands is the token/phrase vocabulary the heuristic fallback
// matches against: the consumer brands a BuyItForLife/Frugal/running-style
// feed set plausibly surfaces.
var knownBrands = []string{
	"nike", "hoka", "adidas", "new balance", "brooks", "asics", "saucony",
	"on running", "allbirds", "lululemon", "patagonia", "north face",
	"carhartt", "levi's", "levis", "costco", "target", "walmart",
	"apple", "samsung", "dyson", "kitchenaid", "yeti", "stanley",
}

// tagLexicon maps a behavior tag to the phrases that trigger it. Tags
// describe behaviors, not products.
var tagLexicon = map[string][]string{
	"brand-switch": {"switched from", "switched to", "instead of", "moved from", "moved to", "ditched", "replaced my"},
	"comfort":      {"comfortable", "comfy", "cushion", "cushioned", "soft", "plush"},
	"running":      {"running", "runner", "marathon", "5k", "10k", "jog", "jogging"},
	"durability":   {"lasted", "durable", "held up", "fell apart", "wore out", "still going strong"},
	"value":        {"worth it", "overpriced", "good deal", "bang for the buck", "cheap", "expensive"},
	"quality":      {"well made", "poorly made", "quality", "craftsmanship"},
	"fit":          {"fits well", "too small", "too big", "true to size", "runs small", "runs large"},
}

var positiveWords = []string{
	"love", "great", "amazing", "excellent", "comfortable", "happy", "best",
	"perfect", "recommend", "awesome", "fantastic", "impressed",
}

var negativeWords = []string{
	"hate", "terrible", "awful", "broke", "disappointed", "worst", "refund",
	"return", "garbage", "uncomfortable", "regret", "waste",
}

var strongIntensifiers = []string{"extremely", "absolutely", "completely", "totally", "very"}

var purchaseVerbs = []string{"bought", "buying", "purchased", "ordered", "just got", "picked up"}
var ownershipVerbs = []string{"own", "have had", "wearing", "using", "i have", "i've had"}
var recommendationCues = []string{"recommend", "you should try", "worth buying", "go with"}
var complaintCues = []string{"complaint", "disappointed", "refund", "return", "never again", "regret"}

func containsAny(haystack string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

func countAny(haystack string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += strings.Count(haystack, p)
	}
	return n
}
