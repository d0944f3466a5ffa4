package nlu

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

const (
	IntentProposeOffer = "propose_offer"
	IntentAskQuestion  = "ask_question"
)

var pricePattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)

var (
	negativeWords = []string{
		"ridiculous", "ripoff", "rip-off", "too much", "too expensive", "expensive",
		"annoyed", "angry", "frustrated", "waste", "forget it", "last offer",
		"final offer", "walk away", "unhappy", "terrible", "insane",
	}
	positiveWords = []string{
		"great", "thanks", "thank you", "love", "happy", "perfect", "awesome",
		"deal", "sounds good", "nice",
	}
	negators = []string{"not", "no", "never", "don't", "dont"}

	negativePattern = lexiconPattern(`\b(?:%s)\b`, negativeWords)
	positivePattern = lexiconPattern(`\b(?:%s)\b`, positiveWords)
	// "no deal", "not happy", "not a great price"
	negatedPattern = regexp.MustCompile(fmt.Sprintf(`\b(?:%s)\s+(?:(?:a|an|so|very|that|too)\s+)?(?:%s)\b`,
		alternation(negators), alternation(positiveWords)))
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func lexiconPattern(format string, words []string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(format, alternation(words)))
}

// RegexClassifier is the in-process classifier: the first number in the
// text is the offer, a small lexicon gives the sentiment.
type RegexClassifier struct{}

var _ contractx.IntentClassifier = RegexClassifier{}

func (RegexClassifier) Classify(ctx context.Context, text string, _ string) (contractx.Classification, error) {
	if err := ctx.Err(); err != nil {
		return contractx.Classification{}, err
	}
	return Parse(text).Classification(), nil
}

// Parse produces the /parse wire response for text.
func Parse(text string) ParseResponse {
	lower := strings.ToLower(text)

	price, ok := extractPrice(lower)
	resp := ParseResponse{
		Intent:    IntentAskQuestion,
		Sentiment: detectSentiment(lower),
	}
	if ok {
		resp.Intent = IntentProposeOffer
		resp.Entities.Price = &price
	}
	return resp
}

func extractPrice(text string) (float64, bool) {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	if m[2] != "" {
		value *= 1000
	}
	return value, true
}

// detectSentiment matches whole words only; a negated positive counts as
// negative.
func detectSentiment(text string) string {
	switch {
	case negatedPattern.MatchString(text), negativePattern.MatchString(text):
		return contractx.SentimentNegative
	case positivePattern.MatchString(text):
		return contractx.SentimentPositive
	default:
		return contractx.SentimentNeutral
	}
}
