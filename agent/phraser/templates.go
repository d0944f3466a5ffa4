package phraser

import (
	"math"
	"math/rand/v2"
	"strings"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const pricePlaceholder = "{price}"

// Template families per response key. Families for keys that carry a price
// use the {price} placeholder; REJECT_LOWBALL never names a price.
var templates = map[contractx.ResponseKey][]string{
	contractx.ResponseAcceptFinal: {
		"We can accept {price}. It's a deal.",
		"That works for us. We can agree to {price}.",
		"You've got it. We accept {price}.",
	},
	contractx.ResponseAcceptSentimentClose: {
		"I hear you. Let's close this at {price}, you have a deal.",
		"Fair enough, {price} it is. We have a deal.",
		"Let's not let this slip away. We accept {price}.",
	},
	contractx.ResponseRejectLowball: {
		"I'm sorry, but that offer is too low for us to consider.",
		"Unfortunately that offer isn't workable for us, so we have to decline it.",
		"That's well below what we can do, so I'll have to pass on this one.",
	},
	contractx.ResponseStandardCounter: {
		"We can't meet you there, but my best price is {price}.",
		"We're getting close! The best I can do for you right now is {price}.",
		"I can't accept your last offer, but I can meet you at {price}. Does that work?",
	},
	contractx.ResponseAskQuestion: {
		"Happy to help. What would you like to know?",
		"Good question. Let me know what details you need and I'll help.",
		"I'm glad to assist with your question.",
	},
	contractx.ResponseDefault: {
		"Thanks for reaching out. How can I help?",
		"I'm here to help.",
	},
}

// RandomSource picks a template index in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func familyFor(key contractx.ResponseKey) []string {
	if family, ok := templates[key]; ok {
		return family
	}
	return templates[contractx.ResponseDefault]
}

func needsPrice(tmpl string) bool {
	return strings.Contains(tmpl, pricePlaceholder)
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price with thousands separators, e.g. $48,000.
// Fractional prices keep cents and round up to the next cent, so a quoted
// counter never reads below the price the decider chose.
func FormatPrice(price float64) string {
	cents := math.Ceil(price*100 - 1e-6)
	if math.Mod(cents, 100) == 0 {
		return pricePrinter.Sprintf("$%.0f", cents/100)
	}
	return pricePrinter.Sprintf("$%.2f", cents/100)
}

func render(tmpl string, price *float64) string {
	if !needsPrice(tmpl) || price == nil {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, pricePlaceholder, FormatPrice(*price))
}
