// Package strategy holds the rule-based negotiation policy.
package strategy

import (
	"math"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// Thresholds and PolicyVersion move together: any change to a threshold or
// to rule order requires a new PolicyVersion.
const (
	PolicyType    = "rule-based"
	PolicyVersion = "1.2.0"

	SentimentAcceptThresholdPercent = 0.95
	LowballThresholdPercent         = 0.70
)

// RuleBased is the stateless decider. The zero value is ready to use.
type RuleBased struct{}

var _ contractx.Decider = RuleBased{}

func (RuleBased) Decide(nc contractx.NegotiationContext) contractx.Decision {
	return Decide(nc)
}

// Decide evaluates the rules in priority order; the first match wins.
func Decide(nc contractx.NegotiationContext) contractx.Decision {
	offer := nc.UserOffer
	mam := nc.MAM

	if nc.UserSentiment == contractx.SentimentNegative && offer >= mam*SentimentAcceptThresholdPercent {
		return decision(contractx.ActionAccept, contractx.ResponseAcceptSentimentClose, &offer,
			contractx.SentimentCloseRule{
				UserOffer:        offer,
				Sentiment:        nc.UserSentiment,
				ThresholdPercent: SentimentAcceptThresholdPercent,
			})
	}

	// The floor is never violated downward once met.
	if offer >= mam {
		return decision(contractx.ActionAccept, contractx.ResponseAcceptFinal, &offer,
			contractx.StandardAcceptRule{UserOffer: offer})
	}

	if offer < mam*LowballThresholdPercent {
		return decision(contractx.ActionReject, contractx.ResponseRejectLowball, nil,
			contractx.LowballRejectRule{
				UserOffer:        offer,
				ThresholdPercent: LowballThresholdPercent,
			})
	}

	midpoint := math.Ceil((nc.AskingPrice + offer) / 2)
	counter := midpoint
	clamped := false
	if counter < mam {
		counter = mam
		clamped = true
	}
	return decision(contractx.ActionCounter, contractx.ResponseStandardCounter, &counter,
		contractx.MidpointCounterRule{
			UserOffer:   offer,
			AskingPrice: nc.AskingPrice,
			Midpoint:    midpoint,
			Counter:     counter,
			Clamped:     clamped,
		})
}

func decision(
	action contractx.Action,
	key contractx.ResponseKey,
	counter *float64,
	rule contractx.RuleOutcome,
) contractx.Decision {
	return contractx.NewDecision(action, key, counter, PolicyType, PolicyVersion, rule)
}
