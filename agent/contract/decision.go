package contract

import "encoding/json"

type Action string

const (
	ActionAccept  Action = "ACCEPT"
	ActionReject  Action = "REJECT"
	ActionCounter Action = "COUNTER"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAccept, ActionReject, ActionCounter:
		return true
	default:
		return false
	}
}

// ResponseKey selects a phrasing template family.
type ResponseKey string

const (
	ResponseAcceptSentimentClose ResponseKey = "ACCEPT_SENTIMENT_CLOSE"
	ResponseAcceptFinal          ResponseKey = "ACCEPT_FINAL"
	ResponseRejectLowball        ResponseKey = "REJECT_LOWBALL"
	ResponseStandardCounter      ResponseKey = "STANDARD_COUNTER"
	ResponseAskQuestion          ResponseKey = "ASK_QUESTION"
	ResponseDefault              ResponseKey = "DEFAULT"
)

// Decision is the output of the strategy decider. Build it with NewDecision;
// the zero value is not a valid decision.
type Decision struct {
	Action        Action
	ResponseKey   ResponseKey
	PolicyType    string
	PolicyVersion string
	Rule          RuleOutcome

	counterPrice float64
	hasCounter   bool
}

func NewDecision(
	action Action,
	key ResponseKey,
	counter *float64,
	policyType string,
	policyVersion string,
	rule RuleOutcome,
) Decision {
	d := Decision{
		Action:        action,
		ResponseKey:   key,
		PolicyType:    policyType,
		PolicyVersion: policyVersion,
		Rule:          rule,
	}
	if counter != nil {
		d.counterPrice = *counter
		d.hasCounter = true
	}
	return d
}

// Counter reports the counter price, if the decision carries one.
func (d Decision) Counter() (float64, bool) {
	return d.counterPrice, d.hasCounter
}

type decisionJSON struct {
	Action           Action         `json:"action"`
	ResponseKey      ResponseKey    `json:"response_key"`
	CounterPrice     *float64       `json:"counter_price"`
	PolicyType       string         `json:"policy_type"`
	PolicyVersion    string         `json:"policy_version"`
	DecisionMetadata map[string]any `json:"decision_metadata"`
}

func (d Decision) MarshalJSON() ([]byte, error) {
	out := decisionJSON{
		Action:        d.Action,
		ResponseKey:   d.ResponseKey,
		PolicyType:    d.PolicyType,
		PolicyVersion: d.PolicyVersion,
	}
	if price, ok := d.Counter(); ok {
		out.CounterPrice = &price
	}
	if d.Rule != nil {
		out.DecisionMetadata = RuleMetadata(d.Rule)
	}
	return json.Marshal(out)
}

// RuleOutcome records which rule fired and the values it used. The set of
// implementations is closed: one type per rule.
type RuleOutcome interface {
	RuleName() string
	fields() map[string]any
}

// RuleMetadata flattens a rule outcome into the open audit map.
func RuleMetadata(r RuleOutcome) map[string]any {
	m := r.fields()
	m["rule"] = r.RuleName()
	return m
}

type SentimentCloseRule struct {
	UserOffer        float64
	Sentiment        string
	ThresholdPercent float64
}

func (SentimentCloseRule) RuleName() string { return "sentiment_accept_on_negative" }

func (r SentimentCloseRule) fields() map[string]any {
	return map[string]any{
		"user_offer":        r.UserOffer,
		"sentiment":         r.Sentiment,
		"threshold_percent": r.ThresholdPercent,
	}
}

type StandardAcceptRule struct {
	UserOffer float64
}

func (StandardAcceptRule) RuleName() string { return "user_offer_gte_mam" }

func (r StandardAcceptRule) fields() map[string]any {
	return map[string]any{
		"user_offer": r.UserOffer,
	}
}

type LowballRejectRule struct {
	UserOffer        float64
	ThresholdPercent float64
}

func (LowballRejectRule) RuleName() string { return "user_offer_lt_lowball_threshold" }

func (r LowballRejectRule) fields() map[string]any {
	return map[string]any{
		"user_offer":        r.UserOffer,
		"threshold_percent": r.ThresholdPercent,
	}
}

type MidpointCounterRule struct {
	UserOffer   float64
	AskingPrice float64
	Midpoint    float64
	Counter     float64
	Clamped     bool
}

func (MidpointCounterRule) RuleName() string { return "standard_counter_midpoint" }

func (r MidpointCounterRule) fields() map[string]any {
	return map[string]any{
		"user_offer":         r.UserOffer,
		"asking_price":       r.AskingPrice,
		"midpoint":           r.Midpoint,
		"calculated_counter": r.Counter,
		"clamped_to_floor":   r.Clamped,
	}
}
