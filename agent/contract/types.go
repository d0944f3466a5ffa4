package contract

import (
	"slices"
	"time"

	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

const (
	IntentUnknown     = "unknown"
	IntentMakeOffer   = "MAKE_OFFER"
	IntentAskQuestion = "ASK_QUESTION"

	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

// Classification is what the intent classifier extracted from one utterance.
type Classification struct {
	Intent    string   `json:"intent"`
	Sentiment string   `json:"sentiment"`
	Price     *float64 `json:"price,omitempty"`
}

// FallbackClassification is used whenever the classifier cannot answer.
func FallbackClassification() Classification {
	return Classification{
		Intent:    IntentUnknown,
		Sentiment: SentimentNeutral,
	}
}

// Offer returns the extracted price, or 0 when none was found.
func (c Classification) Offer() float64 {
	if c.Price == nil {
		return 0
	}
	return *c.Price
}

// NegotiationContext is the per-request input of the decider. MAM is the
// confidential floor and must not cross into the phrasing stage.
type NegotiationContext struct {
	MAM           float64       `json:"mam"`
	AskingPrice   float64       `json:"asking_price"`
	UserOffer     float64       `json:"user_offer"`
	UserIntent    string        `json:"user_intent"`
	UserSentiment string        `json:"user_sentiment"`
	SessionID     string        `json:"session_id"`
	History       []statex.Turn `json:"history"`
}

func NewNegotiationContext(
	mam float64,
	askingPrice float64,
	cls Classification,
	sessionID string,
	history []statex.Turn,
) NegotiationContext {
	return NegotiationContext{
		MAM:           mam,
		AskingPrice:   askingPrice,
		UserOffer:     cls.Offer(),
		UserIntent:    cls.Intent,
		UserSentiment: cls.Sentiment,
		SessionID:     sessionID,
		History:       slices.Clone(history),
	}
}

// PhrasingRequest is the only view of a Decision the phraser ever sees.
type PhrasingRequest struct {
	Action       Action      `json:"action"`
	ResponseKey  ResponseKey `json:"response_key"`
	CounterPrice *float64    `json:"counter_price"`
}

type PhrasingResponse struct {
	ResponseText string `json:"response_text"`
}

// NewPhrasingRequest projects d onto the fields allowed past the floor boundary.
func NewPhrasingRequest(d Decision) PhrasingRequest {
	req := PhrasingRequest{
		Action:      d.Action,
		ResponseKey: d.ResponseKey,
	}
	if price, ok := d.Counter(); ok {
		req.CounterPrice = &price
	}
	return req
}

// DecisionRecord is the audit entry published after each decision.
type DecisionRecord struct {
	SessionID string    `json:"session_id"`
	Decision  Decision  `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}
