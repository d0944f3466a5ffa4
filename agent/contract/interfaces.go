package contract

import "context"

type IntentClassifier interface {
	Classify(ctx context.Context, text string, sessionID string) (Classification, error)
}

// Decider must be pure: same context in, same decision out.
type Decider interface {
	Decide(nc NegotiationContext) Decision
}

type ResponsePhraser interface {
	Phrase(ctx context.Context, req PhrasingRequest) (PhrasingResponse, error)
}

// PriceSource supplies the confidential floor and the listed price for a session.
type PriceSource interface {
	Prices(ctx context.Context, sessionID string) (mam float64, askingPrice float64, err error)
}

type AuditSink interface {
	Record(ctx context.Context, rec DecisionRecord) error
}
