package pipelinenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// Decide builds the NegotiationContext from the pre-turn history and runs the
// decider. The history snapshot excludes the current message.
func Decide(
	ctx context.Context,
	in *GraphState,
	decider contractx.Decider,
	prices contractx.PriceSource,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	mam, asking, err := prices.Prices(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve prices: %w", err)
	}

	in.Context = contractx.NewNegotiationContext(mam, asking, in.Classification.Value, in.SessionID, in.Session.History())
	in.Decision = decider.Decide(in.Context)
	return in, nil
}
