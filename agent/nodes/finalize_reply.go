package pipelinenode

import (
	"fmt"
	"slices"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{
		Reply:    in.Phrasing.Value.ResponseText,
		Decision: in.Decision,
		Degraded: slices.Clone(in.degraded),
	}, nil
}
