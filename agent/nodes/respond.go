package pipelinenode

import (
	"fmt"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

// Respond appends the user turn and the reply turn, in that order.
func Respond(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.Append(statex.SpeakerUser, in.Text, in.Now)
	in.Session.Append(statex.SpeakerBot, in.Phrasing.Value.ResponseText, in.Now)
	return in, nil
}
