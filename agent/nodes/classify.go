package pipelinenode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

func Classify(
	ctx context.Context,
	in *GraphState,
	classifier contractx.IntentClassifier,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	callCtx, cancel := stageContext(ctx, timeout)
	defer cancel()

	cls, err := classifier.Classify(callCtx, in.Text, in.SessionID)
	if err != nil {
		in.Classification = contractx.Degraded(contractx.FallbackClassification(), err)
		in.markDegraded(StageClassify)
		log.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Str("stage", StageClassify).
			Msg("classifier unavailable; using fallback classification")
		return in, nil
	}

	in.Classification = contractx.Success(cls)
	return in, nil
}
