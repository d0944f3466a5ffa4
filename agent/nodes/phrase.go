package pipelinenode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	phraserx "github.com/tanpawarit/ina-negotiation/agent/phraser"
)

// Phrase sends only the PhrasingRequest projection of the decision.
func Phrase(
	ctx context.Context,
	in *GraphState,
	phraser contractx.ResponsePhraser,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	callCtx, cancel := stageContext(ctx, timeout)
	defer cancel()

	fallback := contractx.PhrasingResponse{ResponseText: phraserx.FallbackResponse}
	resp, err := phraser.Phrase(callCtx, contractx.NewPhrasingRequest(in.Decision))
	if err == nil && strings.TrimSpace(resp.ResponseText) == "" {
		err = fmt.Errorf("%w: empty response_text", contractx.ErrSchemaViolation)
	}
	if err != nil {
		in.Phrasing = contractx.Degraded(fallback, err)
		in.markDegraded(StagePhrase)
		log.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Str("stage", StagePhrase).
			Str("response_key", string(in.Decision.ResponseKey)).
			Msg("phraser unavailable; using fallback response")
		return in, nil
	}

	resp.ResponseText = strings.TrimSpace(resp.ResponseText)
	in.Phrasing = contractx.Success(resp)
	return in, nil
}
