package pipelinenode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// RecordDecision is best-effort; a nil sink disables it.
func RecordDecision(
	ctx context.Context,
	in *GraphState,
	sink contractx.AuditSink,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if sink == nil {
		return in, nil
	}

	callCtx, cancel := stageContext(ctx, timeout)
	defer cancel()

	err := sink.Record(callCtx, contractx.DecisionRecord{
		SessionID: in.SessionID,
		Decision:  in.Decision,
		DecidedAt: in.Now,
	})
	if err != nil {
		in.markDegraded(StageRecordDecision)
		log.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Str("stage", StageRecordDecision).
			Msg("decision audit failed")
	}
	return in, nil
}
