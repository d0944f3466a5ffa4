package pipelinenode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

// SaveSession swallows store failures; the reply is returned either way.
func SaveSession(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	callCtx, cancel := stageContext(ctx, timeout)
	defer cancel()

	if err := store.Save(callCtx, in.Session); err != nil {
		in.Save = contractx.Degraded(struct{}{}, fmt.Errorf("%w: %v", contractx.ErrDownstream, err))
		in.markDegraded(StageSaveSession)
		log.Warn().
			Err(err).
			Str("session_id", in.SessionID).
			Str("stage", StageSaveSession).
			Int("turns", len(in.Session.Turns)).
			Msg("session save failed; turn not persisted")
		return in, nil
	}

	in.Save = contractx.Success(struct{}{})
	return in, nil
}
