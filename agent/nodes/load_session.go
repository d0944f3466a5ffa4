package pipelinenode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

// LoadSession never fails the run: a missing or unreadable session becomes
// a fresh empty one.
func LoadSession(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Load = loadSession(ctx, store, in.SessionID, in.Now, timeout)
	if in.Load.IsDegraded() {
		in.markDegraded(StageLoadSession)
		log.Warn().
			Err(in.Load.Reason).
			Str("session_id", in.SessionID).
			Str("stage", StageLoadSession).
			Msg("session load failed; starting empty session")
	}
	in.Session = in.Load.Value
	return in, nil
}

func loadSession(
	ctx context.Context,
	store statex.Store,
	sessionID string,
	now time.Time,
	timeout time.Duration,
) contractx.Outcome[*statex.Session] {
	callCtx, cancel := stageContext(ctx, timeout)
	defer cancel()

	sess, err := store.Load(callCtx, sessionID)
	switch {
	case err == nil:
		return contractx.Success(sess)
	case errors.Is(err, statex.ErrStateNotFound):
		return contractx.Success(statex.NewSession(sessionID, now))
	default:
		return contractx.Degraded(statex.NewSession(sessionID, now), fmt.Errorf("%w: %v", contractx.ErrDownstream, err))
	}
}
