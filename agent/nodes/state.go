package pipelinenode

import (
	"context"
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// Stage names, used as graph node names and in degradation logs.
const (
	StageValidate       = "validate_request"
	StageLoadSession    = "load_session"
	StageClassify       = "classify"
	StageDecide         = "decide"
	StageRecordDecision = "record_decision"
	StagePhrase         = "phrase"
	StageRespond        = "respond"
	StageSaveSession    = "save_session"
	StageFinalize       = "finalize_reply"
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply    string
	Decision contractx.Decision
	// Degraded lists the stages that fell back during this run.
	Degraded []string
}

// GraphState is threaded through every stage of one run. Each external call
// leaves an explicit Outcome behind.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session        *statex.Session
	Load           contractx.Outcome[*statex.Session]
	Classification contractx.Outcome[contractx.Classification]
	Context        contractx.NegotiationContext
	Decision       contractx.Decision
	Phrasing       contractx.Outcome[contractx.PhrasingResponse]
	Save           contractx.Outcome[struct{}]

	degraded []string
}

func (s *GraphState) markDegraded(stage string) {
	s.degraded = append(s.degraded, stage)
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}

// stageContext bounds one external call; a non-positive timeout leaves ctx
// unbounded.
func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
