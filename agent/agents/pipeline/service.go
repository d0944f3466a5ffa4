package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	nodex "github.com/tanpawarit/ina-negotiation/agent/nodes"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

const sessionKeyPrefix = "session:"

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	ClassifierTimeout time.Duration
	// PhraserTimeout bounds the phrase stage; zero leaves the backend's own
	// timeout in charge.
	PhraserTimeout time.Duration
	// StoreTimeout bounds each load and save; zero leaves the backend's own
	// timeout in charge.
	StoreTimeout time.Duration
	AuditTimeout time.Duration
	// SerializeSessions queues concurrent runs for the same session key
	// inside this process. Without it the last save wins.
	SerializeSessions bool
}

const (
	defaultClassifierTimeout = 5 * time.Second
	defaultAuditTimeout      = 2 * time.Second
)

// Reply is what a caller gets back for one user message.
type Reply struct {
	SessionID string
	Text      string
	// Assigned is set when the caller sent no user id and a fresh session
	// id was generated.
	Assigned bool
	Decision contractx.Decision
	Degraded []string
}

type Coordinator struct {
	store      statex.Store
	classifier contractx.IntentClassifier
	decider    contractx.Decider
	phraser    contractx.ResponsePhraser
	prices     contractx.PriceSource
	audit      contractx.AuditSink

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	locks       *statex.KeyedMutex

	cfg Config
	now func() time.Time
}

func New(
	store statex.Store,
	classifier contractx.IntentClassifier,
	decider contractx.Decider,
	phraser contractx.ResponsePhraser,
	prices contractx.PriceSource,
	audit contractx.AuditSink,
	cfg Config,
) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	if phraser == nil {
		return nil, errors.New("response phraser is required")
	}
	if prices == nil {
		return nil, errors.New("price source is required")
	}

	if cfg.ClassifierTimeout <= 0 {
		cfg.ClassifierTimeout = defaultClassifierTimeout
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = defaultAuditTimeout
	}

	c := &Coordinator{
		store:      store,
		classifier: classifier,
		decider:    decider,
		phraser:    phraser,
		prices:     prices,
		audit:      audit,
		cfg:        cfg,
		now:        time.Now,
	}
	if cfg.SerializeSessions {
		c.locks = statex.NewKeyedMutex()
	}

	graphRunner, err := c.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// SessionKey maps a user id onto its session key.
func SessionKey(userID string) string {
	return sessionKeyPrefix + strings.TrimSpace(userID)
}

// HandleMessage runs one negotiation turn. Only validation failures and
// internal faults are returned as errors; collaborator outages degrade to
// fallbacks inside the run.
func (c *Coordinator) HandleMessage(ctx context.Context, userID string, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrInvalidMessage
	}

	assigned := false
	if strings.TrimSpace(userID) == "" {
		userID = uuid.NewString()
		assigned = true
	}
	sessionID := SessionKey(userID)

	if c.locks != nil {
		unlock, err := c.locks.Lock(ctx, sessionID)
		if err != nil {
			return Reply{}, fmt.Errorf("wait for session %s: %w", sessionID, err)
		}
		defer unlock()
	}

	out, err := c.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      message,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		SessionID: sessionID,
		Text:      out.Reply,
		Assigned:  assigned,
		Decision:  out.Decision,
		Degraded:  out.Degraded,
	}, nil
}

// Ping reports whether the session store is reachable.
func (c *Coordinator) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
