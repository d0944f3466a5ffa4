// Package audit publishes decision records for offline review.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// Publisher is satisfied by *qstash.Client.
type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte) (string, error)
}

// QStashSink forwards each DecisionRecord to a QStash destination.
type QStashSink struct {
	publisher   Publisher
	destination string
}

var _ contractx.AuditSink = (*QStashSink)(nil)

func NewQStashSink(publisher Publisher, destination string) (*QStashSink, error) {
	if publisher == nil {
		return nil, errors.New("audit publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("audit destination is required")
	}
	return &QStashSink{publisher: publisher, destination: destination}, nil
}

func (s *QStashSink) Record(ctx context.Context, rec contractx.DecisionRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	id, err := s.publisher.Publish(ctx, s.destination, body)
	if err != nil {
		return fmt.Errorf("%w: audit publish: %v", contractx.ErrDownstream, err)
	}
	log.Debug().
		Str("session_id", rec.SessionID).
		Str("message_id", id).
		Msg("decision record published")
	return nil
}

// LogSink writes decision records to the structured log.
type LogSink struct{}

var _ contractx.AuditSink = LogSink{}

func (LogSink) Record(ctx context.Context, rec contractx.DecisionRecord) error {
	log.Info().
		Str("session_id", rec.SessionID).
		Str("action", string(rec.Decision.Action)).
		Str("response_key", string(rec.Decision.ResponseKey)).
		Str("rule", ruleName(rec.Decision)).
		Time("decided_at", rec.DecidedAt).
		Msg("decision recorded")
	return nil
}

func ruleName(d contractx.Decision) string {
	if d.Rule == nil {
		return ""
	}
	return d.Rule.RuleName()
}
