package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStateNotFound  = errors.New("session state not found")
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
)

// DefaultTTL applies to remote backends when no TTL option is given.
const DefaultTTL = time.Hour

// Store persists sessions by id. Implementations do not lock; callers that
// need read-modify-write isolation must serialise themselves.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

func encodeSession(sess *Session) ([]byte, error) {
	if sess == nil {
		return nil, ErrNilSession
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return payload, nil
}

func decodeSession(sessionID string, payload []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	// Older payloads carry only the message log.
	if sess.SessionID == "" {
		sess.SessionID = sessionID
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session loaded from store: %w", err)
	}
	return &sess, nil
}

// ttlSeconds rounds up to whole seconds with a floor of one.
func ttlSeconds(ttl time.Duration) int64 {
	seconds := int64((ttl + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
