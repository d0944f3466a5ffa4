package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Session is the persisted conversation for one negotiating user.
// Turns are append-only.
type Session struct {
	SessionID string    `json:"session_id"`
	Turns     []Turn    `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "ina"
)

type Turn struct {
	Speaker Speaker `json:"from"`
	Text    string  `json:"text"`
}

var ErrUnknownSpeaker = errors.New("unknown speaker")

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		Turns:     make([]Turn, 0, 8),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds a turn to the end of the log.
func (s *Session) Append(speaker Speaker, text string, now time.Time) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text})
	s.Touch(now)
}

// History returns a copy of the turns so callers cannot mutate the log.
func (s *Session) History() []Turn {
	if s == nil {
		return nil
	}
	return slices.Clone(s.Turns)
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, t := range s.Turns {
		if t.Speaker != SpeakerUser && t.Speaker != SpeakerBot {
			return fmt.Errorf("%w: turn=%d speaker=%q", ErrUnknownSpeaker, i, t.Speaker)
		}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = slices.Clone(s.Turns)
	return &out
}
