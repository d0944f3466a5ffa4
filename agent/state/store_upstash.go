package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const upstashMaxReplyBytes = 2 << 20

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// StoreOption customizes UpstashRedisStore.
type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) { s.keyPrefix = strings.TrimSpace(prefix) }
}

// WithTTL sets the key expiry. Zero stores keys without expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) { s.ttl = ttl }
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.client = client
		}
	}
}

// UpstashRedisStore keeps one JSON document per session behind the Upstash
// Redis REST endpoint. Each call is a single command POSTed as a JSON array.
type UpstashRedisStore struct {
	endpoint  string
	token     string
	client    *http.Client
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*UpstashRedisStore)(nil)

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	switch {
	case endpoint == "":
		return nil, errors.New("upstash redis url is required")
	case strings.TrimSpace(cfg.Token) == "":
		return nil, errors.New("upstash redis token is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("upstash redis url %q: %w", endpoint, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &UpstashRedisStore{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		client:   &http.Client{Timeout: timeout},
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ttl < 0 {
		return nil, fmt.Errorf("upstash redis ttl %s is negative", s.ttl)
	}
	return s, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}
	var doc *string
	if err := s.command(ctx, &doc, "GET", key); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrStateNotFound
	}
	return decodeSession(sessionID, []byte(*doc))
}

func (s *UpstashRedisStore) Save(ctx context.Context, sess *Session) error {
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}
	key, err := s.redisKey(sess.SessionID)
	if err != nil {
		return err
	}
	args := []any{"SET", key, string(payload)}
	if s.ttl > 0 {
		args = append(args, "EX", ttlSeconds(s.ttl))
	}
	return s.command(ctx, nil, args...)
}

func (s *UpstashRedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	return s.command(ctx, nil, "DEL", key)
}

func (s *UpstashRedisStore) Ping(ctx context.Context) error {
	var reply string
	if err := s.command(ctx, &reply, "PING"); err != nil {
		return err
	}
	if !strings.EqualFold(reply, "PONG") {
		return fmt.Errorf("upstash redis ping: unexpected reply %q", reply)
	}
	return nil
}

func (s *UpstashRedisStore) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}

// command runs one Redis command and decodes its result into dst when dst
// is non-nil.
func (s *UpstashRedisStore) command(ctx context.Context, dst any, args ...any) error {
	name := "redis"
	if len(args) > 0 {
		name = fmt.Sprint(args[0])
	}

	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("upstash %s: encode: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("upstash %s: %w", name, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstash %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, upstashMaxReplyBytes))
	if err != nil {
		return fmt.Errorf("upstash %s: read reply: %w", name, err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("upstash %s: status %d: %s", name, resp.StatusCode, bytes.TrimSpace(raw))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("upstash %s: decode reply: %w", name, err)
	}
	if envelope.Error != "" {
		return fmt.Errorf("upstash %s: %s", name, envelope.Error)
	}
	if dst == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, dst); err != nil {
		return fmt.Errorf("upstash %s: decode result: %w", name, err)
	}
	return nil
}
