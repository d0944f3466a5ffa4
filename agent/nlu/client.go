package nlu

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

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// ParseRequest and ParseResponse are the /parse wire format.
type ParseRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

type ParseResponse struct {
	Intent    string   `json:"intent"`
	Entities  Entities `json:"entities"`
	Sentiment string   `json:"sentiment"`
}

type Entities struct {
	Price *float64 `json:"PRICE"`
}

// Client calls a remote NLU service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ contractx.IntentClassifier = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("nlu url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid nlu url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint:   base + "/parse",
		httpClient: httpClient,
	}, nil
}

func (c *Client) Classify(ctx context.Context, text string, sessionID string) (contractx.Classification, error) {
	body, err := json.Marshal(ParseRequest{Text: text, SessionID: sessionID})
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: nlu: %v", contractx.ErrDownstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: read nlu response: %v", contractx.ErrDownstream, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return contractx.Classification{}, fmt.Errorf("%w: nlu status=%d body=%s", contractx.ErrDownstream, resp.StatusCode, string(raw))
	}

	var parsed ParseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: decode nlu response: %v", contractx.ErrSchemaViolation, err)
	}

	return parsed.Classification(), nil
}

// Classification converts the wire response, normalising the intent label.
func (p ParseResponse) Classification() contractx.Classification {
	sentiment := strings.ToLower(strings.TrimSpace(p.Sentiment))
	if sentiment == "" {
		sentiment = contractx.SentimentNeutral
	}
	return contractx.Classification{
		Intent:    NormalizeIntent(p.Intent),
		Sentiment: sentiment,
		Price:     p.Entities.Price,
	}
}

var intentMap = map[string]string{
	IntentProposeOffer: contractx.IntentMakeOffer,
	IntentAskQuestion:  contractx.IntentAskQuestion,
}

// NormalizeIntent maps NLU labels onto decider intents; unknown labels pass through.
func NormalizeIntent(intent string) string {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return contractx.IntentUnknown
	}
	if mapped, ok := intentMap[intent]; ok {
		return mapped
	}
	return intent
}
