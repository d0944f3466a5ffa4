package phraser

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

const defaultClientTimeout = 10 * time.Second

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Client calls a remote /phrase service. It sends only the PhrasingRequest
// projection.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ contractx.ResponsePhraser = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("phraser url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid phraser url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   base + "/phrase",
		httpClient: httpClient,
	}, nil
}

func (c *Client) Phrase(ctx context.Context, in contractx.PhrasingRequest) (contractx.PhrasingResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("marshal phrase request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("build phrase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: phraser: %v", contractx.ErrDownstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: read phraser response: %v", contractx.ErrDownstream, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: phraser status=%d body=%s", contractx.ErrDownstream, resp.StatusCode, string(raw))
	}

	var out contractx.PhrasingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: decode phraser response: %v", contractx.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(out.ResponseText) == "" {
		return contractx.PhrasingResponse{}, fmt.Errorf("%w: phraser returned empty response_text", contractx.ErrSchemaViolation)
	}
	return out, nil
}
