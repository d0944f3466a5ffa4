package phraser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

func TestClientPhrase(t *testing.T) {
	t.Parallel()

	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/phrase" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"response_text":"My best price is $175."}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	out, err := client.Phrase(context.Background(), contractx.PhrasingRequest{
		Action:       contractx.ActionCounter,
		ResponseKey:  contractx.ResponseStandardCounter,
		CounterPrice: ptr(175),
	})
	if err != nil {
		t.Fatalf("Phrase() error = %v", err)
	}
	if out.ResponseText != "My best price is $175." {
		t.Fatalf("unexpected text: %q", out.ResponseText)
	}
	if len(raw) != 3 || raw["action"] != "COUNTER" || raw["counter_price"] != float64(175) {
		t.Fatalf("unexpected request body: %#v", raw)
	}
}

func TestClientPhraseFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, want: contractx.ErrDownstream},
		{name: "bad json", status: http.StatusOK, body: `{`, want: contractx.ErrSchemaViolation},
		{name: "empty text", status: http.StatusOK, body: `{"response_text":""}`, want: contractx.ErrSchemaViolation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			t.Cleanup(server.Close)

			client, _ := NewClient(Config{URL: server.URL}, server.Client())
			_, err := client.Phrase(context.Background(), contractx.PhrasingRequest{ResponseKey: contractx.ResponseDefault})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{URL: "http://127.0.0.1:1"}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = client.Phrase(context.Background(), contractx.PhrasingRequest{ResponseKey: contractx.ResponseDefault})
	if !errors.Is(err, contractx.ErrDownstream) {
		t.Fatalf("expected ErrDownstream, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "not a url"}, nil); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{URL: "http://phraser.local"}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.httpClient.Timeout != defaultClientTimeout {
		t.Fatalf("client timeout = %s, want %s", c.httpClient.Timeout, defaultClientTimeout)
	}
}
