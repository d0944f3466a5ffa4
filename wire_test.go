package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tanpawarit/ina-negotiation/agent/audit"
	"github.com/tanpawarit/ina-negotiation/agent/nlu"
	phraserx "github.com/tanpawarit/ina-negotiation/agent/phraser"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

func TestBuildStoreMemoryPurgesInBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := buildStore(ctx, AppConfig{
		SessionBackend: "memory",
		SessionTTL:     time.Millisecond,
		PurgeInterval:  5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("buildStore() error = %v", err)
	}
	defer closeStore()

	mem := store.(*statex.MemoryStore)
	if err := mem.Save(ctx, statex.NewSession("session:gone", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for mem.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("expired session was never purged")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBuildStoreMemory(t *testing.T) {
	store, closeStore, err := buildStore(context.Background(), AppConfig{SessionBackend: "memory", SessionTTL: time.Hour})
	if err != nil {
		t.Fatalf("buildStore() error = %v", err)
	}
	defer closeStore()
	if _, ok := store.(*statex.MemoryStore); !ok {
		t.Fatalf("unexpected store type %T", store)
	}
	if _, _, err := buildStore(context.Background(), AppConfig{SessionBackend: "cassandra"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildClassifier(t *testing.T) {
	c, err := buildClassifier(AppConfig{ClassifierBackend: "regex"})
	if err != nil {
		t.Fatalf("buildClassifier() error = %v", err)
	}
	if _, ok := c.(nlu.RegexClassifier); !ok {
		t.Fatalf("unexpected classifier type %T", c)
	}

	c, err = buildClassifier(AppConfig{ClassifierBackend: "http", ClassifierURL: "http://nlu:8001", ClassifierTimeout: time.Second})
	if err != nil {
		t.Fatalf("buildClassifier(http) error = %v", err)
	}
	if _, ok := c.(*nlu.Client); !ok {
		t.Fatalf("unexpected classifier type %T", c)
	}

	if _, err := buildClassifier(AppConfig{ClassifierBackend: "oracle"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildPhraser(t *testing.T) {
	p, err := buildPhraser(context.Background(), AppConfig{PhraserBackend: "template"})
	if err != nil {
		t.Fatalf("buildPhraser() error = %v", err)
	}
	if _, ok := p.(*phraserx.TemplatePhraser); !ok {
		t.Fatalf("unexpected phraser type %T", p)
	}

	p, err = buildPhraser(context.Background(), AppConfig{PhraserBackend: "http", PhraserURL: "http://phraser:8002"})
	if err != nil {
		t.Fatalf("buildPhraser(http) error = %v", err)
	}
	if _, ok := p.(*phraserx.Client); !ok {
		t.Fatalf("unexpected phraser type %T", p)
	}

	if _, err := buildPhraser(context.Background(), AppConfig{PhraserBackend: "poet"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildAudit(t *testing.T) {
	sink, err := buildAudit(AppConfig{AuditBackend: "none"})
	if err != nil || sink != nil {
		t.Fatalf("expected nil sink, got %v %v", sink, err)
	}
	sink, err = buildAudit(AppConfig{AuditBackend: "log"})
	if err != nil {
		t.Fatalf("buildAudit(log) error = %v", err)
	}
	if _, ok := sink.(audit.LogSink); !ok {
		t.Fatalf("unexpected sink type %T", sink)
	}
	if _, err := buildAudit(AppConfig{AuditBackend: "kafka"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

type countingPurger struct{ calls atomic.Int32 }

func (c *countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, nil
}

func TestPurgeExpiredSessionsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	purger := &countingPurger{}
	done := make(chan struct{})
	go func() {
		purgeExpiredSessions(ctx, purger, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("purge never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("purge loop did not stop")
	}
}
