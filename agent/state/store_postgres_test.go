package state

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// Runs against a real database only when INA_TEST_POSTGRES_DSN is set.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("INA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("INA_TEST_POSTGRES_DSN not set")
	}
	store, err := NewPostgresStore(context.Background(), PostgresConfig{
		DSN:         dsn,
		DialTimeout: 5 * time.Second,
		AutoMigrate: true,
	}, time.Minute)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewPostgresStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewPostgresStore(context.Background(), PostgresConfig{}, time.Minute); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()
	id := "session:pg-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = store.Delete(ctx, id) })

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := store.Load(ctx, id); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	sess := NewSession(id, time.Now())
	sess.Append(SpeakerUser, "120?", time.Now())
	sess.Append(SpeakerBot, "My best price is $160.", time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	sess.Append(SpeakerUser, "150", time.Now())
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() upsert error = %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Turns) != 3 || got.Turns[2].Text != "150" {
		t.Fatalf("unexpected turns: %#v", got.Turns)
	}
}

func TestPostgresStoreExpiry(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()
	id := "session:pg-exp-" + time.Now().Format("150405.000000000")

	if err := store.Save(ctx, NewSession(id, time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := store.Load(ctx, id); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected expired session to be missing, got %v", err)
	}
	n, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n < 1 {
		t.Fatalf("expected at least one purged row, got %d", n)
	}
}
