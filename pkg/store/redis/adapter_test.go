package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

func newTestAdapter(t *testing.T) *RedisAdapter {
	t.Helper()
	mr := miniredis.RunT(t)
	a, err := NewRedisAdapter(Config{Name: "redis-test", URL: "redis://" + mr.Addr()}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewRedisAdapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewRedisAdapterRequiresURL(t *testing.T) {
	if _, err := NewRedisAdapter(Config{}, logger.NewNopLogger()); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

func TestNewRedisAdapterRejectsBadURL(t *testing.T) {
	if _, err := NewRedisAdapter(Config{URL: "not-a-url"}, logger.NewNopLogger()); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestResourceMetadata(t *testing.T) {
	a := newTestAdapter(t)
	if a.Name() != "redis-test" {
		t.Fatalf("Name() = %q", a.Name())
	}
	if a.Kind() != txn.KindRedis {
		t.Fatalf("Kind() = %q", a.Kind())
	}
	got := a.SupportedIsolation()
	if len(got) != 1 || got[0] != txn.IsolationSerializable {
		t.Fatalf("SupportedIsolation() = %v, want [serializable]", got)
	}
}

func TestBoundaryCommitAppliesQueuedCommands(t *testing.T) {
	a := newTestAdapter(t)
	m := txn.NewManager()

	err := m.Run(context.Background(), a, txn.Options{}, func(ctx context.Context) error {
		if err := a.Cmdable(ctx).Set(ctx, "org:acme", "ACME", 0).Err(); err != nil {
			return err
		}
		// Queued commands are invisible through the client until EXEC.
		if exists, err := a.client.Exists(ctx, "org:acme").Result(); err != nil {
			return err
		} else if exists != 0 {
			return errors.New("queued write visible before commit")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	val, err := a.client.Get(context.Background(), "org:acme").Result()
	if err != nil {
		t.Fatalf("Get after commit: %v", err)
	}
	if val != "ACME" {
		t.Fatalf("value = %q, want ACME", val)
	}
}

func TestBoundaryRollbackDiscardsQueuedCommands(t *testing.T) {
	a := newTestAdapter(t)
	m := txn.NewManager()
	boom := errors.New("boom")

	err := m.Run(context.Background(), a, txn.Options{}, func(ctx context.Context) error {
		if err := a.Cmdable(ctx).Set(ctx, "org:acme", "ACME", 0).Err(); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if exists, err := a.client.Exists(context.Background(), "org:acme").Result(); err != nil {
		t.Fatalf("Exists: %v", err)
	} else if exists != 0 {
		t.Fatal("discarded write must not reach the server")
	}
}

func TestJoinedBoundariesShareOnePipeline(t *testing.T) {
	a := newTestAdapter(t)
	m := txn.NewManager()

	err := m.Run(context.Background(), a, txn.Options{}, func(ctx context.Context) error {
		outer := a.Cmdable(ctx)
		return m.Run(ctx, a, txn.Options{}, func(ctx context.Context) error {
			if a.Cmdable(ctx) != outer {
				t.Fatal("joined boundary must resolve the same pipeline")
			}
			return a.Cmdable(ctx).Set(ctx, "k", "v", 0).Err()
		})
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if val, _ := a.client.Get(context.Background(), "k").Result(); val != "v" {
		t.Fatalf("value = %q, want v", val)
	}
}

func TestCmdableOutsideBoundaryIsClient(t *testing.T) {
	a := newTestAdapter(t)

	if err := a.Cmdable(context.Background()).Set(context.Background(), "direct", "1", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, _ := a.client.Get(context.Background(), "direct").Result(); val != "1" {
		t.Fatal("direct command must apply immediately")
	}
}

func TestHealthCheck(t *testing.T) {
	a := newTestAdapter(t)
	if err := a.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
