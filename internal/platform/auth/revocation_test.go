package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRevocation_RevokeAndCheck(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	store.Revoke(ctx, "jti-abc", "user-1", time.Now().Add(time.Hour))

	revoked, err := store.IsRevoked(ctx, "jti-abc")
	if err != nil || !revoked {
		t.Errorf("expected jti-abc revoked, got %v, %v", revoked, err)
	}
	revoked, _ = store.IsRevoked(ctx, "unknown")
	if revoked {
		t.Error("expected unknown JTI to not be revoked")
	}
	if store.Count() != 1 {
		t.Errorf("expected count 1, got %d", store.Count())
	}
}

func TestMemoryRevocation_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Revoke(ctx, "expired", "u", now.Add(-time.Minute))
	store.Revoke(ctx, "live", "u", now.Add(time.Minute))
	store.cleanup()

	if revoked, _ := store.IsRevoked(ctx, "expired"); revoked {
		t.Error("expected expired entry to be removed")
	}
	if revoked, _ := store.IsRevoked(ctx, "live"); !revoked {
		t.Error("expected live entry to remain")
	}
}

func TestMemoryRevocation_CloseTwice(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	store.Close()
	store.Close()
}

func TestMemoryRevocation_Concurrent(t *testing.T) {
	store := NewMemoryRevocationStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := fmt.Sprintf("jti-%d", i)
			store.Revoke(ctx, jti, "u", time.Now().Add(time.Hour))
			store.IsRevoked(ctx, jti)
		}(i)
	}
	wg.Wait()

	if store.Count() != 50 {
		t.Errorf("expected 50 entries, got %d", store.Count())
	}
}

func TestRedisRevocation_KeyAndTTL(t *testing.T) {
	if got := revokedKey("abc"); got != "emr:revoked:abc" {
		t.Errorf("unexpected key %q", got)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := remaining(now.Add(90*time.Second), now); got != 90*time.Second {
		t.Errorf("expected 90s, got %s", got)
	}
	if got := remaining(now.Add(-time.Second), now); got > 0 {
		t.Errorf("expected non-positive ttl for expired token, got %s", got)
	}
}

func TestRedisRevocation_ExpiredTokenIsNoop(t *testing.T) {
	// A nil client would panic if Revoke reached Redis.
	store := &RedisRevocationStore{now: time.Now}
	if err := store.Revoke(context.Background(), "jti", "u", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
